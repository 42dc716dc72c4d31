package render

import (
	"fmt"
	"image"

	"image-labeler/internal/domain"
	"image-labeler/internal/usecase/render/operations"
	"image-labeler/internal/usecase/sequence"
)

const (
	DefaultMaxValues       = 100_000
	DefaultMaxCanvasPixels = 64_000_000
)

// Limits bound what a single job may allocate. Zero fields take the defaults.
type Limits struct {
	MaxValues       int
	MaxCanvasPixels int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxValues <= 0 {
		l.MaxValues = DefaultMaxValues
	}
	if l.MaxCanvasPixels <= 0 {
		l.MaxCanvasPixels = DefaultMaxCanvasPixels
	}
	return l
}

// Job is a fully resolved, immutable render request.
type Job struct {
	ID         string
	Spec       domain.JobSpec
	Background image.Image
	Font       operations.Font
	Width      int
	Height     int
	AutoFit    bool
	Values     []domain.RenderValue
	Style      operations.TextStyle
}

func LoadBackground(path string) (image.Image, error) {
	img, err := operations.OpenBackground(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackgroundUnreadable, err)
	}
	return img, nil
}

// NewJob resolves canvas size, font and values. spec is normalized in place
// on a copy; the caller's value is untouched.
func NewJob(id string, spec domain.JobSpec, background image.Image, fonts *operations.FontResolver, limits Limits) (*Job, error) {
	if background == nil {
		return nil, ErrBackgroundUnreadable
	}
	spec.Normalize()
	limits = limits.withDefaults()

	w, h, auto := operations.CanvasPixels(spec.Canvas, background.Bounds())
	if int64(w)*int64(h) > limits.MaxCanvasPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrCanvasTooLarge, w, h, limits.MaxCanvasPixels)
	}

	values, err := sequence.Expand(spec.Source, limits.MaxValues)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}

	return &Job{
		ID:         id,
		Spec:       spec,
		Background: background,
		Font:       fonts.Resolve(spec.FontPath, spec.FontSize),
		Width:      w,
		Height:     h,
		AutoFit:    auto,
		Values:     values,
		Style:      operations.StyleFromSpec(&spec),
	}, nil
}

func (j *Job) Total() int {
	return len(j.Values)
}

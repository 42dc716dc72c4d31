package operations

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// MaxFontFileSize bounds how much of a font file is read.
const MaxFontFileSize = 32 << 20

var ErrFontUnavailable = errors.New("font unavailable")

// Font is either a ScalableFont or a FixedFont. Only scalable fonts take part
// in auto-shrink.
type Font interface {
	Face() font.Face
	Name() string
	Size() float64
}

type ScalableFont struct {
	name string
	ttf  *truetype.Font
	size float64
	face font.Face
}

// NewScalableFont parses TrueType data. Size is in pixels.
func NewScalableFont(name string, data []byte, size float64) (*ScalableFont, error) {
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	return newScalable(name, ttf, size), nil
}

func newScalable(name string, ttf *truetype.Font, size float64) *ScalableFont {
	return &ScalableFont{
		name: name,
		ttf:  ttf,
		size: size,
		face: truetype.NewFace(ttf, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}),
	}
}

func (f *ScalableFont) Face() font.Face { return f.face }
func (f *ScalableFont) Name() string    { return f.name }
func (f *ScalableFont) Size() float64   { return f.size }

// WithSize returns the same typeface at another size.
func (f *ScalableFont) WithSize(size float64) *ScalableFont {
	if size == f.size {
		return f
	}
	return newScalable(f.name, f.ttf, size)
}

// FixedFont is the bitmap fallback. Its glyph size cannot change.
type FixedFont struct {
	face *basicfont.Face
}

func NewFixedFont() *FixedFont {
	return &FixedFont{face: basicfont.Face7x13}
}

func (f *FixedFont) Face() font.Face { return f.face }
func (f *FixedFont) Name() string    { return "basicfont-7x13" }
func (f *FixedFont) Size() float64   { return float64(f.face.Height) }

type FontResolver struct {
	systemFonts []string
	embedded    bool
	readFile    func(string) ([]byte, error)
}

func NewFontResolver(systemFonts []string, embedded bool) *FontResolver {
	return &FontResolver{
		systemFonts: systemFonts,
		embedded:    embedded,
		readFile:    readFontFile,
	}
}

// readFontFile reads a regular file no larger than MaxFontFileSize. Devices,
// pipes and directories are refused before any read.
func readFontFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() > MaxFontFileSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxFontFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(f, MaxFontFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFontFileSize {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, MaxFontFileSize)
	}
	return data, nil
}

// Resolve walks the fallback chain: the requested file, the configured system
// fonts, the embedded Go Regular face and finally the fixed bitmap font.
// It never fails; the bitmap font is always available.
func (r *FontResolver) Resolve(path string, size int) Font {
	candidates := make([]string, 0, len(r.systemFonts)+1)
	if path != "" {
		candidates = append(candidates, path)
	}
	candidates = append(candidates, r.systemFonts...)

	for _, p := range candidates {
		if f, err := r.load(p, size); err == nil {
			return f
		}
	}

	if r.embedded {
		if f, err := NewScalableFont("goregular", goregular.TTF, float64(size)); err == nil {
			return f
		}
	}

	return NewFixedFont()
}

func (r *FontResolver) load(path string, size int) (*ScalableFont, error) {
	data, err := r.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFontUnavailable, path, err)
	}
	return NewScalableFont(path, data, float64(size))
}

package domain

import "strings"

type SourceKind string

const (
	SourceText    SourceKind = "text"
	SourceNumbers SourceKind = "numbers"
	SourceRanges  SourceKind = "ranges"
)

// CanvasSize is either Auto (adopt the background's pixel size) or an explicit
// physical size converted through DPI.
type CanvasSize struct {
	Auto   bool    `json:"auto"`
	Width  float64 `json:"width" validate:"min=0,max=10000"`
	Height float64 `json:"height" validate:"min=0,max=10000"`
	Unit   Unit    `json:"unit" validate:"omitempty,oneof=inches cm mm"`
	DPI    int     `json:"dpi" validate:"omitempty,min=1,max=2400"`
}

type TextSource struct {
	Kind   SourceKind `json:"kind" validate:"omitempty,oneof=text numbers ranges"`
	Text   string     `json:"text"`
	Start  int        `json:"start"`
	End    int        `json:"end"`
	Step   int        `json:"step"`
	Ranges string     `json:"ranges" validate:"max=4096"`
	Prefix string     `json:"prefix"`
	Suffix string     `json:"suffix"`
}

type JobSpec struct {
	ID         string         `json:"id,omitempty"`
	Background string         `json:"background"`
	OutputDir  string         `json:"output_dir"`
	BaseName   string         `json:"base_name"`
	Format     ImageFormat    `json:"format" validate:"omitempty,oneof=jpg png tiff"`
	Manifest   ManifestFormat `json:"manifest" validate:"omitempty,oneof=xlsx csv"`
	Fit        FitMode        `json:"fit" validate:"omitempty,oneof=cover contain"`
	Canvas     CanvasSize     `json:"canvas"`
	Source     TextSource     `json:"source"`
	FontPath   string         `json:"font_path"`
	FontSize   int            `json:"font_size" validate:"omitempty,min=1,max=2000"`
	Color      RGB            `json:"color"`
	Outline    bool           `json:"outline"`
	Padding    Padding        `json:"padding"`
	HAlign     HAlign         `json:"h_align" validate:"omitempty,oneof=left center right"`
	VAlign     VAlign         `json:"v_align" validate:"omitempty,oneof=top middle bottom"`
}

const (
	DefaultBaseName = "created"
	DefaultFontSize = 48
	MinFontSize     = 6
	DefaultDPI      = 300
	DefaultPadding  = 10
)

// Normalize fills unset fields with defaults and clamps out-of-range values.
func (s *JobSpec) Normalize() {
	s.BaseName = strings.TrimSpace(s.BaseName)
	if s.BaseName == "" {
		s.BaseName = DefaultBaseName
	}
	if s.Format == "" {
		s.Format = FormatJPEG
	}
	if s.Manifest == "" {
		s.Manifest = ManifestXLSX
	}
	if s.Fit == "" {
		s.Fit = FitCover
	}
	if s.HAlign == "" {
		s.HAlign = AlignCenter
	}
	if s.VAlign == "" {
		s.VAlign = AlignMiddle
	}
	if s.Canvas.Unit == "" {
		s.Canvas.Unit = UnitInches
	}
	if s.Canvas.DPI < 1 {
		s.Canvas.DPI = DefaultDPI
	}
	if s.FontSize == 0 {
		s.FontSize = DefaultFontSize
	}
	if s.FontSize < MinFontSize {
		s.FontSize = MinFontSize
	}
	if s.Source.Kind == "" {
		s.Source.Kind = SourceNumbers
	}
	if s.Source.Step < 1 {
		s.Source.Step = 1
	}
}

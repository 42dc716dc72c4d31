package domain

import "strconv"

type Unit string

const (
	UnitInches Unit = "inches"
	UnitCM     Unit = "cm"
	UnitMM     Unit = "mm"
)

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
)

type HAlign string

const (
	AlignLeft   HAlign = "left"
	AlignCenter HAlign = "center"
	AlignRight  HAlign = "right"
)

type VAlign string

const (
	AlignTop    VAlign = "top"
	AlignMiddle VAlign = "middle"
	AlignBottom VAlign = "bottom"
)

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpg"
	FormatPNG  ImageFormat = "png"
	FormatTIFF ImageFormat = "tiff"
)

func (f ImageFormat) Ext() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatTIFF:
		return "tiff"
	default:
		return "jpg"
	}
}

func (f ImageFormat) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatTIFF:
		return "image/tiff"
	default:
		return "image/jpeg"
	}
}

type ManifestFormat string

const (
	ManifestXLSX ManifestFormat = "xlsx"
	ManifestCSV  ManifestFormat = "csv"
)

const ManifestBaseName = "created_images_report"

type Padding struct {
	Left   int `json:"left" validate:"min=0"`
	Right  int `json:"right" validate:"min=0"`
	Top    int `json:"top" validate:"min=0"`
	Bottom int `json:"bottom" validate:"min=0"`
}

type RGB struct {
	R int `json:"r" validate:"min=0,max=255"`
	G int `json:"g" validate:"min=0,max=255"`
	B int `json:"b" validate:"min=0,max=255"`
}

type ValueKind int

const (
	ValueNumber ValueKind = iota
	ValueText
)

// RenderValue is one element of a batch: either a counter value or a literal string.
type RenderValue struct {
	Kind   ValueKind
	Number int
	Text   string
}

func NumberValue(n int) RenderValue {
	return RenderValue{Kind: ValueNumber, Number: n}
}

func TextValue(s string) RenderValue {
	return RenderValue{Kind: ValueText, Text: s}
}

func (v RenderValue) String() string {
	if v.Kind == ValueText {
		return v.Text
	}
	return strconv.Itoa(v.Number)
}

// Label is the drawn text. Prefix and suffix decorate counter values only.
func (v RenderValue) Label(prefix, suffix string) string {
	if v.Kind == ValueText {
		return v.Text
	}
	return prefix + v.String() + suffix
}

// Cell is the manifest representation: numbers stay numeric.
func (v RenderValue) Cell() interface{} {
	if v.Kind == ValueText {
		return v.Text
	}
	return v.Number
}

type RenderResult struct {
	Value     RenderValue
	FileName  string
	FullPath  string
	Extension string
}

type Manifest struct {
	Results []RenderResult
}

func (m *Manifest) Add(r RenderResult) {
	m.Results = append(m.Results, r)
}

func (m *Manifest) Len() int {
	return len(m.Results)
}

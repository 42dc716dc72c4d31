package operations

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"image-labeler/internal/domain"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
)

const (
	minShrinkSize = 6
	shrinkStep    = 2
)

var outlineOffsets = [8]image.Point{
	image.Pt(-1, 0), image.Pt(1, 0), image.Pt(0, -1), image.Pt(0, 1),
	image.Pt(-1, -1), image.Pt(1, 1), image.Pt(-1, 1), image.Pt(1, -1),
}

type TextStyle struct {
	Color   color.Color
	Outline bool
	Padding domain.Padding
	HAlign  domain.HAlign
	VAlign  domain.VAlign
}

func StyleFromSpec(spec *domain.JobSpec) TextStyle {
	return TextStyle{
		Color:   color.NRGBA{R: uint8(spec.Color.R), G: uint8(spec.Color.G), B: uint8(spec.Color.B), A: 255},
		Outline: spec.Outline,
		Padding: spec.Padding,
		HAlign:  spec.HAlign,
		VAlign:  spec.VAlign,
	}
}

// TextBox is the tight ink box of a string relative to its drawing dot.
type TextBox struct {
	MinX, MinY int
	Width      int
	Height     int
}

func MeasureText(face font.Face, text string) TextBox {
	bounds, _ := font.BoundString(face, text)
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	return TextBox{
		MinX:   minX,
		MinY:   minY,
		Width:  max(0, bounds.Max.X.Ceil()-minX),
		Height: max(0, bounds.Max.Y.Ceil()-minY),
	}
}

type Layout struct {
	Font      Font
	Box       TextBox
	Available image.Rectangle
	// Origin is the top-left corner of the ink box on the canvas.
	Origin image.Point
	// Overflow reports that the text is still larger than the available area.
	Overflow bool
}

func availableRect(canvas image.Rectangle, p domain.Padding) image.Rectangle {
	x0 := canvas.Min.X + p.Left
	y0 := canvas.Min.Y + p.Top
	x1 := canvas.Max.X - p.Right
	y1 := canvas.Max.Y - p.Bottom
	return image.Rect(x0, y0, x0+max(1, x1-x0), y0+max(1, y1-y0))
}

// FitText picks the font size and origin for text inside the padded canvas.
func FitText(canvas image.Rectangle, f Font, text string, style TextStyle) Layout {
	avail := availableRect(canvas, style.Padding)
	availW, availH := avail.Dx(), avail.Dy()

	box := MeasureText(f.Face(), text)
	oversized := func(b TextBox) bool {
		return b.Width > availW || b.Height > availH
	}

	if sf, ok := f.(*ScalableFont); ok {
		size := sf.Size()
		for oversized(box) && size > minShrinkSize {
			size -= shrinkStep
			sf = sf.WithSize(size)
			box = MeasureText(sf.Face(), text)
		}
		f = sf
	}

	// Right and bottom align against the padded edge, not the clamped rect.
	x1 := canvas.Max.X - style.Padding.Right
	y1 := canvas.Max.Y - style.Padding.Bottom

	var tx, ty float64
	switch style.HAlign {
	case domain.AlignLeft:
		tx = float64(avail.Min.X)
	case domain.AlignRight:
		tx = float64(x1 - box.Width)
	default:
		tx = float64(avail.Min.X) + float64(availW-box.Width)/2
	}
	switch style.VAlign {
	case domain.AlignTop:
		ty = float64(avail.Min.Y)
	case domain.AlignBottom:
		ty = float64(y1 - box.Height)
	default:
		ty = float64(avail.Min.Y) + float64(availH-box.Height)/2
	}

	return Layout{
		Font:      f,
		Box:       box,
		Available: avail,
		Origin:    image.Pt(max(0, int(math.Floor(tx))), max(0, int(math.Floor(ty)))),
		Overflow:  oversized(box),
	}
}

// DrawText renders text at the layout origin, outline passes first.
func DrawText(dst draw.Image, l Layout, text string, style TextStyle) {
	dot := image.Pt(l.Origin.X-l.Box.MinX, l.Origin.Y-l.Box.MinY)

	d := &font.Drawer{
		Dst:  dst,
		Face: l.Font.Face(),
	}

	if style.Outline {
		d.Src = image.NewUniform(color.Black)
		for _, off := range outlineOffsets {
			d.Dot = freetype.Pt(dot.X+off.X, dot.Y+off.Y)
			d.DrawString(text)
		}
	}

	fill := style.Color
	if fill == nil {
		fill = color.Black
	}
	d.Src = image.NewUniform(fill)
	d.Dot = freetype.Pt(dot.X, dot.Y)
	d.DrawString(text)
}

func RenderText(dst draw.Image, text string, f Font, style TextStyle) Layout {
	l := FitText(dst.Bounds(), f, text, style)
	DrawText(dst, l, text, style)
	return l
}

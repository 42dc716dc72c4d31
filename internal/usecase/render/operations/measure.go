package operations

import (
	"image"
	"math"

	"image-labeler/internal/domain"
)

// MaxPixelLength caps one canvas side so that pixel areas fit in an int64.
const MaxPixelLength = 1 << 24

// ToInches converts value to inches. Unknown units pass through unchanged.
func ToInches(value float64, unit domain.Unit) float64 {
	switch unit {
	case domain.UnitInches:
		return value
	case domain.UnitCM:
		return value / 2.54
	case domain.UnitMM:
		return value / 25.4
	default:
		return value
	}
}

// PixelLength converts a physical length to pixels, clamped to
// [1, MaxPixelLength].
func PixelLength(value float64, unit domain.Unit, dpi int) int {
	if dpi < 1 {
		dpi = 1
	}
	px := math.Round(ToInches(value, unit) * float64(dpi))
	switch {
	case !(px >= 1):
		return 1
	case px > MaxPixelLength:
		return MaxPixelLength
	}
	return int(px)
}

// CanvasPixels resolves the canvas size in pixels. Auto, or an explicit size
// whose sides both collapse to a single pixel, adopts the background size.
func CanvasPixels(size domain.CanvasSize, background image.Rectangle) (w, h int, auto bool) {
	if !size.Auto {
		w = PixelLength(size.Width, size.Unit, size.DPI)
		h = PixelLength(size.Height, size.Unit, size.DPI)
		if w > 1 || h > 1 {
			return w, h, false
		}
	}
	return max(1, background.Dx()), max(1, background.Dy()), true
}

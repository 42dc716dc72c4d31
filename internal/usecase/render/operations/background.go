package operations

import (
	"image"
	"image/color"
	"math"

	"image-labeler/internal/domain"

	"github.com/disintegration/imaging"
)

var canvasWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// FitBackground places src on an opaque white canvas of exactly w x h.
func FitBackground(src image.Image, w, h int, mode domain.FitMode) *image.NRGBA {
	canvas := imaging.New(w, h, canvasWhite)

	if mode == domain.FitContain {
		return contain(canvas, src, w, h)
	}
	return cover(canvas, src, w, h)
}

func cover(canvas *image.NRGBA, src image.Image, w, h int) *image.NRGBA {
	b := src.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return canvas
	}

	var scaledW, scaledH int
	if float64(srcW)/float64(srcH) > float64(w)/float64(h) {
		scaledH = h
		scaledW = int(math.Round(float64(srcW) * float64(h) / float64(srcH)))
	} else {
		scaledW = w
		scaledH = int(math.Round(float64(srcH) * float64(w) / float64(srcW)))
	}
	scaledW = max(scaledW, w)
	scaledH = max(scaledH, h)

	resized := imaging.Resize(src, scaledW, scaledH, imaging.Lanczos)
	left := (scaledW - w) / 2
	top := (scaledH - h) / 2
	cropped := imaging.Crop(resized, image.Rect(left, top, left+w, top+h))

	return imaging.Overlay(canvas, cropped, image.Pt(0, 0), 1.0)
}

func contain(canvas *image.NRGBA, src image.Image, w, h int) *image.NRGBA {
	thumb := imaging.Fit(src, w, h, imaging.Lanczos)
	tb := thumb.Bounds()
	x := (w - tb.Dx()) / 2
	y := (h - tb.Dy()) / 2

	return imaging.Overlay(canvas, thumb, image.Pt(x, y), 1.0)
}

package operations

import (
	"fmt"
	"image"
	"io"

	"image-labeler/internal/domain"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const JPEGQuality = 95

func imagingFormat(f domain.ImageFormat) imaging.Format {
	switch f {
	case domain.FormatPNG:
		return imaging.PNG
	case domain.FormatTIFF:
		return imaging.TIFF
	default:
		return imaging.JPEG
	}
}

// Encode writes img in the target format. JPEG output is flattened to RGB.
func Encode(w io.Writer, img image.Image, format domain.ImageFormat) error {
	if err := imaging.Encode(w, img, imagingFormat(format), imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format.Ext(), err)
	}
	return nil
}

func OpenBackground(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open background %s: %w", path, err)
	}
	return img, nil
}

func DecodeBackground(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode background: %w", err)
	}
	return img, nil
}

// PreviewCopy returns an independent copy of img no larger than maxSide on
// either axis.
func PreviewCopy(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return imaging.Clone(img)
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

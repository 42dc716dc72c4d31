package operations

import (
	"image"
	"testing"

	"image-labeler/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestToInches(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  domain.Unit
		want  float64
	}{
		{"inches identity", 2, domain.UnitInches, 2},
		{"cm", 2.54, domain.UnitCM, 1},
		{"mm", 25.4, domain.UnitMM, 1},
		{"unknown unit passes through", 7, domain.Unit("furlong"), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ToInches(tt.value, tt.unit), 1e-9)
		})
	}
}

func TestPixelLength(t *testing.T) {
	assert.Equal(t, 600, PixelLength(2, domain.UnitInches, 300))
	assert.Equal(t, 600, PixelLength(5.08, domain.UnitCM, 300))
	assert.Equal(t, 300, PixelLength(25.4, domain.UnitMM, 300))
	assert.Equal(t, 1, PixelLength(0, domain.UnitInches, 300), "never below one pixel")
	assert.Equal(t, 1, PixelLength(0.001, domain.UnitCM, 72))
	assert.Equal(t, 3, PixelLength(3, domain.UnitInches, 0), "dpi clamped to 1")
	assert.Equal(t, 7, PixelLength(7, domain.Unit("furlong"), 1), "unknown unit passes through")
}

func TestPixelLength_ClampsHugeSizes(t *testing.T) {
	assert.Equal(t, MaxPixelLength, PixelLength(1e7, domain.UnitInches, 300))
	assert.Equal(t, MaxPixelLength, PixelLength(1e300, domain.UnitMM, 2400))
	assert.Equal(t, 1, PixelLength(-5, domain.UnitInches, 300))
}

func TestCanvasPixels(t *testing.T) {
	bg := image.Rect(0, 0, 640, 480)

	t.Run("explicit size", func(t *testing.T) {
		w, h, auto := CanvasPixels(domain.CanvasSize{Width: 2, Height: 3, Unit: domain.UnitInches, DPI: 100}, bg)
		assert.Equal(t, 200, w)
		assert.Equal(t, 300, h)
		assert.False(t, auto)
	})

	t.Run("zero request adopts background", func(t *testing.T) {
		w, h, auto := CanvasPixels(domain.CanvasSize{Unit: domain.UnitInches, DPI: 300}, bg)
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)
		assert.True(t, auto)
	})

	t.Run("one usable side keeps explicit size", func(t *testing.T) {
		w, h, auto := CanvasPixels(domain.CanvasSize{Width: 1, Height: 0, Unit: domain.UnitInches, DPI: 300}, bg)
		assert.Equal(t, 300, w)
		assert.Equal(t, 1, h)
		assert.False(t, auto)
	})

	t.Run("auto flag", func(t *testing.T) {
		w, h, auto := CanvasPixels(domain.CanvasSize{Auto: true, Width: 5, Height: 5, Unit: domain.UnitInches, DPI: 300}, bg)
		assert.Equal(t, 640, w)
		assert.Equal(t, 480, h)
		assert.True(t, auto)
	})
}

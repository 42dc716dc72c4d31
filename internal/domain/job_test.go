package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobSpec_NormalizeDefaults(t *testing.T) {
	var s JobSpec
	s.Normalize()

	assert.Equal(t, DefaultBaseName, s.BaseName)
	assert.Equal(t, FormatJPEG, s.Format)
	assert.Equal(t, ManifestXLSX, s.Manifest)
	assert.Equal(t, FitCover, s.Fit)
	assert.Equal(t, AlignCenter, s.HAlign)
	assert.Equal(t, AlignMiddle, s.VAlign)
	assert.Equal(t, UnitInches, s.Canvas.Unit)
	assert.Equal(t, DefaultDPI, s.Canvas.DPI)
	assert.Equal(t, DefaultFontSize, s.FontSize)
	assert.Equal(t, SourceNumbers, s.Source.Kind)
	assert.Equal(t, 1, s.Source.Step)
}

func TestJobSpec_NormalizeClamps(t *testing.T) {
	s := JobSpec{BaseName: "  tag  ", FontSize: 3, Source: TextSource{Step: -4}}
	s.Normalize()

	assert.Equal(t, "tag", s.BaseName)
	assert.Equal(t, MinFontSize, s.FontSize)
	assert.Equal(t, 1, s.Source.Step)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderValue_Label(t *testing.T) {
	assert.Equal(t, "No. 7 pcs", NumberValue(7).Label("No. ", " pcs"))
	assert.Equal(t, "VIP", TextValue("VIP").Label("No. ", " pcs"))
	assert.Equal(t, "-2", NumberValue(-2).String())
}

func TestRenderValue_Cell(t *testing.T) {
	assert.Equal(t, 12, NumberValue(12).Cell())
	assert.Equal(t, "12", TextValue("12").Cell())
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "jpg", FormatJPEG.Ext())
	assert.Equal(t, "image/tiff", FormatTIFF.ContentType())
	assert.Equal(t, "jpg", ImageFormat("").Ext())
}

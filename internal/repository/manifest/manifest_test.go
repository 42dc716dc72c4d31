package manifest

import (
	"bytes"
	"encoding/csv"
	"testing"

	"image-labeler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleManifest() *domain.Manifest {
	m := &domain.Manifest{}
	m.Add(domain.RenderResult{Value: domain.NumberValue(1), FileName: "created_1.jpg", FullPath: "/out/created_1.jpg", Extension: "jpg"})
	m.Add(domain.RenderResult{Value: domain.NumberValue(2), FileName: "created_2.jpg", FullPath: "/out/created_2.jpg", Extension: "jpg"})
	m.Add(domain.RenderResult{Value: domain.TextValue("VIP"), FileName: "created_VIP.jpg", FullPath: "/out/created_VIP.jpg", Extension: "jpg"})
	return m
}

func TestXLSXEncoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXEncoder().Encode(&buf, sampleManifest()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"1", "created_1.jpg", "/out/created_1.jpg", "jpg"}, rows[1])
	assert.Equal(t, "VIP", rows[3][0])
}

func TestCSVEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVEncoder().Encode(&buf, sampleManifest()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, header, rows[0])
	assert.Equal(t, []string{"VIP", "created_VIP.jpg", "/out/created_VIP.jpg", "jpg"}, rows[3])
}

func TestEncoders_EmptyManifestWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVEncoder().Encode(&buf, &domain.Manifest{}))
	assert.Equal(t, "Value,File Name,Full Path,Extension\n", buf.String())
}

package manifest

import (
	"encoding/csv"
	"fmt"
	"io"

	"image-labeler/internal/domain"
)

type CSVEncoder struct{}

func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

func (e *CSVEncoder) Format() domain.ManifestFormat { return domain.ManifestCSV }
func (e *CSVEncoder) ContentType() string           { return "text/csv" }

func (e *CSVEncoder) Encode(w io.Writer, m *domain.Manifest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range m.Results {
		if err := cw.Write([]string{r.Value.String(), r.FileName, r.FullPath, r.Extension}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

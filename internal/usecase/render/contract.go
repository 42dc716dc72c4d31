package render

import (
	"context"
	"io"

	"image-labeler/internal/domain"
)

type fileRepository interface {
	EnsureLocation(ctx context.Context, dir string) error
	// Save stores one file and returns the path it can be found at.
	Save(ctx context.Context, dir, name string, data io.Reader, size int64, contentType string) (string, error)
}

type manifestEncoder interface {
	Format() domain.ManifestFormat
	ContentType() string
	Encode(w io.Writer, m *domain.Manifest) error
}

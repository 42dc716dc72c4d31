package job

import (
	"context"
	"image"
	"io"

	"image-labeler/internal/domain"
)

type jobUsecase interface {
	Start(ctx context.Context, spec domain.JobSpec, background io.Reader) (domain.JobStatus, error)
	Status(ctx context.Context, id string) (domain.JobStatus, error)
	Cancel(ctx context.Context, id string) error
	Preview(ctx context.Context, id string) (image.Image, error)
	RenderPreview(ctx context.Context, spec domain.JobSpec, background io.Reader) (image.Image, error)
	OpenFile(ctx context.Context, id, name string) (io.ReadCloser, string, error)
}

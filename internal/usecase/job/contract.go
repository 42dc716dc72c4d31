package job

import (
	"context"
	"image"
	"io"

	"image-labeler/internal/domain"
	"image-labeler/internal/usecase/render"
)

type runner interface {
	Start(ctx context.Context, job *render.Job) *render.Run
}

type previewer interface {
	RenderPreview(job *render.Job) image.Image
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type fileOpener interface {
	Open(ctx context.Context, dir, name string) (io.ReadCloser, error)
}

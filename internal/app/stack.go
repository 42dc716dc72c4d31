package app

import (
	"context"
	"fmt"
	"io"

	"image-labeler/internal/config"
	"image-labeler/internal/repository/manifest"
	minio_repo "image-labeler/internal/repository/output/cloud/minio"
	local_repo "image-labeler/internal/repository/output/local"
	"image-labeler/internal/usecase/render"
	"image-labeler/internal/usecase/render/operations"

	"github.com/wb-go/wbf/zlog"
)

const (
	BackendLocal = "local"
	BackendMinIO = "minio"
)

// FileStore is implemented by every output backend.
type FileStore interface {
	EnsureLocation(ctx context.Context, dir string) error
	Save(ctx context.Context, dir, name string, data io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, dir, name string) (io.ReadCloser, error)
}

// RenderStack is the rendering core wired to the configured storage backend.
type RenderStack struct {
	Pipeline *render.Pipeline
	Runner   *render.Runner
	Files    FileStore
	Fonts    *operations.FontResolver
	Limits   render.Limits
}

func NewRenderStack(cfg *config.Config, logger *zlog.Zerolog) (*RenderStack, error) {
	opts := render.Options{
		PreviewMaxSide: cfg.Render.PreviewMaxSide,
		YieldDelay:     cfg.Render.YieldDelay,
	}

	var files FileStore
	switch cfg.Storage.Backend {
	case BackendMinIO:
		repo, err := minio_repo.NewMinIORepository(cfg, cfg.DefaultRetryStrategy(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file repository: %w", err)
		}
		files = repo
	case BackendLocal, "":
		files = local_repo.NewFileRepository(cfg.Storage.Local.OutputDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	pipeline := render.NewPipeline(files, logger, opts, manifest.NewXLSXEncoder(), manifest.NewCSVEncoder())

	logger.Info().
		Str("backend", cfg.Storage.Backend).
		Strs("system_fonts", cfg.Render.SystemFonts).
		Bool("embedded_font", cfg.Render.EmbeddedFallback).
		Msg("Render stack configured")

	return &RenderStack{
		Pipeline: pipeline,
		Runner:   render.NewRunner(pipeline, cfg.Render.EventBuffer, logger),
		Files:    files,
		Fonts:    operations.NewFontResolver(cfg.Render.SystemFonts, cfg.Render.EmbeddedFallback),
		Limits: render.Limits{
			MaxValues:       cfg.Render.MaxValues,
			MaxCanvasPixels: cfg.Render.MaxCanvasPixels,
		},
	}, nil
}

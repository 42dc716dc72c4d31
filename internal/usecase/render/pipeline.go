package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"time"

	"image-labeler/internal/domain"
	"image-labeler/internal/usecase/render/operations"

	"github.com/wb-go/wbf/zlog"
)

type Options struct {
	PreviewMaxSide int
	YieldDelay     time.Duration
}

type Pipeline struct {
	files     fileRepository
	manifests map[domain.ManifestFormat]manifestEncoder
	logger    *zlog.Zerolog
	opts      Options
}

func NewPipeline(files fileRepository, logger *zlog.Zerolog, opts Options, manifests ...manifestEncoder) *Pipeline {
	byFormat := make(map[domain.ManifestFormat]manifestEncoder, len(manifests))
	for _, m := range manifests {
		byFormat[m.Format()] = m
	}
	return &Pipeline{
		files:     files,
		manifests: byFormat,
		logger:    logger,
		opts:      opts,
	}
}

// RenderFrame composes a single labelled canvas without saving it.
func (p *Pipeline) RenderFrame(job *Job, v domain.RenderValue) (*image.NRGBA, operations.Layout) {
	canvas := operations.FitBackground(job.Background, job.Width, job.Height, job.Spec.Fit)
	label := v.Label(job.Spec.Source.Prefix, job.Spec.Source.Suffix)
	layout := operations.RenderText(canvas, label, job.Font, job.Style)
	return canvas, layout
}

// RenderPreview renders the first value of the job.
func (p *Pipeline) RenderPreview(job *Job) image.Image {
	frame, _ := p.RenderFrame(job, job.Values[0])
	return frame
}

// Execute runs the job to completion on the calling goroutine and reports the
// terminal state. Cancellation of ctx is observed before each value only.
func (p *Pipeline) Execute(ctx context.Context, job *Job, emit func(domain.Event)) domain.RunState {
	state, _ := domain.StateIdle.Transition(domain.StateRunning)
	outputDir := job.Spec.OutputDir
	total := job.Total()

	send := func(ev domain.Event) {
		ev.RunID = job.ID
		emit(ev)
	}
	logf := func(format string, args ...interface{}) {
		send(domain.Event{Type: domain.EventLog, Message: fmt.Sprintf(format, args...)})
	}
	finish := func(next domain.RunState, processed int) domain.RunState {
		state, _ = state.Transition(next)
		send(domain.Event{
			Type:      domain.EventDone,
			State:     state,
			Processed: processed,
			Total:     total,
			OutputDir: outputDir,
		})
		return state
	}

	// In-flight saves finish even when a stop is requested.
	ioCtx := context.WithoutCancel(ctx)

	if err := p.files.EnsureLocation(ioCtx, outputDir); err != nil {
		err = fmt.Errorf("%w: %v", ErrOutputUnwritable, err)
		p.logger.Error().Err(err).Str("run_id", job.ID).Str("output_dir", outputDir).Msg("Output location unavailable")
		return p.fail(state, send, err)
	}

	if job.AutoFit {
		logf("Auto-fit used background size %dx%d", job.Width, job.Height)
	} else {
		logf("Target: %dx%d @ %d DPI", job.Width, job.Height, job.Spec.Canvas.DPI)
	}
	if _, fixed := job.Font.(*operations.FixedFont); fixed {
		logf("No scalable font found, using fixed bitmap font")
	}

	send(domain.Event{Type: domain.EventEstimate, Total: total})

	manifest := &domain.Manifest{}
	cancelled := false

	for _, v := range job.Values {
		if ctx.Err() != nil {
			logf("Stop requested.")
			cancelled = true
			break
		}

		frame, layout := p.RenderFrame(job, v)
		if layout.Overflow {
			p.logger.Debug().Str("run_id", job.ID).Str("value", v.String()).Float64("size", layout.Font.Size()).Msg("Text overflows padding box")
		}

		result, err := p.save(ioCtx, job, v, frame)
		if err != nil {
			logf("Save failed %s: %v", result.FullPath, err)
			p.logger.Error().Err(err).Str("run_id", job.ID).Str("value", v.String()).Msg("Save failed")
			return p.fail(state, send, err)
		}

		manifest.Add(result)
		send(domain.Event{Type: domain.EventProgress, Processed: manifest.Len(), Total: total})
		send(domain.Event{Type: domain.EventPreview, Preview: operations.PreviewCopy(frame, p.opts.PreviewMaxSide)})

		p.logger.Debug().
			Str("run_id", job.ID).
			Str("value", v.String()).
			Str("path", result.FullPath).
			Int("processed", manifest.Len()).
			Int("total", total).
			Msg("Value rendered")

		if p.opts.YieldDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(p.opts.YieldDelay):
			}
		}
	}

	p.writeManifest(ioCtx, job, manifest, logf)

	if cancelled {
		p.logger.Info().Str("run_id", job.ID).Int("processed", manifest.Len()).Int("total", total).Msg("Run cancelled")
		return finish(domain.StateCancelled, manifest.Len())
	}

	p.logger.Info().Str("run_id", job.ID).Int("processed", manifest.Len()).Msg("Run completed")
	return finish(domain.StateCompleted, manifest.Len())
}

func (p *Pipeline) fail(state domain.RunState, send func(domain.Event), err error) domain.RunState {
	state, _ = state.Transition(domain.StateFailed)
	send(domain.Event{Type: domain.EventError, State: state, Message: err.Error()})
	return state
}

func (p *Pipeline) save(ctx context.Context, job *Job, v domain.RenderValue, frame image.Image) (domain.RenderResult, error) {
	name := FileName(job.Spec.BaseName, v, job.Spec.Format)
	result := domain.RenderResult{
		Value:     v,
		FileName:  name,
		FullPath:  name,
		Extension: job.Spec.Format.Ext(),
	}

	var buf bytes.Buffer
	if err := operations.Encode(&buf, frame, job.Spec.Format); err != nil {
		return result, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	path, err := p.files.Save(ctx, job.Spec.OutputDir, name, &buf, int64(buf.Len()), job.Spec.Format.ContentType())
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	result.FullPath = path
	return result, nil
}

// writeManifest is best effort: failures are logged and the run goes on.
func (p *Pipeline) writeManifest(ctx context.Context, job *Job, m *domain.Manifest, logf func(string, ...interface{})) {
	if m.Len() == 0 {
		return
	}

	enc, found := p.manifests[job.Spec.Manifest]
	if !found {
		logf("Report error: unsupported manifest format %q", job.Spec.Manifest)
		return
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, m); err != nil {
		logf("Report error: %v", err)
		p.logger.Warn().Err(err).Str("run_id", job.ID).Msg("Failed to encode manifest")
		return
	}

	name := domain.ManifestBaseName + "." + string(enc.Format())
	path, err := p.files.Save(ctx, job.Spec.OutputDir, name, &buf, int64(buf.Len()), enc.ContentType())
	if err != nil {
		logf("Report error: %v", err)
		p.logger.Warn().Err(err).Str("run_id", job.ID).Msg("Failed to write manifest")
		return
	}

	logf("Report: %s", path)
}

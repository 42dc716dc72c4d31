package job

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"image-labeler/internal/domain"
	"image-labeler/internal/repository/output"
	"image-labeler/internal/usecase/render"
	"image-labeler/internal/usecase/render/operations"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

const maxLogLines = 200

type entry struct {
	run     *render.Run
	status  domain.JobStatus
	preview image.Image
}

// Usecase keeps track of runs started through the API.
type Usecase struct {
	runner    runner
	previewer previewer
	files     fileOpener
	fonts     *operations.FontResolver
	limits    render.Limits
	publisher eventPublisher
	validate  *validator.Validate
	logger    *zlog.Zerolog
	ttl       time.Duration

	mu   sync.RWMutex
	jobs map[string]*entry
}

func NewUsecase(r runner, p previewer, files fileOpener, fonts *operations.FontResolver, limits render.Limits, logger *zlog.Zerolog, ttl time.Duration) *Usecase {
	return &Usecase{
		runner:    r,
		previewer: p,
		files:     files,
		fonts:     fonts,
		limits:    limits,
		validate:  validator.New(),
		logger:    logger,
		ttl:       ttl,
		jobs:      make(map[string]*entry),
	}
}

// WithPublisher mirrors every non-preview event to an external sink.
func (u *Usecase) WithPublisher(p eventPublisher) *Usecase {
	u.publisher = p
	return u
}

func (u *Usecase) resolve(id string, spec domain.JobSpec, background io.Reader) (*render.Job, error) {
	if err := u.validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if background == nil {
		return nil, ErrBackgroundNeeded
	}

	bg, err := operations.DecodeBackground(background)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", render.ErrBackgroundUnreadable, err)
	}

	return render.NewJob(id, spec, bg, u.fonts, u.limits)
}

// Start resolves the job and launches it in the background. The run outlives
// ctx; use Cancel to stop it.
func (u *Usecase) Start(ctx context.Context, spec domain.JobSpec, background io.Reader) (domain.JobStatus, error) {
	u.evictExpired()

	id := spec.ID
	if id == "" {
		id = uuid.New().String()
	}

	job, err := u.resolve(id, spec, background)
	if err != nil {
		return domain.JobStatus{}, err
	}

	e := &entry{
		status: domain.JobStatus{
			ID:        id,
			State:     domain.StateRunning,
			Total:     job.Total(),
			OutputDir: job.Spec.OutputDir,
			Logs:      []string{},
			StartedAt: time.Now(),
		},
	}

	u.mu.Lock()
	if _, exists := u.jobs[id]; exists {
		u.mu.Unlock()
		return domain.JobStatus{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidSpec, id)
	}
	u.jobs[id] = e
	e.run = u.runner.Start(context.Background(), job)
	snapshot := e.status
	u.mu.Unlock()

	go u.drain(e)

	u.logger.Info().Str("run_id", id).Int("total", job.Total()).Msg("Job accepted")
	return snapshot, nil
}

func (u *Usecase) drain(e *entry) {
	for ev := range e.run.Events() {
		u.apply(e, ev)

		if ev.Type == domain.EventLog {
			u.logger.Info().Str("run_id", ev.RunID).Msg(ev.Message)
		}
		if u.publisher != nil && ev.Type != domain.EventPreview {
			if err := u.publisher.Publish(context.Background(), ev); err != nil {
				u.logger.Warn().Err(err).Str("run_id", ev.RunID).Str("event", string(ev.Type)).Msg("Failed to publish event")
			}
		}
	}

	u.logger.Info().Str("run_id", e.run.ID).Str("state", string(e.run.State())).Msg("Job finished")
}

func (u *Usecase) apply(e *entry, ev domain.Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	st := &e.status
	switch ev.Type {
	case domain.EventEstimate:
		st.Total = ev.Total
	case domain.EventProgress:
		st.Processed = ev.Processed
		st.Total = ev.Total
	case domain.EventPreview:
		e.preview = ev.Preview
	case domain.EventLog:
		st.Logs = append(st.Logs, ev.Message)
		if len(st.Logs) > maxLogLines {
			st.Logs = st.Logs[len(st.Logs)-maxLogLines:]
		}
	case domain.EventDone:
		st.State = ev.State
		st.Processed = ev.Processed
		now := time.Now()
		st.FinishedAt = &now
	case domain.EventError:
		st.State = domain.StateFailed
		st.Error = ev.Message
		now := time.Now()
		st.FinishedAt = &now
	}
}

func (u *Usecase) Status(ctx context.Context, id string) (domain.JobStatus, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	e, ok := u.jobs[id]
	if !ok {
		return domain.JobStatus{}, ErrJobNotFound
	}
	st := e.status
	st.Logs = append([]string(nil), e.status.Logs...)
	st.ETASeconds = int(st.ETA(time.Now()).Round(time.Second) / time.Second)
	return st, nil
}

func (u *Usecase) Cancel(ctx context.Context, id string) error {
	u.mu.RLock()
	e, ok := u.jobs[id]
	var state domain.RunState
	if ok {
		state = e.status.State
	}
	u.mu.RUnlock()

	if !ok {
		return ErrJobNotFound
	}
	if state.Terminal() {
		return ErrJobFinished
	}

	e.run.Cancel()
	u.logger.Info().Str("run_id", id).Msg("Cancellation requested")
	return nil
}

// Preview returns the last frame rendered by the run.
func (u *Usecase) Preview(ctx context.Context, id string) (image.Image, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	e, ok := u.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if e.preview == nil {
		return nil, ErrPreviewNotReady
	}
	return e.preview, nil
}

// RenderPreview renders the first value of spec without saving anything.
func (u *Usecase) RenderPreview(ctx context.Context, spec domain.JobSpec, background io.Reader) (image.Image, error) {
	job, err := u.resolve("preview", spec, background)
	if err != nil {
		return nil, err
	}
	return u.previewer.RenderPreview(job), nil
}

// OpenFile streams one output of a job. name must be a bare file name.
func (u *Usecase) OpenFile(ctx context.Context, id, name string) (io.ReadCloser, string, error) {
	if name == "." || !filepath.IsLocal(name) || strings.ContainsAny(name, `/\`) {
		return nil, "", ErrInvalidFileName
	}

	u.mu.RLock()
	e, ok := u.jobs[id]
	var dir string
	if ok {
		dir = e.status.OutputDir
	}
	u.mu.RUnlock()
	if !ok {
		return nil, "", ErrJobNotFound
	}

	rc, err := u.files.Open(ctx, dir, name)
	if err != nil {
		if errors.Is(err, output.ErrFileNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", err
	}
	return rc, contentType(name), nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func (u *Usecase) evictExpired() {
	if u.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-u.ttl)

	u.mu.Lock()
	defer u.mu.Unlock()
	for id, e := range u.jobs {
		if e.status.FinishedAt != nil && e.status.FinishedAt.Before(cutoff) {
			delete(u.jobs, id)
		}
	}
}

package render

import (
	"context"
	"fmt"
	"sync"

	"image-labeler/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

type Runner struct {
	pipeline *Pipeline
	buffer   int
	logger   *zlog.Zerolog
}

func NewRunner(pipeline *Pipeline, buffer int, logger *zlog.Zerolog) *Runner {
	if buffer < 1 {
		buffer = 1
	}
	return &Runner{
		pipeline: pipeline,
		buffer:   buffer,
		logger:   logger,
	}
}

// Run is a single background execution of a Job. Events must be drained by
// the owner until the channel is closed.
type Run struct {
	ID     string
	events chan domain.Event
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state domain.RunState
}

// Start launches the job on its own goroutine.
func (r *Runner) Start(ctx context.Context, job *Job) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		ID:     job.ID,
		events: make(chan domain.Event, r.buffer),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  domain.StateRunning,
	}

	r.logger.Info().
		Str("run_id", job.ID).
		Int("total", job.Total()).
		Int("width", job.Width).
		Int("height", job.Height).
		Str("font", job.Font.Name()).
		Msg("Run started")

	go func() {
		defer close(run.done)
		defer close(run.events)
		defer cancel()

		final := r.execute(runCtx, job, run)

		run.mu.Lock()
		run.state = final
		run.mu.Unlock()
	}()

	return run
}

// execute turns a panic inside the pipeline into a Failed run.
func (r *Runner) execute(ctx context.Context, job *Job, run *Run) (final domain.RunState) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().
				Interface("panic", p).
				Str("run_id", job.ID).
				Msg("Panic recovered during run")
			final = domain.StateFailed
			run.emit(domain.Event{
				Type:    domain.EventError,
				RunID:   job.ID,
				State:   domain.StateFailed,
				Message: fmt.Sprintf("%v: %v", ErrRunPanicked, p),
			})
		}
	}()
	return r.pipeline.Execute(ctx, job, run.emit)
}

// emit blocks for ordered events and drops previews when the buffer is full.
func (run *Run) emit(ev domain.Event) {
	if ev.Type == domain.EventPreview {
		select {
		case run.events <- ev:
		default:
		}
		return
	}
	run.events <- ev
}

func (run *Run) Events() <-chan domain.Event {
	return run.events
}

// Cancel requests a cooperative stop before the next value.
func (run *Run) Cancel() {
	run.cancel()
}

func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Wait blocks until the run finishes and returns its terminal state.
func (run *Run) Wait() domain.RunState {
	<-run.done
	return run.State()
}

func (run *Run) State() domain.RunState {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.state
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"image-labeler/internal/app"
	"image-labeler/internal/broker"
	kafka_impl "image-labeler/internal/broker/kafka"
	"image-labeler/internal/config"
	"image-labeler/internal/domain"
	"image-labeler/internal/usecase/render"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// errJobInterrupted marks a run stopped by shutdown. Its message stays
// uncommitted so the job is redelivered.
var errJobInterrupted = errors.New("job interrupted by shutdown")

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Worker consumes job requests and executes them one at a time.
type Worker struct {
	cfg       *config.Config
	logger    *zlog.Zerolog
	consumer  broker.Consumer
	publisher eventPublisher
	stack     *app.RenderStack
	validate  *validator.Validate
	closer    func() error
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	stack, err := app.NewRenderStack(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := kafka_impl.NewClient(cfg, logger)

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("jobs_topic", cfg.Kafka.JobsTopic).
		Str("events_topic", cfg.Kafka.EventsTopic).
		Str("group", cfg.Kafka.GroupID).
		Msg("Worker configuration")

	return &Worker{
		cfg:       cfg,
		logger:    logger,
		consumer:  client,
		publisher: broker.NewEventPublisher(client.Producer(), cfg.DefaultRetryStrategy()),
		stack:     stack,
		validate:  validator.New(),
		closer:    client.Close,
	}, nil
}

func (w *Worker) Run() error {
	w.logger.Info().Msg("Starting worker")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		w.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping worker...")
		cancel()
	}()

	w.Serve(ctx)

	w.logger.Info().Msg("Shutting down worker gracefully...")
	if w.closer != nil {
		if err := w.closer(); err != nil {
			w.logger.Error().Err(err).Msg("Failed to close broker client")
		}
	}
	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

// Serve processes messages until ctx is done. A job in progress when ctx is
// cancelled stops before its next value and is left uncommitted, as are
// messages still buffered at that point.
func (w *Worker) Serve(ctx context.Context) {
	buffer := w.cfg.Worker.Buffer
	if buffer < 1 {
		buffer = 1
	}
	messages := make(chan *broker.Message, buffer)
	w.consumer.Start(ctx, messages, w.cfg.DefaultRetryStrategy())

	w.logger.Info().Msg("Worker started successfully")
	for {
		var msg *broker.Message
		select {
		case <-ctx.Done():
			w.logger.Info().Int("buffered", len(messages)).Msg("Stopped taking messages")
			return
		case m, ok := <-messages:
			if !ok {
				return
			}
			msg = m
		}
		if ctx.Err() != nil {
			w.logger.Info().Int64("offset", msg.Offset).Msg("Shutdown in progress, message left for redelivery")
			return
		}

		startTime := time.Now()
		if err := w.safeProcessMessage(ctx, msg); err != nil {
			if errors.Is(err, errJobInterrupted) {
				w.logger.Info().
					Int64("offset", msg.Offset).
					Msg("Job interrupted, message left for redelivery")
				return
			}
			w.logger.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("Failed to process message")
			continue
		}

		commitCtx := context.WithoutCancel(ctx)
		if err := w.consumer.Commit(commitCtx, msg); err != nil {
			w.logger.Error().
				Err(err).
				Int64("offset", msg.Offset).
				Msg("Failed to commit message after successful processing")
			continue
		}
		w.logger.Debug().
			Int64("offset", msg.Offset).
			Dur("duration", time.Since(startTime)).
			Msg("Message processed and committed successfully")
	}
}

func (w *Worker) safeProcessMessage(ctx context.Context, msg *broker.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing message")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.processMessage(ctx, msg)
}

func (w *Worker) processMessage(ctx context.Context, msg *broker.Message) error {
	var spec domain.JobSpec
	if err := json.Unmarshal(msg.Value, &spec); err != nil {
		w.logger.Error().Err(err).Str("message", string(msg.Value)).Int64("offset", msg.Offset).Msg("Failed to unmarshal job")
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if spec.ID == "" {
		spec.ID = uuid.New().String()
	}

	job, err := w.resolve(spec)
	if err != nil {
		w.logger.Error().Err(err).Str("run_id", spec.ID).Msg("Job rejected")
		w.publish(ctx, domain.Event{
			Type:    domain.EventError,
			RunID:   spec.ID,
			State:   domain.StateFailed,
			Message: err.Error(),
		})
		// Rejected jobs are consumed: redelivery cannot fix them.
		return nil
	}

	w.logger.Info().
		Str("run_id", job.ID).
		Int("total", job.Total()).
		Int64("offset", msg.Offset).
		Msg("Processing job started")

	run := w.stack.Runner.Start(ctx, job)
	for ev := range run.Events() {
		switch ev.Type {
		case domain.EventPreview:
			continue
		case domain.EventLog:
			w.logger.Info().Str("run_id", ev.RunID).Msg(ev.Message)
		case domain.EventError:
			w.logger.Error().Str("run_id", ev.RunID).Str("error", ev.Message).Msg("Job failed")
		}
		w.publish(ctx, ev)
	}

	state := run.Wait()
	w.logger.Info().
		Str("run_id", job.ID).
		Str("state", string(state)).
		Msg("Processing job finished")
	if state == domain.StateCancelled && ctx.Err() != nil {
		return errJobInterrupted
	}
	return nil
}

func (w *Worker) resolve(spec domain.JobSpec) (*render.Job, error) {
	if err := w.validate.Struct(spec); err != nil {
		return nil, fmt.Errorf("invalid job spec: %w", err)
	}
	if spec.Background == "" {
		return nil, fmt.Errorf("%w: no background path", render.ErrBackgroundUnreadable)
	}

	bg, err := render.LoadBackground(spec.Background)
	if err != nil {
		return nil, err
	}
	return render.NewJob(spec.ID, spec, bg, w.stack.Fonts, w.stack.Limits)
}

func (w *Worker) publish(ctx context.Context, ev domain.Event) {
	if err := w.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		w.logger.Warn().Err(err).Str("run_id", ev.RunID).Str("event", string(ev.Type)).Msg("Failed to publish event")
	}
}

package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"image-labeler/internal/broker"
	kafka_impl "image-labeler/internal/broker/kafka"
	"image-labeler/internal/config"
	job_h "image-labeler/internal/http-server/handler/job"
	"image-labeler/internal/http-server/router"
	job_uc "image-labeler/internal/usecase/job"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	producer *kafka_impl.ProducerClient
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	stack, err := NewRenderStack(cfg, logger)
	if err != nil {
		return nil, err
	}

	jobUsecase := job_uc.NewUsecase(stack.Runner, stack.Pipeline, stack.Files, stack.Fonts, stack.Limits, logger, cfg.Worker.JobTTL)

	var producer *kafka_impl.ProducerClient
	if cfg.Kafka.PublishEvents {
		producer = kafka_impl.NewProducerClient(cfg)
		jobUsecase.WithPublisher(broker.NewEventPublisher(producer, cfg.DefaultRetryStrategy()))
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.EventsTopic).Msg("Publishing run events")
	}

	jobHandler := job_h.NewJobHandler(jobUsecase, logger, cfg.Server.MaxUploadSize)

	h := &router.Handler{
		JobHandler: jobHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		producer: producer,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		if a.producer != nil {
			if err := a.producer.Close(); err != nil {
				a.logger.Error().Err(err).Msg("Failed to close producer")
			}
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}

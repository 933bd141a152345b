package main

import (
	"context"
	"os/signal"
	"syscall"

	"example/chessdebrief/app"
	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
	"example/chessdebrief/app/models"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logs.Level, cfg.Logs.Style)

	if cfg.QueueURL == "" {
		logger.Fatal().Msg("QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.MustInitDB(cfg)

	coach, err := app.NewAnthropicCoach(cfg.Anthropic)
	if err != nil {
		logger.Fatal().Err(err).Msg("coach unavailable")
	}
	client, err := app.NewSQSClient(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("sqs client")
	}

	handle := func(ctx context.Context, job models.AnalysisJobMessage) error {
		return app.ProcessAnalysisJob(ctx, coach, job)
	}
	if err := app.RunWorker(ctx, client, cfg.QueueURL, handle); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
	logger.Info().Msg("worker shut down")
}

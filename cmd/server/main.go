package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"example/chessdebrief/app"
	"example/chessdebrief/app/config"
	"example/chessdebrief/app/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logs.Level, cfg.Logs.Style)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.UseRealAPI {
		app.MustInitDB(cfg)
	}
	api, err := app.NewAPIFromConfig(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire dependencies")
	}
	router, err := app.NewRouter(cfg, api)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Bool("real_api", cfg.UseRealAPI).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}

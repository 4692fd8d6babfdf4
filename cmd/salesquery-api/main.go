package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salesquery/salesquery/internal/api"
	"github.com/salesquery/salesquery/internal/app"
	"github.com/salesquery/salesquery/internal/config"
	"github.com/salesquery/salesquery/internal/observability"
	"github.com/salesquery/salesquery/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("salesquery-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objectStore, err := app.ObjectStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize object store", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.RestoreSnapshot(ctx, cfg, objectStore, logger); err != nil {
		logger.Error("failed to restore database snapshot", slog.Any("error", err))
		os.Exit(1)
	}

	wh, err := warehouse.Open(ctx, cfg.DB.Warehouse())
	if err != nil {
		logger.Error("failed to open warehouse", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = wh.Close() }()

	proposer, err := app.Proposer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to select language model provider", slog.Any("error", err))
		os.Exit(1)
	}

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:            logger,
		Readiness:         api.CombineReadinessChecks(wh.Ping),
		DependencyTimeout: time.Second,
		Answerer:          app.Agent(cfg, wh, proposer, logger),
		Schema:            wh,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("driver", wh.Dialect().Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/salesquery/salesquery/internal/app"
	"github.com/salesquery/salesquery/internal/config"
	"github.com/salesquery/salesquery/internal/mcpserver"
	"github.com/salesquery/salesquery/internal/observability"
	"github.com/salesquery/salesquery/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("salesquery-mcp")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// stdout carries the MCP protocol.
	logger := observability.NewLogger(cfg, os.Stderr)
	ctx := context.Background()

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

	// execute_query never calls the model.
	runner := app.Agent(cfg, wh, nil, logger)

	logger.Info("starting mcp server", slog.String("driver", wh.Dialect().Name()))
	if err := server.ServeStdio(mcpserver.New(wh, runner)); err != nil {
		logger.Error("mcp server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

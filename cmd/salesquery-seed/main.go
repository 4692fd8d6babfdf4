package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/salesquery/salesquery/internal/app"
	"github.com/salesquery/salesquery/internal/config"
	"github.com/salesquery/salesquery/internal/observability"
	"github.com/salesquery/salesquery/internal/seed"
	"github.com/salesquery/salesquery/internal/storage"
	"github.com/salesquery/salesquery/internal/warehouse"
)

func main() {
	cfg, err := config.LoadFromEnv("salesquery-seed")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "salesquery-seed",
		Usage: "Create and populate the sample sales database",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "reset", Usage: "drop existing sales tables before loading"},
			&cli.IntFlag{Name: "seed", Value: seed.DefaultSeed, Usage: "random seed for the generated dataset"},
			&cli.IntFlag{Name: "customers", Value: seed.DefaultCustomers, Usage: "number of customers"},
			&cli.IntFlag{Name: "orders", Value: seed.DefaultOrders, Usage: "number of orders"},
			&cli.BoolFlag{Name: "export", Usage: "upload a parquet export of every table to the object store"},
			&cli.BoolFlag{Name: "snapshot", Usage: "upload the SQLite database file to the object store"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cfg, logger, cmd)
		},
	}
	if err := cmd.Run(ctx, os.Args); err != nil {
		logger.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, cmd *cli.Command) error {
	data := seed.NewGenerator(seed.Options{
		Seed:      int64(cmd.Int("seed")),
		Customers: int(cmd.Int("customers")),
		Orders:    int(cmd.Int("orders")),
	}).Generate()

	if dialect, err := warehouse.DialectFor(cfg.DB.Driver); err == nil && dialect.Name() == warehouse.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.DSN), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}
	db, dialect, err := warehouse.Connect(ctx, cfg.DB.Warehouse(), false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	reset := cmd.Bool("reset")
	if existing, err := seed.Count(ctx, db); err == nil && !reset && existing["customers"] > 0 {
		logger.Info("seed_skipped", slog.String("reason", "database already seeded"), slog.Any("counts", existing))
	} else {
		if err := seed.Load(ctx, db, dialect.Name(), data, seed.LoadOptions{Reset: reset}); err != nil {
			return err
		}
		counts, err := seed.Count(ctx, db)
		if err != nil {
			return err
		}
		logger.Info("seed_completed",
			slog.String("driver", dialect.Name()),
			slog.Bool("reset", reset),
			slog.Any("counts", counts),
		)
	}

	if !cmd.Bool("export") && !cmd.Bool("snapshot") {
		return nil
	}
	store, err := app.ObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("object store is not configured; set SALESQUERY_S3_ENDPOINT and SALESQUERY_S3_BUCKET")
	}

	if cmd.Bool("export") {
		exports, err := seed.ExportParquet(data)
		if err != nil {
			return err
		}
		infos, err := seed.Publish(ctx, store, exports)
		if err != nil {
			return err
		}
		for _, info := range infos {
			logger.Info("export_uploaded", slog.String("key", info.Key), slog.Int64("bytes", info.Size))
		}
	}

	if cmd.Bool("snapshot") {
		if dialect.Name() != warehouse.DriverSQLite {
			return fmt.Errorf("snapshots are only supported for sqlite, not %s", dialect.Name())
		}
		key := cfg.ObjectStore.SnapshotKey
		if key == "" {
			key, err = storage.BuildSnapshotPath(filepath.Base(cfg.DB.DSN))
			if err != nil {
				return err
			}
		}
		// Flush the handle so the file on disk is complete.
		_ = db.Close()
		info, err := storage.PutFile(ctx, store, key, cfg.DB.DSN, "application/vnd.sqlite3")
		if err != nil {
			return fmt.Errorf("upload snapshot: %w", err)
		}
		logger.Info("snapshot_uploaded", slog.String("key", info.Key), slog.Int64("bytes", info.Size))
	}
	return nil
}

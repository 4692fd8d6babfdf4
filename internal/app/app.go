// Package app wires configuration into the long-lived components shared by
// the salesquery binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/salesquery/salesquery/internal/agent"
	"github.com/salesquery/salesquery/internal/config"
	"github.com/salesquery/salesquery/internal/nl2sql"
	"github.com/salesquery/salesquery/internal/storage"
	s3store "github.com/salesquery/salesquery/internal/storage/s3"
	"github.com/salesquery/salesquery/internal/warehouse"
)

// ObjectStore returns nil without error when no bucket is configured.
func ObjectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	if !cfg.ObjectStore.Enabled() {
		return nil, nil
	}
	store, err := s3store.New(ctx, s3store.Config{
		Endpoint:         cfg.ObjectStore.Endpoint,
		Region:           cfg.ObjectStore.Region,
		Bucket:           cfg.ObjectStore.Bucket,
		AccessKeyID:      cfg.ObjectStore.AccessKeyID,
		SecretAccessKey:  cfg.ObjectStore.SecretAccessKey,
		UseSSL:           cfg.ObjectStore.UseSSL,
		Prefix:           cfg.ObjectStore.Prefix,
		AutoCreateBucket: cfg.ObjectStore.AutoCreateBucket,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize object store: %w", err)
	}
	return store, nil
}

// RestoreSnapshot downloads the configured SQLite snapshot when the database
// file is missing. Other drivers and an unset snapshot key are no-ops.
func RestoreSnapshot(ctx context.Context, cfg config.Config, store storage.ObjectStore, logger *slog.Logger) error {
	key := cfg.ObjectStore.SnapshotKey
	dialect, err := warehouse.DialectFor(cfg.DB.Driver)
	if err != nil {
		return err
	}
	if key == "" || dialect.Name() != warehouse.DriverSQLite {
		return nil
	}
	if store == nil {
		return fmt.Errorf("snapshot key %q is set but no object store is configured", key)
	}

	downloaded, err := storage.FetchFile(ctx, store, key, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("restore snapshot %q: %w", key, err)
	}
	if downloaded {
		logger.InfoContext(ctx, "snapshot_restored", slog.String("key", key), slog.String("path", cfg.DB.DSN))
	}
	return nil
}

// Proposer picks the language model provider. It fails with
// nl2sql.ErrNoProviderAvailable when nothing is configured or reachable.
func Proposer(ctx context.Context, cfg config.Config, logger *slog.Logger) (nl2sql.Proposer, error) {
	examples, err := nl2sql.LoadExamples(cfg.AI.ExamplesFile)
	if err != nil {
		return nil, err
	}
	proposer, err := nl2sql.Select(ctx, nl2sql.SelectConfig{
		Provider:           cfg.AI.Provider,
		Model:              cfg.AI.Model,
		Timeout:            cfg.AI.Timeout,
		AnthropicAPIKey:    cfg.AI.AnthropicAPIKey,
		GroqAPIKey:         cfg.AI.GroqAPIKey,
		OpenAIAPIKey:       cfg.AI.OpenAIAPIKey,
		OllamaHost:         cfg.AI.OllamaHost,
		OllamaProbeTimeout: cfg.AI.OllamaProbeTimeout,
		Examples:           examples,
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "provider_selected",
		slog.String("provider", proposer.Provider()),
		slog.String("model", proposer.Model()),
	)
	return proposer, nil
}

// Agent assembles the question pipeline over an open warehouse.
func Agent(cfg config.Config, wh *warehouse.Warehouse, proposer nl2sql.Proposer, logger *slog.Logger) *agent.Agent {
	return &agent.Agent{
		Introspector: wh,
		Executor:     wh,
		Proposer:     proposer,
		Config: agent.Config{
			Dialect:      wh.Dialect().DisplayName(),
			ModelTimeout: cfg.AI.Timeout,
		},
		Logger: logger,
	}
}

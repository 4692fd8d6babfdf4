//go:build integration

package s3

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/salesquery/salesquery/internal/storage"
)

func TestSnapshotRoundTripAgainstMinIO(t *testing.T) {
	endpoint := envOr("SALESQUERY_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("SALESQUERY_TEST_S3_ENDPOINT is not set")
	}

	cfg := Config{
		Endpoint:         endpoint,
		Region:           envOr("SALESQUERY_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("SALESQUERY_TEST_S3_BUCKET", "salesquery-it"),
		AccessKeyID:      envOr("SALESQUERY_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("SALESQUERY_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           "integration-tests",
		AutoCreateBucket: true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "sales.db")
	payload := []byte("salesquery-integration")
	if err := os.WriteFile(src, payload, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	key, err := storage.BuildSnapshotPath("sales.db")
	if err != nil {
		t.Fatalf("BuildSnapshotPath() error = %v", err)
	}
	if _, err := storage.PutFile(ctx, store, key, src, "application/vnd.sqlite3"); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}

	stat, err := store.Stat(ctx, key)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Size != int64(len(payload)) {
		t.Fatalf("Stat().Size = %d, want %d", stat.Size, len(payload))
	}

	dest := filepath.Join(dir, "restored", "sales.db")
	if _, err := storage.FetchFile(ctx, store, key, dest); err != nil {
		t.Fatalf("FetchFile() error = %v", err)
	}
	restored, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !bytes.Equal(restored, payload) {
		t.Fatalf("restored payload = %q, want %q", restored, payload)
	}
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

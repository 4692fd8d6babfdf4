// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/salesquery/salesquery/internal/nl2sql"
	"github.com/salesquery/salesquery/internal/seed"
	"github.com/salesquery/salesquery/internal/warehouse"
)

// SeededSQLitePath writes the default demo dataset to a temp SQLite file.
func SeededSQLitePath(t testing.TB) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sales.db")

	db, dialect, err := warehouse.Connect(ctx, warehouse.Config{Driver: warehouse.DriverSQLite, DSN: path}, false)
	if err != nil {
		t.Fatalf("warehouse.Connect() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	data := seed.NewGenerator(seed.DefaultOptions()).Generate()
	if err := seed.Load(ctx, db, dialect.Name(), data, seed.LoadOptions{}); err != nil {
		t.Fatalf("seed.Load() error = %v", err)
	}
	return path
}

// SeededWarehouse opens a read-only warehouse over a fresh demo database.
func SeededWarehouse(t testing.TB) *warehouse.Warehouse {
	t.Helper()
	wh, err := warehouse.Open(context.Background(), warehouse.Config{
		Driver:       warehouse.DriverSQLite,
		DSN:          SeededSQLitePath(t),
		QueryTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("warehouse.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = wh.Close() })
	return wh
}

// StaticProposer always answers with the same candidate and records the
// requests it saw.
type StaticProposer struct {
	Candidate nl2sql.Candidate
	Err       error
	Requests  []nl2sql.Request
}

func (p *StaticProposer) Propose(_ context.Context, req nl2sql.Request) (nl2sql.Candidate, error) {
	p.Requests = append(p.Requests, req)
	return p.Candidate, p.Err
}

func (p *StaticProposer) Provider() string { return "static" }

func (p *StaticProposer) Model() string { return "static" }

package storage

import "testing"

func TestBuildExportPath(t *testing.T) {
	key, err := BuildExportPath("order_items")
	if err != nil {
		t.Fatalf("BuildExportPath() error = %v", err)
	}
	if want := "exports/order_items.parquet"; key != want {
		t.Fatalf("BuildExportPath() = %q, want %q", key, want)
	}
}

func TestBuildSnapshotPath(t *testing.T) {
	key, err := BuildSnapshotPath("sales.db")
	if err != nil {
		t.Fatalf("BuildSnapshotPath() error = %v", err)
	}
	if want := "snapshots/sales.db"; key != want {
		t.Fatalf("BuildSnapshotPath() = %q, want %q", key, want)
	}
}

func TestBuildPathRejectsInvalidComponent(t *testing.T) {
	if _, err := BuildExportPath("../oops"); err == nil {
		t.Fatal("expected invalid component error")
	}
	if _, err := BuildSnapshotPath(""); err == nil {
		t.Fatal("expected invalid component error")
	}
}

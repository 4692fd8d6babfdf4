package seed

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/salesquery/salesquery/internal/storage"
)

func TestExportParquetRoundTrip(t *testing.T) {
	data := NewGenerator(Options{Seed: 3, Customers: 4, Orders: 6}).Generate()
	exports, err := ExportParquet(data)
	if err != nil {
		t.Fatalf("ExportParquet() error = %v", err)
	}
	if len(exports) != len(Tables) {
		t.Fatalf("exports = %d", len(exports))
	}
	for i, export := range exports {
		if export.Table != Tables[i] {
			t.Fatalf("export %d table = %s", i, export.Table)
		}
	}

	reader := parquet.NewGenericReader[Customer](bytes.NewReader(exports[0].Data))
	defer func() { _ = reader.Close() }()
	rows := make([]Customer, 4)
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 4 {
		t.Fatalf("read rows = %d", count)
	}
	if rows[0] != data.Customers[0] {
		t.Fatalf("row = %+v, want %+v", rows[0], data.Customers[0])
	}
}

func TestPublishUploadsUnderExportKeys(t *testing.T) {
	store := &recordingStore{}
	exports := []Export{{Table: "customers", Data: []byte("a")}, {Table: "orders", Data: []byte("bc")}}

	infos, err := Publish(context.Background(), store, exports)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("infos = %d", len(infos))
	}
	if store.keys[0] != "exports/customers.parquet" || store.keys[1] != "exports/orders.parquet" {
		t.Fatalf("keys = %v", store.keys)
	}
}

func TestPublishRequiresStore(t *testing.T) {
	if _, err := Publish(context.Background(), nil, nil); err == nil {
		t.Fatal("expected missing store error")
	}
}

type recordingStore struct {
	keys []string
}

func (r *recordingStore) Put(_ context.Context, key string, body io.Reader, size int64, _ storage.PutOptions) (storage.ObjectInfo, error) {
	_, _ = io.Copy(io.Discard, body)
	r.keys = append(r.keys, key)
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (r *recordingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrObjectNotFound
}

func (r *recordingStore) Stat(context.Context, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, storage.ErrObjectNotFound
}

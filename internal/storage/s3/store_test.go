package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/salesquery/salesquery/internal/storage"
)

func TestPutAppliesPrefixAndReturnsLogicalKey(t *testing.T) {
	bucket := newMemoryBucket()
	store := &Store{api: bucket, prefix: cleanPrefix("/salesquery/prod/")}

	info, err := store.Put(context.Background(), "/exports/customers.parquet", bytes.NewBufferString("abc"), 3, storage.PutOptions{})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := bucket.objects["salesquery/prod/exports/customers.parquet"]; !ok {
		t.Fatalf("objects = %v", bucket.objects)
	}
	if info.Key != "exports/customers.parquet" || info.Size != 3 {
		t.Fatalf("info = %+v", info)
	}
	if bucket.contentTypes["salesquery/prod/exports/customers.parquet"] != defaultContentType {
		t.Fatalf("content type = %q", bucket.contentTypes["salesquery/prod/exports/customers.parquet"])
	}

	stat, err := store.Stat(context.Background(), "exports/customers.parquet")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if stat.Key != "exports/customers.parquet" || stat.Size != 3 {
		t.Fatalf("stat = %+v", stat)
	}
}

func TestObjectKeyRejectsTraversal(t *testing.T) {
	store := &Store{api: newMemoryBucket()}
	for _, key := range []string{"", "/", "../secrets.txt", "exports/../../etc/passwd"} {
		if _, err := store.Put(context.Background(), key, bytes.NewBufferString("x"), 1, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected key validation error", key)
		}
	}
}

func TestGetMapsMissingObjects(t *testing.T) {
	store := &Store{api: newMemoryBucket()}

	_, err := store.Get(context.Background(), "snapshots/sales.db")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
	_, err = store.Stat(context.Background(), "snapshots/sales.db")
	if !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Stat() error = %v, want ErrObjectNotFound", err)
	}
}

func TestGetReturnsStoredBytes(t *testing.T) {
	store := &Store{api: newMemoryBucket()}
	if _, err := store.Put(context.Background(), "snapshots/sales.db", bytes.NewBufferString("db"), 2, storage.PutOptions{ContentType: "application/vnd.sqlite3"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	reader, err := store.Get(context.Background(), "snapshots/sales.db")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer func() { _ = reader.Close() }()
	body, _ := io.ReadAll(reader)
	if string(body) != "db" {
		t.Fatalf("body = %q", body)
	}
}

func TestTranslate(t *testing.T) {
	if got := translate(minio.ErrorResponse{Code: "NoSuchKey"}); got != storage.ErrObjectNotFound {
		t.Fatalf("translate(NoSuchKey) = %v", got)
	}
	denied := minio.ErrorResponse{Code: "AccessDenied"}
	if got := translate(denied); errors.Is(got, storage.ErrObjectNotFound) {
		t.Fatalf("translate(AccessDenied) = %v", got)
	}
}

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{raw: "https://minio.example.com", wantHost: "minio.example.com", wantSecure: true},
		{raw: "http://localhost:9000", wantHost: "localhost:9000"},
		{raw: "localhost:9000", useSSL: true, wantHost: "localhost:9000", wantSecure: true},
	}
	for _, tt := range tests {
		host, secure, err := splitEndpoint(tt.raw, tt.useSSL)
		if err != nil {
			t.Fatalf("splitEndpoint(%q) error = %v", tt.raw, err)
		}
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Fatalf("splitEndpoint(%q) = %q/%v", tt.raw, host, secure)
		}
	}
	if _, _, err := splitEndpoint(" ", false); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

type memoryBucket struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryBucket) upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) (minio.UploadInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return minio.UploadInfo{Key: key, Size: int64(len(data)), ETag: "etag"}, nil
}

func (m *memoryBucket) open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBucket) head(_ context.Context, key string) (minio.ObjectInfo, error) {
	data, ok := m.objects[key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memoryBucket) ensure(context.Context, string) error {
	return nil
}

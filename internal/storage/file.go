package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PutFile uploads a local file under key.
func PutFile(ctx context.Context, store Uploader, key, localPath, contentType string) (ObjectInfo, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("open %q: %w", localPath, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat %q: %w", localPath, err)
	}
	return store.Put(ctx, key, file, stat.Size(), PutOptions{ContentType: contentType})
}

// FetchFile downloads key to localPath unless the file already exists. It
// reports whether a download happened. The file is written to a temporary
// name first so a failed download never leaves a partial database behind.
func FetchFile(ctx context.Context, store Downloader, key, localPath string) (bool, error) {
	if _, err := os.Stat(localPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %q: %w", localPath, err)
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	defer func() { _ = reader.Close() }()

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %q: %w", localPath, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(localPath), filepath.Base(localPath)+".*.part")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("download %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		return false, fmt.Errorf("move snapshot into place: %w", err)
	}
	return true, nil
}

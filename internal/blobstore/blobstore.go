package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store is a durable object store holding one bucket's blobs by key.
type Store interface {
	// Put writes the body under key, overwriting any existing object.
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	// Get opens the object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// GetRange opens the first length bytes of the object. Stores may return
	// fewer bytes when the object is shorter.
	GetRange(ctx context.Context, key string, length int64) (io.ReadCloser, error)
	// List returns the keys under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ContentTypeFor maps a produced file name to its upload content type.
func ContentTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".m3u8":
		return "application/x-mpegURL"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}

// DownloadToFile streams an object into a local file.
func DownloadToFile(ctx context.Context, store Store, key, path string) error {
	body, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DownloadRangeToFile streams the first length bytes of an object into a local file.
func DownloadRangeToFile(ctx context.Context, store Store, key, path string, length int64) error {
	body, err := store.GetRange(ctx, key, length)
	if err != nil {
		return err
	}
	defer body.Close()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// UploadDir uploads every regular file under dir, keyed by prefix plus the
// file's path relative to dir.
func UploadDir(ctx context.Context, store Store, dir, prefix string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key := prefix + filepath.ToSlash(rel)

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()

		return store.Put(ctx, key, file, ContentTypeFor(path))
	})
}

// ReadAll fetches an object fully into memory.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

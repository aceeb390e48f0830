package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vodsmith/internal/services"
)

// FSStore keeps objects as files under root/bucket. It backs local and test
// deployments where no object storage service is available.
type FSStore struct {
	root   string
	bucket string
}

// NewFSStore returns a store rooted at root for the named bucket.
func NewFSStore(root, bucket string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, services.Wrap(services.ErrValidation, "blobstore", "new", "root directory is required", nil)
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, services.Wrap(services.ErrValidation, "blobstore", "new", "bucket name is required", nil)
	}
	dir := filepath.Join(root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "new", "create bucket directory", err)
	}
	return &FSStore{root: root, bucket: bucket}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, s.bucket, filepath.FromSlash(key))
}

func (s *FSStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "put", fmt.Sprintf("create parent for %s", key), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".put-*")
	if err != nil {
		return services.Wrap(services.ErrStorage, "blobstore", "put", "create temp file", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return services.Wrap(services.ErrStorage, "blobstore", "put", fmt.Sprintf("write %s", key), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return services.Wrap(services.ErrStorage, "blobstore", "put", fmt.Sprintf("close %s", key), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return services.Wrap(services.ErrStorage, "blobstore", "put", fmt.Sprintf("finalize %s", key), err)
	}
	return nil
}

func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "blobstore", "get", key, err)
		}
		return nil, services.Wrap(services.ErrStorage, "blobstore", "get", key, err)
	}
	return file, nil
}

func (s *FSStore) GetRange(ctx context.Context, key string, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "blobstore", "get_range", key, err)
		}
		return nil, services.Wrap(services.ErrStorage, "blobstore", "get_range", key, err)
	}
	return &limitedFile{Reader: io.LimitReader(file, length), file: file}, nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(s.root, s.bucket)
	var keys []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "blobstore", "list", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

type limitedFile struct {
	io.Reader
	file *os.File
}

func (l *limitedFile) Close() error {
	return l.file.Close()
}

var _ Store = (*FSStore)(nil)

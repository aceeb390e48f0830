package blobstore

import (
	"context"
	"fmt"

	"vodsmith/internal/config"
)

// OpenBucket returns the configured backend's store for the named bucket.
func OpenBucket(ctx context.Context, cfg *config.Config, bucket string) (Store, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return NewS3Store(ctx, cfg.Storage.Region, bucket)
	case "fs":
		return NewFSStore(cfg.Storage.FSRoot, bucket)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/lvaldez/padron/internal/app"
)

// ObjectStore abstracts the object backends used for socio documents.
// Objects are addressed by bucket and key; Put returns the public URL
// under which the stored object can be fetched.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
	URL(bucket, key string) string
}

// NewFromConfig creates an ObjectStore implementation based on the configured backend.
func NewFromConfig(cfg app.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Filesystem.Root == "" {
			return nil, fmt.Errorf("filesystem storage requires storage.filesystem.root to be set")
		}
		return NewFilesystemStore(cfg.Filesystem.Root, cfg.Filesystem.BaseURL)
	case "s3":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

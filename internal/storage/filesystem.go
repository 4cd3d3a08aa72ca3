package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// FilesystemStore persists objects as files under <root>/<bucket>/<key>.
type FilesystemStore struct {
	root    string
	baseURL string
}

// NewFilesystemStore creates a store rooted at the given directory.
func NewFilesystemStore(root, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filesystem store: create root: %w", err)
	}
	return &FilesystemStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (f *FilesystemStore) Put(_ context.Context, bucket, key string, r io.Reader, size int64, _ string) (string, error) {
	destPath, err := f.objectPath(bucket, key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", fmt.Errorf("filesystem store: create bucket dir: %w", err)
	}

	// Write to a temp file in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("filesystem store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("filesystem store: write object: %w", err)
	}
	if size >= 0 && written != size {
		os.Remove(tmpName)
		return "", fmt.Errorf("filesystem store: size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("filesystem store: finalise object: %w", err)
	}

	return f.URL(bucket, key), nil
}

func (f *FilesystemStore) Delete(_ context.Context, bucket, key string) error {
	destPath, err := f.objectPath(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(destPath); err != nil {
		if os.IsNotExist(err) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("filesystem store: remove object: %w", err)
	}
	return nil
}

func (f *FilesystemStore) URL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", f.baseURL, bucket, key)
}

func (f *FilesystemStore) objectPath(bucket, key string) (string, error) {
	cleaned := filepath.Join(f.root, bucket, filepath.FromSlash(key))
	if !strings.HasPrefix(cleaned, filepath.Clean(f.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("filesystem store: invalid object key: %s", key)
	}
	return cleaned, nil
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	apperrors "github.com/lvaldez/padron/pkg/errors"
)

// MemoryStore keeps objects in process memory. Intended for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty in-memory object store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, bucket, key string, r io.Reader, size int64, _ string) (string, error) {
	var buf bytes.Buffer
	written, err := io.Copy(&buf, r)
	if err != nil {
		return "", fmt.Errorf("memory store: read object: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("memory store: size mismatch: expected %d bytes, got %d", size, written)
	}

	m.mu.Lock()
	m.objects[objectKey(bucket, key)] = buf.Bytes()
	m.mu.Unlock()

	return m.URL(bucket, key), nil
}

func (m *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := objectKey(bucket, key)
	if _, ok := m.objects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.objects, id)
	return nil
}

func (m *MemoryStore) URL(bucket, key string) string {
	return fmt.Sprintf("memory://%s/%s", bucket, key)
}

// Get returns a stored object. Used by tests to verify uploads.
func (m *MemoryStore) Get(bucket, key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[objectKey(bucket, key)]
	return data, ok
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func objectKey(bucket, key string) string {
	return bucket + "/" + key
}

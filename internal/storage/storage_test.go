package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lvaldez/padron/internal/app"
	apperrors "github.com/lvaldez/padron/pkg/errors"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     app.StorageConfig
		wantErr bool
	}{
		{
			name: "memory backend",
			cfg:  app.StorageConfig{Backend: "memory"},
		},
		{
			name: "filesystem backend",
			cfg: app.StorageConfig{
				Backend:    "filesystem",
				Filesystem: app.FilesystemConfig{Root: t.TempDir(), BaseURL: "http://localhost/files"},
			},
		},
		{
			name:    "filesystem backend without root",
			cfg:     app.StorageConfig{Backend: "filesystem"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     app.StorageConfig{Backend: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewFromConfig(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, store)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, store)
		})
	}
}

func TestMemoryStorePutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	url, err := store.Put(ctx, "planos", "socio-1/plano.pdf", strings.NewReader("pdf-bytes"), 9, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "memory://planos/socio-1/plano.pdf", url)

	data, ok := store.Get("planos", "socio-1/plano.pdf")
	require.True(t, ok)
	require.Equal(t, "pdf-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "planos", "socio-1/plano.pdf"))
	require.ErrorIs(t, store.Delete(ctx, "planos", "socio-1/plano.pdf"), apperrors.ErrNotFound)
}

func TestMemoryStoreSizeMismatch(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Put(context.Background(), "planos", "k", strings.NewReader("abc"), 99, "")
	require.Error(t, err)
	require.Equal(t, 0, store.Len())
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "http://localhost:8000/files/")
	require.NoError(t, err)

	ctx := context.Background()
	url, err := store.Put(ctx, "memoria-descriptiva", "socio-1/memoria.pdf", strings.NewReader("contenido"), 9, "application/pdf")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/files/memoria-descriptiva/socio-1/memoria.pdf", url)

	data, err := os.ReadFile(filepath.Join(root, "memoria-descriptiva", "socio-1", "memoria.pdf"))
	require.NoError(t, err)
	require.Equal(t, "contenido", string(data))

	require.NoError(t, store.Delete(ctx, "memoria-descriptiva", "socio-1/memoria.pdf"))
	require.ErrorIs(t, store.Delete(ctx, "memoria-descriptiva", "socio-1/memoria.pdf"), apperrors.ErrNotFound)
}

func TestFilesystemStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost/files")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "planos", "../../etc/passwd", strings.NewReader("x"), 1, "")
	require.Error(t, err)
}

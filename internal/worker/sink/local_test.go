package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cuongbtq/pdf-retriever/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocal(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "savedPdf")

		l, err := NewLocal(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, dir, l.Location())
		assert.Equal(t, config.DestinationLocal, l.Destination())

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "probe file must be removed")
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewLocal("  ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "path is required")
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

		_, err := NewLocal(file)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is not a directory")
	})
}

func TestLocal_Put(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)

	uri, err := l.Put(context.Background(), "0190-report.pdf", strings.NewReader("%PDF-1.4 body"), 13, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(dir, "0190-report.pdf")), uri)

	data, err := os.ReadFile(filepath.Join(dir, "0190-report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLocal_PutRejectsBadNames(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name      string
		input     string
		errString string
	}{
		{name: "empty", input: "", errString: "name is required"},
		{name: "parent traversal", input: "../escape.pdf", errString: "path traversal"},
		{name: "directory itself", input: ".", errString: "path traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Put(context.Background(), tt.input, strings.NewReader("x"), 1, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errString)
		})
	}
}

func TestLocal_PutCanceled(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Put(ctx, "a.pdf", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew(t *testing.T) {
	t.Run("local destination", func(t *testing.T) {
		cfg := &config.Config{
			Worker:  config.WorkerConfig{Destination: config.DestinationLocal},
			Storage: config.StorageConfig{Local: config.LocalStorageConfig{Path: t.TempDir()}},
		}

		s, err := New(context.Background(), cfg)
		require.NoError(t, err)
		defer s.Close()
		assert.Equal(t, config.DestinationLocal, s.Destination())
	})

	t.Run("invalid destination", func(t *testing.T) {
		cfg := &config.Config{Worker: config.WorkerConfig{Destination: "ftp"}}

		_, err := New(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidDestination)
	})

	t.Run("invalid object store driver", func(t *testing.T) {
		cfg := &config.Config{
			Worker:  config.WorkerConfig{Destination: config.DestinationObjectStore},
			Storage: config.StorageConfig{ObjectStore: config.ObjectStoreConfig{Driver: "azure", Bucket: "pdfs"}},
		}

		_, err := New(context.Background(), cfg)
		assert.ErrorIs(t, err, ErrInvalidDestination)
	})
}

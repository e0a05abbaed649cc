package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuongbtq/pdf-retriever/internal/config"
)

// Local writes documents into a folder on the local filesystem.
type Local struct {
	baseDir string
}

// NewLocal creates the folder if needed and checks that it is writable.
func NewLocal(dir string) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("local storage path is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local storage path: %w", err)
	}

	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(abs, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create local storage directory: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat local storage directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("local storage path %s is not a directory", abs)
	}

	probe, err := os.CreateTemp(abs, ".writable-*")
	if err != nil {
		return nil, fmt.Errorf("local storage directory is not writable: %w", err)
	}
	probe.Close()
	if err := os.Remove(probe.Name()); err != nil {
		return nil, fmt.Errorf("failed to clean up probe file: %w", err)
	}

	return &Local{baseDir: abs}, nil
}

func (l *Local) Destination() string { return config.DestinationLocal }

func (l *Local) Location() string { return l.baseDir }

// Put streams r into a temporary file next to the target and renames it into
// place, so a partially written document is never visible under its name.
func (l *Local) Put(ctx context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("name is required")
	}

	target := filepath.Clean(filepath.Join(l.baseDir, name))
	if !strings.HasPrefix(target, l.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected in %q", name)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.baseDir, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return "file://" + filepath.ToSlash(target), nil
}

func (l *Local) Close() error { return nil }

package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LocalStore writes images below a directory. References are plain file paths.
type LocalStore struct {
	root string
	log  *slog.Logger
	now  func() time.Time
}

// NewLocalStore creates root if needed and returns a store writing below it.
func NewLocalStore(root string, log *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	return &LocalStore{root: root, log: log, now: time.Now}, nil
}

// Put writes the image to a new file and returns its path. A partially written file is removed.
func (s *LocalStore) Put(ctx context.Context, r io.Reader, _ int64, contentType string) (string, error) {
	path := filepath.Join(s.root, filepath.FromSlash(objectKey(s.now(), contentType)))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err = io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err = file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	s.log.DebugContext(ctx, "Image stored", "ref", path)
	return path, nil
}

// Open opens the file behind a reference returned by Put.
func (s *LocalStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}

	return file, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputStore persists generated videos onto the local filesystem before they
// are pushed to the media store. Files are kept flat: one directory, no
// subtrees.
type OutputStore struct {
	dir string
}

// NewOutputStore initializes an OutputStore rooted at dir, creating the
// directory if needed.
func NewOutputStore(dir string) (*OutputStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure output directory: %w", err)
	}
	return &OutputStore{dir: dir}, nil
}

// Dir returns the configured root directory.
func (s *OutputStore) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Save persists the provided bytes under filename inside the output directory
// and returns the resulting path. Filenames must be flat; anything carrying a
// path separator is rejected to prevent escaping the output root.
func (s *OutputStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := sanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved file. Paths resolving outside the output
// directory are rejected.
func (s *OutputStore) Remove(path string) error {
	if s == nil {
		return errors.New("storage: no store configured")
	}
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(s.dir) {
		return errors.New("storage: path outside output directory")
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// sanitizeFilename validates that a filename is flat and non-empty.
func sanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("storage: filename is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.New("storage: invalid filename")
	}
	return name, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore writes files under a directory on disk.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, data []byte) (string, error) {
	name := fileName(data)
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return name, nil
}

func (s *LocalStore) Exists(ctx context.Context, p string) (bool, error) {
	_, err := os.Stat(s.resolve(p))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStore) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, p string) error {
	err := os.Remove(s.resolve(p))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve keeps lookups inside Dir whatever path was recorded.
func (s *LocalStore) resolve(p string) string {
	return filepath.Join(s.Dir, filepath.Base(p))
}

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

func init() {
	RegisterFactory("file", NewFileStore)
}

var kindExtensions = map[Kind]string{
	KindFingerprints: ".hash",
	KindSnapshot:     ".cache",
}

// FileStore keeps one file per (source, kind) under a working directory:
// <name>.hash for fingerprints, <name>.cache for snapshots.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file storage: working directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file storage: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(source string, kind Kind) (string, error) {
	ext, ok := kindExtensions[kind]
	if !ok {
		return "", fmt.Errorf("file storage: unknown kind %q", kind)
	}
	return filepath.Join(s.dir, source+ext), nil
}

func (s *FileStore) Read(ctx context.Context, source string, kind Kind) ([]byte, error) {
	path, err := s.path(source, kind)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("file storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces the record through a temp file and rename so an
// interrupted run never leaves a half-written record behind.
func (s *FileStore) Write(ctx context.Context, source string, kind Kind, data []byte) error {
	path, err := s.path(source, kind)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("file storage: create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file storage: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: close temp for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file storage: replace %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, source string, kind Kind) (bool, error) {
	path, err := s.path(source, kind)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("file storage: stat %s: %w", path, err)
	}
	return true, nil
}

func (s *FileStore) Close() error { return nil }

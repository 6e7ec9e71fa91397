package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"msl/internal/domain"
)

const (
	lockFile = ".msl.lock"
	fileMode = 0o600
)

// FileKV stores each name as a file under dir.
type FileKV struct {
	dir  string
	mu   sync.Mutex
	lock *flock.Flock
}

// NewFileKV returns a FileKV rooted at dir, creating dir if needed.
func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir, lock: flock.New(filepath.Join(dir, lockFile))}, nil
}

// LoadFile returns the stored bytes or domain.ErrNotFound.
func (s *FileKV) LoadFile(name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return b, nil
}

// SaveFile replaces name atomically. Writers in other processes sharing dir
// are serialised through a lock file.
func (s *FileKV) SaveFile(name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.dir, err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := s.replace(path, data); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

// replace writes data next to path and renames it over path, so readers see
// either the old or the new content.
func (s *FileKV) replace(path string, data []byte) (err error) {
	f, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(fileMode)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FileKV) path(name string) (string, error) {
	if name == "" || name == lockFile || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("store: invalid name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

// Compile-time assertion that FileKV implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*FileKV)(nil)

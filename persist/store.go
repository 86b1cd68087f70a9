package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoRecord is returned by a Store that has never been written.
var ErrNoRecord = errors.New("persist: no stored record")

// Store is the non-volatile region holding one record.
type Store interface {
	Read() ([]byte, error)
	Write(b []byte) error
}

// FileStore keeps the record in a single file. Writes replace the whole file
// through a rename, so a reader sees either the old or the new record.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Read() ([]byte, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, s.Path)
	}
	return b, err
}

func (s *FileStore) Write(b []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

// MemStore is a Store kept in memory, used when running headless.
type MemStore struct {
	data []byte
}

func (s *MemStore) Read() ([]byte, error) {
	if s.data == nil {
		return nil, ErrNoRecord
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemStore) Write(b []byte) error {
	s.data = append(s.data[:0], b...)
	return nil
}

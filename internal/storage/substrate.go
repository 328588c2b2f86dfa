package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Substrate is a synchronous string-keyed get/set store. Get reports false
// when the key has never been written.
type Substrate interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type memorySubstrate struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemorySubstrate creates a process-local substrate.
func NewMemorySubstrate() Substrate {
	return &memorySubstrate{data: make(map[string]string)}
}

func (s *memorySubstrate) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memorySubstrate) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

type fileSubstrate struct {
	mu  sync.Mutex
	dir string
}

// NewFileSubstrate creates a substrate that keeps each key in its own
// <key>.yaml file under dir. The directory is created on first write.
func NewFileSubstrate(dir string) Substrate {
	return &fileSubstrate{dir: dir}
}

func (s *fileSubstrate) path(key string) string {
	return filepath.Join(s.dir, key+".yaml")
}

func (s *fileSubstrate) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return string(data), true, nil
}

func (s *fileSubstrate) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("writing %s: creating directory: %w", key, err)
	}
	// Write to a sibling then rename so a crash never leaves a torn file.
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("writing %s: replacing file: %w", key, err)
	}
	return nil
}

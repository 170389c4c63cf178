// Package storage persists the chat transcript between sessions.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

// Persister loads and stores the whole transcript under one fixed key.
// Implementations must be safe for concurrent use.
type Persister interface {
	Load() (models.Transcript, error)
	Save(models.Transcript) error
}

// FileStore keeps the transcript as a JSON array in <dir>/<key>.json.
// Writes are last-write-wins; there is no cross-process locking.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store for key inside dir, creating dir if needed
func NewFileStore(dir, key string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{path: filepath.Join(dir, key+".json")}, nil
}

// NewDefaultFileStore creates the store for the fixed transcript key
func NewDefaultFileStore(dir string) (*FileStore, error) {
	return NewFileStore(dir, models.TranscriptKey)
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the transcript. A missing entry yields an empty transcript.
func (s *FileStore) Load() (models.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Transcript{}, nil
		}
		return models.Transcript{}, fmt.Errorf("failed to read transcript: %w", err)
	}

	var t models.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return models.Transcript{}, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if t == nil {
		t = models.Transcript{}
	}
	return t, nil
}

// Save replaces the stored transcript with t
func (s *FileStore) Save(t models.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == nil {
		t = models.Transcript{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace transcript: %w", err)
	}
	return nil
}

// Clear removes the stored entry
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Persister
type MemoryStore struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load decodes the last saved transcript
func (m *MemoryStore) Load() (models.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return models.Transcript{}, m.LoadErr
	}
	if m.data == nil {
		return models.Transcript{}, nil
	}
	var t models.Transcript
	if err := json.Unmarshal(m.data, &t); err != nil {
		return models.Transcript{}, fmt.Errorf("failed to parse transcript: %w", err)
	}
	if t == nil {
		t = models.Transcript{}
	}
	return t, nil
}

// Save encodes t, the same way FileStore does
func (m *MemoryStore) Save(t models.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	if t == nil {
		t = models.Transcript{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	m.data = data
	m.saves++
	return nil
}

// SetRaw replaces the stored bytes, e.g. to simulate a corrupt entry
func (m *MemoryStore) SetRaw(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// Saves returns how many times Save succeeded
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var (
	_ Persister = (*FileStore)(nil)
	_ Persister = (*MemoryStore)(nil)
)

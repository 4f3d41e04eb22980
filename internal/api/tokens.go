package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Tokens is a JWT session.
type Tokens struct {
	Access   string `yaml:"access" json:"access"`
	Refresh  string `yaml:"refresh" json:"refresh"`
	Username string `yaml:"username,omitempty" json:"-"`
}

// Empty reports whether there is no access token.
func (t Tokens) Empty() bool {
	return t.Access == ""
}

// TokenStore persists a session between requests and runs.
type TokenStore interface {
	Load() (Tokens, error)
	Save(Tokens) error
	Clear() error
}

// =============================================================================
// MEMORY STORE
// =============================================================================

// MemoryStore keeps tokens for the life of the process.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = t
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save(Tokens{})
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps tokens in a YAML file readable only by the owner.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns empty tokens when the file does not exist.
func (s *FileStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var t Tokens
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tokens{}, fmt.Errorf("failed to parse token file: %w", err)
	}
	return t, nil
}

func (s *FileStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Clear removes the token file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

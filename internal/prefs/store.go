// Package prefs persists the small set of user preferences that survive
// between sessions: the last-selected style key and the last-entered API key.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	keyStyle  = "style"
	keyAPIKey = "api_key"
)

// Store is a file-backed key-value store with load-on-open and
// write-on-change semantics. Last write wins.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]string
}

// Open loads the store at path, starting empty when the file does not exist.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("prefs: path is required")
	}
	s := &Store{path: path, values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("prefs: parse %s: %w", path, err)
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	return s, nil
}

// Style returns the persisted style key, if any.
func (s *Store) Style() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[keyStyle]
}

// SetStyle persists the selected style key.
func (s *Store) SetStyle(key string) error {
	return s.set(keyStyle, strings.TrimSpace(key))
}

// APIKey returns the persisted API key, if any.
func (s *Store) APIKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[keyAPIKey]
}

// SetAPIKey persists the API key. An empty key removes the stored entry.
func (s *Store) SetAPIKey(key string) error {
	return s.set(keyAPIKey, strings.TrimSpace(key))
}

func (s *Store) set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		if _, ok := s.values[key]; !ok {
			return nil
		}
		delete(s.values, key)
	} else {
		if s.values[key] == value {
			return nil
		}
		s.values[key] = value
	}
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("prefs: ensure directory: %w", err)
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	// 0600: the file may hold an API key.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("prefs: write %s: %w", s.path, err)
	}
	return nil
}

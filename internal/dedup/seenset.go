package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// SeenSet is an in-memory KeyStore. Its contents survive restarts only
// through explicit Save and Load calls.
type SeenSet struct {
	keys map[string]struct{}
	mu   sync.RWMutex
}

type seenFile struct {
	SavedAt time.Time `json:"saved_at"`
	Keys    []string  `json:"seen_keys"`
}

// NewSeenSet returns an empty set.
func NewSeenSet() *SeenSet {
	return &SeenSet{keys: make(map[string]struct{})}
}

// Seen implements KeyStore.
func (s *SeenSet) Seen(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[key]
	return ok, nil
}

// Mark implements KeyStore.
func (s *SeenSet) Mark(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
	return nil
}

// Len returns the number of remembered keys.
func (s *SeenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// Load merges the keys stored at path into the set. A missing file is not an
// error.
func (s *SeenSet) Load(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // state file path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var f seenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to decode state file %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range f.Keys {
		s.keys[k] = struct{}{}
	}
	return nil
}

// Save writes the set to path, replacing any previous file atomically.
func (s *SeenSet) Save(path string) error {
	s.mu.RLock()
	f := seenFile{SavedAt: time.Now().UTC(), Keys: make([]string, 0, len(s.keys))}
	for k := range s.keys {
		f.Keys = append(f.Keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(f.Keys)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"sync"
)

// Store guards the live configuration. The UI can edit config at runtime,
// readers take a snapshot per operation so one request never sees a half
// applied change.
type Store struct {
	mu   sync.RWMutex
	file string
	cur  Config
}

func NewStore(file string, cur Config) *Store {
	return &Store{
		file: file,
		cur:  cur,
	}
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Replace persists the new configuration to the YAML file and swaps the live
// copy. The swap only happens after a successful write so the file and the
// live config never diverge.
func (s *Store) Replace(c Config) error {
	c.ApplyDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := Persist(s.file, &c)
	if err != nil {
		return fmt.Errorf("cannot persist config: %w", err)
	}

	s.cur = c
	return nil
}

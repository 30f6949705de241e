package memory

import (
	"sync"

	"github.com/custodia-labs/boilerbrain-ingest/internal/core/domain"
	"github.com/custodia-labs/boilerbrain-ingest/internal/core/ports/driven"
)

// Ensure ProgressStore implements the interface.
var _ driven.ProgressStore = (*ProgressStore)(nil)

// ProgressStore is an in-memory implementation of driven.ProgressStore.
type ProgressStore struct {
	mu        sync.RWMutex
	processed []string
	snapshot  *driven.ProgressSnapshot

	// Saves counts calls to Save, for tests asserting flush behaviour.
	Saves int
}

// NewProgressStore creates a progress store seeded with processed names.
func NewProgressStore(processed ...string) *ProgressStore {
	return &ProgressStore{processed: append([]string(nil), processed...)}
}

// LoadProcessed returns a copy of the processed set.
func (s *ProgressStore) LoadProcessed() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.processed...), nil
}

// SaveProcessed replaces the processed set.
func (s *ProgressStore) SaveProcessed(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append([]string(nil), names...)
	return nil
}

// Save replaces the processed set and the snapshot.
func (s *ProgressStore) Save(snap driven.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = append([]string(nil), snap.Processed...)
	s.snapshot = &snap
	s.Saves++
	return nil
}

// LoadSnapshot returns the last saved snapshot.
func (s *ProgressStore) LoadSnapshot() (*driven.ProgressSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	snap := *s.snapshot
	return &snap, nil
}

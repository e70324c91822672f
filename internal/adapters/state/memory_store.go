package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps processed ids in memory only. Dedup is lost on
// restart, so it is meant for development and tests.
type MemoryStore struct {
	retentionDays int
	mu            sync.RWMutex
	entries       map[string]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(retentionDays int) *MemoryStore {
	return &MemoryStore{
		retentionDays: retentionDays,
		entries:       make(map[string]time.Time),
	}
}

// IsProcessed reports whether id was processed within the retention window.
func (s *MemoryStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.entries[id]
	if !ok {
		return false, nil
	}
	if s.retentionDays <= 0 {
		return true, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	return !t.Before(cutoff), nil
}

// MarkProcessed records id as processed at now.
func (s *MemoryStore) MarkProcessed(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = now.UTC()
	return nil
}

// Prune drops entries older than the retention window.
func (s *MemoryStore) Prune(ctx context.Context, now time.Time) (int, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.UTC().AddDate(0, 0, -s.retentionDays)
	removed := 0
	for id, t := range s.entries {
		if t.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

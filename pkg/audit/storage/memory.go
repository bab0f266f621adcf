package storage

import (
	"context"
	"sync"

	"mercator-hq/saturn/pkg/audit"
)

// MemoryStorage implements audit.Storage in process memory.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries []*audit.RotationEntry
}

// NewMemoryStorage creates an empty in-memory audit trail.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Append stores one entry.
func (s *MemoryStorage) Append(ctx context.Context, entry *audit.RotationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MemoryStorage) Recent(ctx context.Context, limit int) ([]*audit.RotationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	out := make([]*audit.RotationEntry, 0, limit)
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *s.entries[i]
		out = append(out, &copied)
	}
	return out, nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStorage) Close() error {
	return nil
}

package storage

import (
	"context"
	"sync"

	"mercator-hq/saturn/pkg/spend"
)

// MemoryStore implements spend.Store with in-process maps. All state is
// lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	caps    []*spend.Cap
	records map[string]*spend.Record
}

// NewMemoryStore creates an empty in-memory spend store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*spend.Record),
	}
}

// SetCap activates the given cap and deactivates all others under one lock.
func (s *MemoryStore) SetCap(ctx context.Context, c *spend.Cap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.caps {
		existing.Active = false
	}

	stored := *c
	stored.Active = true
	s.caps = append(s.caps, &stored)
	return nil
}

// ActiveCap returns the active cap, or nil if none.
func (s *MemoryStore) ActiveCap(ctx context.Context) (*spend.Cap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.caps {
		if c.Active {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

// AddCost increments the month record under the write lock, creating it
// on the month's first event.
func (s *MemoryStore) AddCost(ctx context.Context, month string, category spend.Category, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[month]
	if !ok {
		record = &spend.Record{Month: month}
		s.records[month] = record
	}

	record.TotalCents += amountCents
	record.TotalRequests++

	switch category {
	case spend.CategoryLLM:
		record.LLMCents += amountCents
		record.LLMRequests++
	case spend.CategoryTTS:
		record.TTSCents += amountCents
		record.TTSRequests++
	}

	return nil
}

// Record returns a copy of the month's record, or nil if absent.
func (s *MemoryStore) Record(ctx context.Context, month string) (*spend.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[month]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

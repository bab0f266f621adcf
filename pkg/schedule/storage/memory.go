package storage

import (
	"context"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/schedule"
	"mercator-hq/saturn/pkg/tier"
)

// MemoryStore implements schedule.Store in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	schedules []*schedule.Schedule
}

// NewMemoryStore creates an empty in-memory schedule store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// GetOrCreate returns the group's schedule, inserting the prototype if
// absent. Lookup and insert share one critical section, so concurrent
// callers for the same group get the same schedule.
func (s *MemoryStore) GetOrCreate(ctx context.Context, proto *schedule.Schedule) (*schedule.Schedule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range s.schedules {
		if sched.Provider == proto.Provider && sched.Tier == proto.Tier {
			copied := *sched
			return &copied, false, nil
		}
	}

	copied := *proto
	s.schedules = append(s.schedules, &copied)
	result := copied
	return &result, true, nil
}

// Get returns the group's schedule, or nil.
func (s *MemoryStore) Get(ctx context.Context, provider string, t tier.Tier) (*schedule.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range s.schedules {
		if sched.Provider == provider && sched.Tier == t {
			copied := *sched
			return &copied, nil
		}
	}
	return nil, nil
}

// List returns all schedules in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]*schedule.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*schedule.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		copied := *sched
		out = append(out, &copied)
	}
	return out, nil
}

// SetEnabled flips the enabled flag.
func (s *MemoryStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range s.schedules {
		if sched.ID == id {
			sched.Enabled = enabled
			return nil
		}
	}
	return schedule.ErrNotFound
}

// MarkRun stamps the last run time.
func (s *MemoryStore) MarkRun(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sched := range s.schedules {
		if sched.ID == id {
			sched.LastRunAt = at
			return nil
		}
	}
	return schedule.ErrNotFound
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

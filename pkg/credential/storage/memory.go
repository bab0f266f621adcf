package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/credential"
	"mercator-hq/saturn/pkg/tier"
)

// MemoryStore implements credential.Store with an in-process slice kept
// in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	creds []*credential.Credential
}

// NewMemoryStore creates an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add inserts a new credential.
func (s *MemoryStore) Add(ctx context.Context, cred *credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.creds {
		if existing.ID == cred.ID {
			return fmt.Errorf("credential %s already exists", cred.ID)
		}
	}

	copied := *cred
	s.creds = append(s.creds, &copied)
	return nil
}

// Get returns a copy of the credential, or nil if absent.
func (s *MemoryStore) Get(ctx context.Context, id string) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cred := s.find(id); cred != nil {
		copied := *cred
		return &copied, nil
	}
	return nil, nil
}

// Active returns the ACTIVE credential in the group, or nil.
func (s *MemoryStore) Active(ctx context.Context, provider string, t tier.Tier) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.creds {
		if cred.Provider == provider && cred.Tier == t && cred.Status == credential.StatusActive {
			copied := *cred
			return &copied, nil
		}
	}
	return nil, nil
}

// NextForRotation returns the oldest PENDING or INACTIVE credential in
// the group, or nil.
func (s *MemoryStore) NextForRotation(ctx context.Context, provider string, t tier.Tier) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, cred := range s.creds {
		if cred.Provider != provider || cred.Tier != t {
			continue
		}
		if cred.Status == credential.StatusPending || cred.Status == credential.StatusInactive {
			copied := *cred
			return &copied, nil
		}
	}
	return nil, nil
}

// Activate deactivates every sibling and activates the credential under
// one write lock.
func (s *MemoryStore) Activate(ctx context.Context, id string, at time.Time) (*credential.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.find(id)
	if target == nil {
		return nil, credential.ErrNotFound
	}

	// Every sibling in the group goes INACTIVE, not just the currently
	// active one; the displaced credential is the one that was active.
	var old *credential.Credential
	for _, cred := range s.creds {
		if cred.ID == id || cred.Provider != target.Provider || cred.Tier != target.Tier {
			continue
		}
		if cred.Status == credential.StatusActive {
			displaced := *cred
			old = &displaced
		}
		cred.Status = credential.StatusInactive
	}

	target.Status = credential.StatusActive
	target.ActivatedAt = at
	return old, nil
}

// RecordUse increments usage under the write lock.
func (s *MemoryStore) RecordUse(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := s.find(id)
	if cred == nil {
		return credential.ErrNotFound
	}
	cred.UsageCount++
	cred.LastUsedAt = at
	return nil
}

// List returns copies in insertion order, filtered by provider and tier.
func (s *MemoryStore) List(ctx context.Context, provider string, t tier.Tier) ([]*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*credential.Credential
	for _, cred := range s.creds {
		if provider != "" && cred.Provider != provider {
			continue
		}
		if t != "" && cred.Tier != t {
			continue
		}
		copied := *cred
		out = append(out, &copied)
	}
	return out, nil
}

// ProvidersWithTier returns distinct providers holding the tier, in
// first-seen order.
func (s *MemoryStore) ProvidersWithTier(ctx context.Context, t tier.Tier) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var providers []string
	for _, cred := range s.creds {
		if cred.Tier != t || seen[cred.Provider] {
			continue
		}
		seen[cred.Provider] = true
		providers = append(providers, cred.Provider)
	}
	return providers, nil
}

// Remove deletes the credential record.
func (s *MemoryStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cred := range s.creds {
		if cred.ID == id {
			s.creds = append(s.creds[:i], s.creds[i+1:]...)
			return nil
		}
	}
	return credential.ErrNotFound
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// find returns the stored credential. Caller must hold a lock.
func (s *MemoryStore) find(id string) *credential.Credential {
	for _, cred := range s.creds {
		if cred.ID == id {
			return cred
		}
	}
	return nil
}

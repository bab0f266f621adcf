package credential

import (
	"context"
	"time"

	"mercator-hq/saturn/pkg/tier"
)

// Status is a credential's position in its lifecycle.
type Status string

const (
	// StatusPending marks a freshly added credential that has never been
	// activated.
	StatusPending Status = "PENDING"

	// StatusActive marks the single credential in use for its
	// (provider, tier) group.
	StatusActive Status = "ACTIVE"

	// StatusInactive marks a credential displaced by a sibling's
	// activation. Inactive credentials remain rotation candidates.
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive:
		return true
	}
	return false
}

// Transition validates a status change. Self-transitions are permitted so
// re-activating the already active credential is idempotent. PENDING may
// move anywhere; ACTIVE only to INACTIVE; INACTIVE only back to ACTIVE.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return &TransitionError{From: from, To: to}
	}
	if from == to {
		return nil
	}

	allowed := false
	switch from {
	case StatusPending:
		allowed = to == StatusActive || to == StatusInactive
	case StatusActive:
		allowed = to == StatusInactive
	case StatusInactive:
		allowed = to == StatusActive
	}

	if !allowed {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Credential is one provider API key tracked by the pool. The plaintext
// secret is never held on this struct; only the sealed bytes are.
type Credential struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id"`

	// Provider names the external AI vendor (openai, anthropic, ...).
	Provider string `json:"provider"`

	// Tier is the quality tier this credential serves.
	Tier tier.Tier `json:"tier"`

	// Name is a human label for admin listings.
	Name string `json:"name"`

	// SealedSecret is the encrypted API key.
	SealedSecret []byte `json:"-"`

	// Status is the lifecycle position.
	Status Status `json:"status"`

	// UsageCount counts RecordUse calls. Monotonic.
	UsageCount int64 `json:"usage_count"`

	// LastUsedAt is when RecordUse last ran. Zero if never used.
	LastUsedAt time.Time `json:"last_used_at"`

	// ActivatedAt is when this credential last became ACTIVE. Zero if
	// never activated. Drives the governor's rotation cooldown.
	ActivatedAt time.Time `json:"activated_at"`

	// AddedBy identifies the admin who added the credential.
	AddedBy string `json:"added_by"`

	// CreatedAt orders rotation candidates within a group.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists credentials. Implementations must be safe for
// concurrent use. Activate and RecordUse must be atomic: two concurrent
// activations in one group must never leave two ACTIVE rows, and
// concurrent RecordUse calls must never lose counts.
type Store interface {
	// Add inserts a new credential.
	Add(ctx context.Context, cred *Credential) error

	// Get returns a credential by ID, or nil if absent.
	Get(ctx context.Context, id string) (*Credential, error)

	// Active returns the single ACTIVE credential for the group, or nil
	// if the group has none (a valid state, not an error).
	Active(ctx context.Context, provider string, t tier.Tier) (*Credential, error)

	// NextForRotation returns the oldest PENDING or INACTIVE credential
	// in the group, or nil if none is available.
	NextForRotation(ctx context.Context, provider string, t tier.Tier) (*Credential, error)

	// Activate atomically marks the credential ACTIVE with the given
	// activation time and every sibling in its (provider, tier) group
	// INACTIVE. Returns the previously active sibling, or nil on first
	// activation.
	Activate(ctx context.Context, id string, at time.Time) (*Credential, error)

	// RecordUse atomically increments the usage counter and stamps
	// last-used.
	RecordUse(ctx context.Context, id string, at time.Time) error

	// List returns the group's credentials in insertion order. An empty
	// provider matches all providers; an empty tier matches all tiers.
	List(ctx context.Context, provider string, t tier.Tier) ([]*Credential, error)

	// ProvidersWithTier returns the distinct providers that have at
	// least one credential in the given tier.
	ProvidersWithTier(ctx context.Context, t tier.Tier) ([]string, error)

	// Remove deletes a credential record entirely. Admin-only path;
	// rotation never calls this.
	Remove(ctx context.Context, id string) error

	// Close releases resources held by the store.
	Close() error
}

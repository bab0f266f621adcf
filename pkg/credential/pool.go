package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/seal"
	"mercator-hq/saturn/pkg/tier"
)

// Pool is the credential set for all providers and tiers. It wraps a
// Store with secret sealing, status machine validation, and logging.
type Pool struct {
	store  Store
	sealer seal.Sealer
	logger *slog.Logger

	// now is overridable in tests.
	now func() time.Time
}

// NewPool creates a pool over the given store and sealer.
func NewPool(store Store, sealer seal.Sealer) *Pool {
	return &Pool{
		store:  store,
		sealer: sealer,
		logger: slog.Default().With("component", "credential.pool"),
		now:    time.Now,
	}
}

// Add seals the secret and inserts a PENDING credential.
func (p *Pool) Add(ctx context.Context, provider string, t tier.Tier, name, secret, addedBy string) (*Credential, error) {
	if provider == "" {
		return nil, fmt.Errorf("%w: provider is required", ErrInvalidCredential)
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidCredential, t)
	}
	if secret == "" {
		return nil, fmt.Errorf("%w: secret is required", ErrInvalidCredential)
	}

	sealed, err := p.sealer.Seal([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to seal secret: %w", err)
	}

	cred := &Credential{
		ID:           uuid.New().String(),
		Provider:     provider,
		Tier:         t,
		Name:         name,
		SealedSecret: sealed,
		Status:       StatusPending,
		AddedBy:      addedBy,
		CreatedAt:    p.now(),
	}

	if err := p.store.Add(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	p.logger.Info("credential added",
		"credential_id", cred.ID,
		"provider", provider,
		"tier", t.String(),
		"name", name,
		"added_by", addedBy,
	)

	return cred, nil
}

// Active returns the single ACTIVE credential for (provider, tier), or
// nil if none is active. A group with no active credential is a valid
// state, not an error.
func (p *Pool) Active(ctx context.Context, provider string, t tier.Tier) (*Credential, error) {
	return p.store.Active(ctx, provider, t)
}

// NextForRotation returns the first PENDING or INACTIVE candidate in the
// group by insertion order, or nil if the group has no candidate. The
// selection never crosses provider or tier boundaries.
func (p *Pool) NextForRotation(ctx context.Context, provider string, t tier.Tier) (*Credential, error) {
	return p.store.NextForRotation(ctx, provider, t)
}

// Activate transitions the credential to ACTIVE and, in the same atomic
// store operation, every sibling in its (provider, tier) group to
// INACTIVE. Returns the displaced credential, or nil on the group's
// first activation.
func (p *Pool) Activate(ctx context.Context, cred *Credential) (*Credential, error) {
	if err := Transition(cred.Status, StatusActive); err != nil {
		return nil, err
	}

	old, err := p.store.Activate(ctx, cred.ID, p.now())
	if err != nil {
		return nil, fmt.Errorf("failed to activate credential %s: %w", cred.ID, err)
	}

	oldID := ""
	if old != nil {
		oldID = old.ID
	}
	p.logger.Info("credential activated",
		"credential_id", cred.ID,
		"provider", cred.Provider,
		"tier", cred.Tier.String(),
		"replaced", oldID,
	)

	return old, nil
}

// RecordUse bumps the usage counter and last-used timestamp. Safe to
// call concurrently; the store performs the increment atomically.
func (p *Pool) RecordUse(ctx context.Context, cred *Credential) error {
	if err := p.store.RecordUse(ctx, cred.ID, p.now()); err != nil {
		return fmt.Errorf("failed to record use of %s: %w", cred.ID, err)
	}
	return nil
}

// Secret unseals and returns the credential's plaintext secret.
func (p *Pool) Secret(cred *Credential) (string, error) {
	plaintext, err := p.sealer.Unseal(cred.SealedSecret)
	if err != nil {
		return "", fmt.Errorf("failed to unseal secret for %s: %w", cred.ID, err)
	}
	return string(plaintext), nil
}

// Get returns a credential by ID.
func (p *Pool) Get(ctx context.Context, id string) (*Credential, error) {
	cred, err := p.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cred, nil
}

// List returns credentials filtered by provider and tier; empty values
// match everything.
func (p *Pool) List(ctx context.Context, provider string, t tier.Tier) ([]*Credential, error) {
	return p.store.List(ctx, provider, t)
}

// ProvidersWithTier returns the providers holding at least one
// credential in the given tier.
func (p *Pool) ProvidersWithTier(ctx context.Context, t tier.Tier) ([]string, error) {
	return p.store.ProvidersWithTier(ctx, t)
}

// Remove deletes a credential record. This is the admin path; rotation
// only ever flips status.
func (p *Pool) Remove(ctx context.Context, id string) error {
	if err := p.store.Remove(ctx, id); err != nil {
		return err
	}
	p.logger.Info("credential removed", "credential_id", id)
	return nil
}

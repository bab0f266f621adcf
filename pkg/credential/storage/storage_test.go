package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"mercator-hq/saturn/pkg/credential"
	"mercator-hq/saturn/pkg/tier"
)

// storeFactories builds each backend fresh for conformance testing.
func storeFactories(t *testing.T) map[string]func(t *testing.T) credential.Store {
	t.Helper()
	return map[string]func(t *testing.T) credential.Store{
		"memory": func(t *testing.T) credential.Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) credential.Store {
			path := filepath.Join(t.TempDir(), "credentials.db")
			store, err := NewSQLiteStore(path)
			if err != nil {
				t.Fatalf("failed to open sqlite store: %v", err)
			}
			return store
		},
	}
}

func newCred(provider string, tr tier.Tier, name string) *credential.Credential {
	return &credential.Credential{
		ID:           uuid.New().String(),
		Provider:     provider,
		Tier:         tr,
		Name:         name,
		SealedSecret: []byte("sealed-" + name),
		Status:       credential.StatusPending,
		AddedBy:      "admin",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}

func TestStore_ActivateDisplacesSibling(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			a := newCred("openai", tier.TierPremium, "key-a")
			b := newCred("openai", tier.TierPremium, "key-b")
			for _, c := range []*credential.Credential{a, b} {
				if err := store.Add(ctx, c); err != nil {
					t.Fatal(err)
				}
			}

			// First activation displaces nobody.
			old, err := store.Activate(ctx, a.ID, time.Now())
			if err != nil {
				t.Fatal(err)
			}
			if old != nil {
				t.Errorf("first activation displaced %s, want nil", old.ID)
			}

			// Second activation displaces the first.
			old, err = store.Activate(ctx, b.ID, time.Now())
			if err != nil {
				t.Fatal(err)
			}
			if old == nil || old.ID != a.ID {
				t.Fatalf("displaced = %+v, want credential %s", old, a.ID)
			}

			// Exactly one ACTIVE in the group.
			creds, err := store.List(ctx, "openai", tier.TierPremium)
			if err != nil {
				t.Fatal(err)
			}
			activeCount := 0
			for _, c := range creds {
				if c.Status == credential.StatusActive {
					activeCount++
					if c.ID != b.ID {
						t.Errorf("active credential = %s, want %s", c.ID, b.ID)
					}
				}
			}
			if activeCount != 1 {
				t.Errorf("active count = %d, want 1", activeCount)
			}
		})
	}
}

func TestStore_ActivateDemotesPendingSiblings(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			a := newCred("openai", tier.TierFallback, "key-a")
			b := newCred("openai", tier.TierFallback, "key-b")
			c := newCred("openai", tier.TierFallback, "key-c")
			for _, cred := range []*credential.Credential{a, b, c} {
				if err := store.Add(ctx, cred); err != nil {
					t.Fatal(err)
				}
			}

			// Activating one pending credential moves every sibling to
			// INACTIVE, including the ones that were still PENDING.
			if _, err := store.Activate(ctx, a.ID, time.Now()); err != nil {
				t.Fatal(err)
			}

			for _, sibling := range []*credential.Credential{b, c} {
				got, err := store.Get(ctx, sibling.ID)
				if err != nil {
					t.Fatal(err)
				}
				if got.Status != credential.StatusInactive {
					t.Errorf("%s status = %s, want INACTIVE", sibling.Name, got.Status)
				}
			}
		})
	}
}

func TestStore_ActivateScopedToGroup(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			premium := newCred("openai", tier.TierPremium, "openai-premium")
			fallback := newCred("openai", tier.TierFallback, "openai-fallback")
			other := newCred("anthropic", tier.TierPremium, "anthropic-premium")
			for _, c := range []*credential.Credential{premium, fallback, other} {
				if err := store.Add(ctx, c); err != nil {
					t.Fatal(err)
				}
				if _, err := store.Activate(ctx, c.ID, time.Now()); err != nil {
					t.Fatal(err)
				}
			}

			// Re-activating one group must not touch the other two.
			replacement := newCred("openai", tier.TierPremium, "openai-premium-2")
			if err := store.Add(ctx, replacement); err != nil {
				t.Fatal(err)
			}
			if _, err := store.Activate(ctx, replacement.ID, time.Now()); err != nil {
				t.Fatal(err)
			}

			for _, c := range []*credential.Credential{fallback, other} {
				got, err := store.Get(ctx, c.ID)
				if err != nil {
					t.Fatal(err)
				}
				if got.Status != credential.StatusActive {
					t.Errorf("%s status = %s, want ACTIVE", c.Name, got.Status)
				}
			}
		})
	}
}

func TestStore_NextForRotationOrder(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			first := newCred("openai", tier.TierFallback, "first")
			second := newCred("openai", tier.TierFallback, "second")
			for _, c := range []*credential.Credential{first, second} {
				if err := store.Add(ctx, c); err != nil {
					t.Fatal(err)
				}
			}

			next, err := store.NextForRotation(ctx, "openai", tier.TierFallback)
			if err != nil {
				t.Fatal(err)
			}
			if next == nil || next.ID != first.ID {
				t.Fatalf("next = %+v, want oldest pending %s", next, first.ID)
			}

			// Activate it; the second pending takes over as candidate.
			if _, err := store.Activate(ctx, first.ID, time.Now()); err != nil {
				t.Fatal(err)
			}
			next, err = store.NextForRotation(ctx, "openai", tier.TierFallback)
			if err != nil {
				t.Fatal(err)
			}
			if next == nil || next.ID != second.ID {
				t.Fatalf("next = %+v, want %s", next, second.ID)
			}

			// Empty group has no candidate and no error.
			next, err = store.NextForRotation(ctx, "mistral", tier.TierFallback)
			if err != nil {
				t.Fatal(err)
			}
			if next != nil {
				t.Errorf("expected nil candidate for empty group, got %s", next.ID)
			}
		})
	}
}

func TestStore_RecordUseConcurrent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			cred := newCred("openai", tier.TierStandard, "busy")
			if err := store.Add(ctx, cred); err != nil {
				t.Fatal(err)
			}

			var wg sync.WaitGroup
			numGoroutines := 10
			perGoroutine := 20
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						if err := store.RecordUse(ctx, cred.ID, time.Now()); err != nil {
							t.Errorf("RecordUse: %v", err)
						}
					}
				}()
			}
			wg.Wait()

			got, err := store.Get(ctx, cred.ID)
			if err != nil {
				t.Fatal(err)
			}
			expected := int64(numGoroutines * perGoroutine)
			if got.UsageCount != expected {
				t.Errorf("UsageCount = %d, want %d", got.UsageCount, expected)
			}
			if got.LastUsedAt.IsZero() {
				t.Error("LastUsedAt should be set after use")
			}
		})
	}
}

func TestStore_ListAndProviders(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			creds := []*credential.Credential{
				newCred("openai", tier.TierPremium, "a"),
				newCred("openai", tier.TierFallback, "b"),
				newCred("anthropic", tier.TierFallback, "c"),
			}
			for _, c := range creds {
				if err := store.Add(ctx, c); err != nil {
					t.Fatal(err)
				}
			}

			all, err := store.List(ctx, "", "")
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 3 {
				t.Errorf("List(all) = %d credentials, want 3", len(all))
			}

			openai, err := store.List(ctx, "openai", "")
			if err != nil {
				t.Fatal(err)
			}
			if len(openai) != 2 {
				t.Errorf("List(openai) = %d, want 2", len(openai))
			}

			fallbacks, err := store.List(ctx, "", tier.TierFallback)
			if err != nil {
				t.Fatal(err)
			}
			if len(fallbacks) != 2 {
				t.Errorf("List(fallback) = %d, want 2", len(fallbacks))
			}

			providers, err := store.ProvidersWithTier(ctx, tier.TierFallback)
			if err != nil {
				t.Fatal(err)
			}
			if len(providers) != 2 {
				t.Errorf("ProvidersWithTier = %v, want both providers", providers)
			}
			providers, err = store.ProvidersWithTier(ctx, tier.TierStandard)
			if err != nil {
				t.Fatal(err)
			}
			if len(providers) != 0 {
				t.Errorf("ProvidersWithTier(standard) = %v, want none", providers)
			}
		})
	}
}

func TestStore_MissingCredential(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory(t)
			defer store.Close()
			ctx := context.Background()

			got, err := store.Get(ctx, "nope")
			if err != nil {
				t.Fatal(err)
			}
			if got != nil {
				t.Error("Get(missing) should return nil")
			}

			if _, err := store.Activate(ctx, "nope", time.Now()); err != credential.ErrNotFound {
				t.Errorf("Activate(missing) = %v, want ErrNotFound", err)
			}
			if err := store.RecordUse(ctx, "nope", time.Now()); err != credential.ErrNotFound {
				t.Errorf("RecordUse(missing) = %v, want ErrNotFound", err)
			}
			if err := store.Remove(ctx, "nope"); err != credential.ErrNotFound {
				t.Errorf("Remove(missing) = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	cred := newCred("openai", tier.TierPremium, "durable")
	if err := store.Add(ctx, cred); err != nil {
		t.Fatal(err)
	}
	activatedAt := time.Now().UTC().Truncate(time.Second)
	if _, err := store.Activate(ctx, cred.ID, activatedAt); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, cred.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("credential not persisted")
	}
	if got.Status != credential.StatusActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}
	if !got.ActivatedAt.Equal(activatedAt) {
		t.Errorf("ActivatedAt = %v, want %v", got.ActivatedAt, activatedAt)
	}
	if string(got.SealedSecret) != string(cred.SealedSecret) {
		t.Error("sealed secret not persisted intact")
	}
}

package credential_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"mercator-hq/saturn/pkg/credential"
	"mercator-hq/saturn/pkg/credential/storage"
	"mercator-hq/saturn/pkg/seal"
	"mercator-hq/saturn/pkg/tier"
)

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to credential.Status
		ok       bool
	}{
		{credential.StatusPending, credential.StatusActive, true},
		{credential.StatusPending, credential.StatusInactive, true},
		{credential.StatusActive, credential.StatusInactive, true},
		{credential.StatusInactive, credential.StatusActive, true},
		{credential.StatusInactive, credential.StatusPending, false},
		{credential.StatusActive, credential.StatusPending, false},
		// Self-transitions are idempotent no-ops.
		{credential.StatusPending, credential.StatusPending, true},
		{credential.StatusActive, credential.StatusActive, true},
		{credential.StatusInactive, credential.StatusInactive, true},
		{credential.Status("BOGUS"), credential.StatusActive, false},
		{credential.StatusActive, credential.Status(""), false},
	}

	for _, tt := range tests {
		err := credential.Transition(tt.from, tt.to)
		if tt.ok && err != nil {
			t.Errorf("credential.Transition(%s, %s) = %v, want nil", tt.from, tt.to, err)
		}
		if !tt.ok {
			var te *credential.TransitionError
			if !errors.As(err, &te) {
				t.Errorf("credential.Transition(%s, %s) = %v, want TransitionError", tt.from, tt.to, err)
			}
		}
	}
}

func testPool(t *testing.T) *credential.Pool {
	t.Helper()
	return credential.NewPool(storage.NewMemoryStore(), seal.Plaintext{})
}

func TestPool_AddValidation(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		provider string
		tr       tier.Tier
		secret   string
	}{
		{"missing provider", "", tier.TierPremium, "sk-1"},
		{"bad tier", "openai", tier.Tier("gold"), "sk-1"},
		{"missing secret", "openai", tier.TierPremium, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pool.Add(ctx, tt.provider, tt.tr, "key", tt.secret, "admin")
			if !errors.Is(err, credential.ErrInvalidCredential) {
				t.Errorf("Add = %v, want ErrInvalidCredential", err)
			}
		})
	}
}

func TestPool_AddSealsSecret(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	cred, err := pool.Add(ctx, "openai", tier.TierPremium, "primary", "sk-live-xyz", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if cred.Status != credential.StatusPending {
		t.Errorf("status = %s, want PENDING", cred.Status)
	}
	if cred.ID == "" {
		t.Error("expected generated ID")
	}
	if len(cred.SealedSecret) == 0 {
		t.Fatal("expected sealed secret bytes")
	}

	secret, err := pool.Secret(cred)
	if err != nil {
		t.Fatal(err)
	}
	if secret != "sk-live-xyz" {
		t.Errorf("secret = %q, want original", secret)
	}
}

func TestPool_ActivateSingleActiveInvariant(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	a, err := pool.Add(ctx, "openai", tier.TierFallback, "a", "sk-a", "admin")
	if err != nil {
		t.Fatal(err)
	}
	b, err := pool.Add(ctx, "openai", tier.TierFallback, "b", "sk-b", "admin")
	if err != nil {
		t.Fatal(err)
	}

	old, err := pool.Activate(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if old != nil {
		t.Errorf("first activation displaced %s, want nil", old.ID)
	}

	// Reload to get the post-activation status.
	a, err = pool.Get(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != credential.StatusActive {
		t.Fatalf("status = %s, want ACTIVE", a.Status)
	}
	if a.ActivatedAt.IsZero() {
		t.Error("ActivatedAt should be stamped")
	}

	old, err = pool.Activate(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if old == nil || old.ID != a.ID {
		t.Fatalf("displaced = %+v, want %s", old, a.ID)
	}

	active, err := pool.Active(ctx, "openai", tier.TierFallback)
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != b.ID {
		t.Fatalf("active = %+v, want %s", active, b.ID)
	}
}

func TestPool_ActivateIdempotent(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	cred, err := pool.Add(ctx, "anthropic", tier.TierPremium, "only", "sk-1", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Activate(ctx, cred); err != nil {
		t.Fatal(err)
	}

	// Activating the already active credential is allowed and displaces
	// nothing.
	cred, err = pool.Get(ctx, cred.ID)
	if err != nil {
		t.Fatal(err)
	}
	old, err := pool.Activate(ctx, cred)
	if err != nil {
		t.Fatal(err)
	}
	if old != nil {
		t.Errorf("idempotent re-activation displaced %s", old.ID)
	}
}

func TestPool_RecordUse(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	cred, err := pool.Add(ctx, "openai", tier.TierStandard, "key", "sk-1", "admin")
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := pool.RecordUse(ctx, cred); err != nil {
			t.Fatal(err)
		}
	}

	got, err := pool.Get(ctx, cred.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UsageCount != 3 {
		t.Errorf("UsageCount = %d, want 3", got.UsageCount)
	}
	if got.LastUsedAt.IsZero() {
		t.Error("LastUsedAt should be set")
	}
}

func TestPool_GetMissing(t *testing.T) {
	pool := testPool(t)

	_, err := pool.Get(context.Background(), "nope")
	if !errors.Is(err, credential.ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestPool_SecretUnsealFailure(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	sealer, err := seal.NewAESGCM(key)
	if err != nil {
		t.Fatal(err)
	}
	pool := credential.NewPool(storage.NewMemoryStore(), sealer)

	cred := &credential.Credential{ID: "x", SealedSecret: []byte("garbage")}
	if _, err := pool.Secret(cred); err == nil {
		t.Error("expected unseal error for garbage ciphertext")
	}
}

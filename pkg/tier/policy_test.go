package tier

import "testing"

func TestActiveTier_Boundaries(t *testing.T) {
	policy := NewPolicy(Config{})

	// Cap of $100.00 in cents.
	const cap = int64(10000)

	tests := []struct {
		name  string
		spent int64
		want  Tier
	}{
		{"zero spend", 0, TierPremium},
		{"half of cap", 5000, TierPremium},
		{"just below standard threshold", 8499, TierPremium},
		{"exactly 85 percent", 8500, TierStandard},
		{"between thresholds", 9200, TierStandard},
		{"exactly at cap", 10000, TierStandard},
		{"one cent over cap", 10001, TierFallback},
		{"far over cap", 25000, TierFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.ActiveTier(true, tt.spent, cap)
			if got != tt.want {
				t.Errorf("ActiveTier(%d/%d) = %s, want %s", tt.spent, cap, got, tt.want)
			}
		})
	}
}

func TestActiveTier_FailOpen(t *testing.T) {
	policy := NewPolicy(Config{})

	// No cap configured: premium regardless of spend.
	if got := policy.ActiveTier(false, 9999999, 0); got != TierPremium {
		t.Errorf("expected premium with no cap, got %s", got)
	}

	// Zero cap amount cannot produce a percentage: premium.
	if got := policy.ActiveTier(true, 500, 0); got != TierPremium {
		t.Errorf("expected premium with zero cap, got %s", got)
	}
}

func TestActiveTier_CustomThresholds(t *testing.T) {
	policy := NewPolicy(Config{
		StandardThreshold: 50,
		FallbackThreshold: 90,
	})

	if got := policy.ActiveTier(true, 5000, 10000); got != TierStandard {
		t.Errorf("expected standard at 50%%, got %s", got)
	}
	if got := policy.ActiveTier(true, 9001, 10000); got != TierFallback {
		t.Errorf("expected fallback above 90%%, got %s", got)
	}
}

func TestModelFor(t *testing.T) {
	policy := NewPolicy(Config{})

	tests := []struct {
		name     string
		tier     Tier
		provider string
		want     string
	}{
		{"openai premium", TierPremium, "openai", "gpt-4o"},
		{"openai fallback", TierFallback, "openai", "gpt-3.5-turbo"},
		{"anthropic standard", TierStandard, "anthropic", "claude-3-sonnet"},
		{"unknown provider uses default table", TierPremium, "nonexistent", "gpt-4o"},
		{"unknown tier uses premium entry", Tier("experimental"), "anthropic", "claude-3-opus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.ModelFor(tt.tier, tt.provider)
			if got != tt.want {
				t.Errorf("ModelFor(%s, %s) = %q, want %q", tt.tier, tt.provider, got, tt.want)
			}
		})
	}
}

func TestModelFor_SparseModelSet(t *testing.T) {
	policy := NewPolicy(Config{
		DefaultProvider: "custom",
		Models: map[string]ModelSet{
			"custom": {Premium: "big-model"},
		},
	})

	// No standard/fallback entries configured: everything resolves to premium.
	for _, tr := range Tiers {
		if got := policy.ModelFor(tr, "custom"); got != "big-model" {
			t.Errorf("ModelFor(%s) = %q, want big-model", tr, got)
		}
	}
}

func TestCostMultiplier(t *testing.T) {
	tests := []struct {
		tier Tier
		want int
	}{
		{TierPremium, 10},
		{TierStandard, 5},
		{TierFallback, 1},
		{Tier("unknown"), 10},
	}

	for _, tt := range tests {
		if got := tt.tier.CostMultiplier(); got != tt.want {
			t.Errorf("CostMultiplier(%s) = %d, want %d", tt.tier, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("premium"); err != nil {
		t.Errorf("Parse(premium) returned error: %v", err)
	}
	if _, err := Parse("platinum"); err == nil {
		t.Error("Parse(platinum) expected error, got nil")
	}
}

package tier

// ModelSet names the concrete model serving each tier for one provider.
type ModelSet struct {
	// Premium is the model used under TierPremium.
	Premium string `yaml:"premium"`

	// Standard is the model used under TierStandard.
	Standard string `yaml:"standard"`

	// Fallback is the model used under TierFallback.
	Fallback string `yaml:"fallback"`
}

// modelFor returns the model for a tier, defaulting to the premium entry
// for unknown tiers.
func (m ModelSet) modelFor(t Tier) string {
	switch t {
	case TierStandard:
		if m.Standard != "" {
			return m.Standard
		}
	case TierFallback:
		if m.Fallback != "" {
			return m.Fallback
		}
	}
	return m.Premium
}

// Config contains the policy thresholds and model tables.
type Config struct {
	// StandardThreshold is the percentage of cap (0-100 scale) at which the
	// policy drops to standard. The boundary is inclusive: exactly this
	// percentage selects standard. Default: 85.
	StandardThreshold float64 `yaml:"standard_threshold"`

	// FallbackThreshold is the percentage of cap above which the policy
	// drops to fallback. The boundary is exclusive: spend must be strictly
	// greater. Default: 100.
	FallbackThreshold float64 `yaml:"fallback_threshold"`

	// Models maps provider name to its per-tier model table.
	Models map[string]ModelSet `yaml:"models"`

	// DefaultProvider is the model table used when a provider has no entry.
	DefaultProvider string `yaml:"default_provider"`
}

// DefaultConfig returns the default policy configuration.
func DefaultConfig() Config {
	return Config{
		StandardThreshold: 85,
		FallbackThreshold: 100,
		DefaultProvider:   "openai",
		Models: map[string]ModelSet{
			"openai": {
				Premium:  "gpt-4o",
				Standard: "gpt-4o-mini",
				Fallback: "gpt-3.5-turbo",
			},
			"anthropic": {
				Premium:  "claude-3-opus",
				Standard: "claude-3-sonnet",
				Fallback: "claude-3-haiku",
			},
		},
	}
}

// Policy decides the active tier from spend and cap, and resolves tier to
// model names. Policy is a pure decision table: it holds no spend state
// and performs no I/O.
type Policy struct {
	config Config
}

// NewPolicy creates a policy from the given configuration, filling in
// defaults for unset thresholds and an empty model table.
func NewPolicy(config Config) *Policy {
	defaults := DefaultConfig()
	if config.StandardThreshold == 0 {
		config.StandardThreshold = defaults.StandardThreshold
	}
	if config.FallbackThreshold == 0 {
		config.FallbackThreshold = defaults.FallbackThreshold
	}
	if len(config.Models) == 0 {
		config.Models = defaults.Models
	}
	if config.DefaultProvider == "" {
		config.DefaultProvider = defaults.DefaultProvider
	}
	return &Policy{config: config}
}

// ActiveTier returns the tier permitted at the given spend level.
//
// hasCap=false means no spending cap is configured; the policy fails open
// to premium. capCents <= 0 is treated the same way, since a percentage
// cannot be computed.
func (p *Policy) ActiveTier(hasCap bool, spentCents, capCents int64) Tier {
	if !hasCap || capCents <= 0 {
		return TierPremium
	}

	percentage := float64(spentCents) / float64(capCents) * 100

	switch {
	case percentage > p.config.FallbackThreshold:
		return TierFallback
	case percentage >= p.config.StandardThreshold:
		return TierStandard
	default:
		return TierPremium
	}
}

// ModelFor returns the model name serving the given tier for a provider.
// Unknown providers resolve through the default provider's table; unknown
// tiers resolve to the premium entry. ModelFor never errors.
func (p *Policy) ModelFor(t Tier, provider string) string {
	set, ok := p.config.Models[provider]
	if !ok {
		set = p.config.Models[p.config.DefaultProvider]
	}
	return set.modelFor(t)
}

// Thresholds returns the configured (standard, fallback) percentage
// thresholds.
func (p *Policy) Thresholds() (standard, fallback float64) {
	return p.config.StandardThreshold, p.config.FallbackThreshold
}

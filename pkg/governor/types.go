package governor

import (
	"time"

	"mercator-hq/saturn/pkg/tier"
)

// Config contains configuration for the rotation governor.
type Config struct {
	// Cooldown is the minimum interval between cap-triggered fallback
	// rotations. Default: 5 minutes.
	Cooldown time.Duration `yaml:"cooldown"`
}

// DefaultConfig returns the default governor configuration.
func DefaultConfig() Config {
	return Config{
		Cooldown: 5 * time.Minute,
	}
}

// CheckResult is the outcome of one cap check.
type CheckResult struct {
	// Triggered reports whether spending exceeded the cap.
	Triggered bool `json:"triggered"`

	// Suppressed reports that the cap was exceeded but rotation was
	// skipped because a fallback credential was activated within the
	// cooldown window.
	Suppressed bool `json:"suppressed"`

	// Reason explains the decision in operator-readable form.
	Reason string `json:"reason"`

	// Percentage is spend as a percentage of the cap. Zero when no cap
	// is configured.
	Percentage float64 `json:"percentage"`

	// Rotation is the rotation outcome, set only when a rotation ran.
	Rotation *RotationResult `json:"rotation,omitempty"`
}

// ProviderRotation is one successful group rotation.
type ProviderRotation struct {
	Provider        string    `json:"provider"`
	Tier            tier.Tier `json:"tier"`
	OldCredentialID string    `json:"old_credential_id,omitempty"`
	NewCredentialID string    `json:"new_credential_id"`
}

// ProviderFailure is one group that could not rotate.
type ProviderFailure struct {
	Provider string    `json:"provider"`
	Tier     tier.Tier `json:"tier"`
	Reason   string    `json:"reason"`
}

// RotationResult aggregates a multi-provider rotation sweep. A sweep is
// a partial success: some providers may rotate while others fail.
type RotationResult struct {
	Rotated  []ProviderRotation `json:"rotated"`
	Failures []ProviderFailure  `json:"failures,omitempty"`
}

// Complete reports whether every provider in the sweep rotated.
func (r *RotationResult) Complete() bool {
	return len(r.Failures) == 0
}

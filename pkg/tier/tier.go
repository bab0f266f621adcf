package tier

import "fmt"

// Tier ranks model quality and cost. Fallback is the cheapest tier,
// activated under budget pressure.
type Tier string

const (
	// TierPremium is the highest quality, highest cost tier.
	TierPremium Tier = "premium"

	// TierStandard is the mid quality tier, used when spend approaches the cap.
	TierStandard Tier = "standard"

	// TierFallback is the cheapest tier, used when spend exceeds the cap.
	TierFallback Tier = "fallback"
)

// Tiers lists all tiers from most to least expensive.
var Tiers = []Tier{TierPremium, TierStandard, TierFallback}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierPremium, TierStandard, TierFallback:
		return true
	}
	return false
}

// String returns the tier name.
func (t Tier) String() string {
	return string(t)
}

// Parse converts a string into a Tier.
func Parse(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// CostMultiplier returns the relative cost weight of a tier, used for
// cost estimation independent of vendor pricing. Unknown tiers are
// treated as premium.
func (t Tier) CostMultiplier() int {
	switch t {
	case TierStandard:
		return 5
	case TierFallback:
		return 1
	default:
		return 10
	}
}

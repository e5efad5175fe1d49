package domain

import dErrors "trustgate/pkg/domain-errors"

// Tier identifies a purchasable capability. The three placement tiers form a
// containment chain (elite ⊇ premium ⊇ featured); the verified badge sits
// outside the chain and never grants or inherits placement.
type Tier string

// Supported tiers.
const (
	TierFeatured      Tier = "featured"
	TierPremium       Tier = "premium"
	TierElite         Tier = "elite"
	TierVerifiedBadge Tier = "verified_badge"
)

// placementRank orders the placement tiers for containment checks. Higher
// rank grants every lower rank while active.
var placementRank = map[Tier]int{
	TierFeatured: 1,
	TierPremium:  2,
	TierElite:    3,
}

// ParseTier constructs a Tier from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseTier(s string) (Tier, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tier cannot be empty")
	}
	t := Tier(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tier")
	}
	return t, nil
}

// IsValid checks if the tier is one of the supported enum values.
func (t Tier) IsValid() bool {
	_, placement := placementRank[t]
	return placement || t == TierVerifiedBadge
}

// IsPlacement reports whether the tier participates in the containment chain.
func (t Tier) IsPlacement() bool {
	_, ok := placementRank[t]
	return ok
}

// Grants reports whether holding this tier grants the given capability.
// A tier always grants itself; a placement tier additionally grants every
// lower placement tier.
func (t Tier) Grants(capability Tier) bool {
	if t == capability {
		return true
	}
	tr, ok := placementRank[t]
	cr, capOK := placementRank[capability]
	return ok && capOK && tr >= cr
}

// PlacementTiers returns the placement tiers in descending order
// (elite first). Resolvers and scorers iterate in this order.
func PlacementTiers() []Tier {
	return []Tier{TierElite, TierPremium, TierFeatured}
}

// AllTiers returns every supported tier.
func AllTiers() []Tier {
	return []Tier{TierElite, TierPremium, TierFeatured, TierVerifiedBadge}
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// Package catalog holds the immutable commercial configuration: per-tier
// pricing, duration, and ranking weight, plus per-actor-type verification
// profiles. It is built once at startup and injected everywhere; no component
// duplicates these tables inline.
package catalog

import (
	"time"

	id "trustgate/pkg/domain"
)

// TierTerms captures what a tier costs, how long it runs, and how heavily it
// weighs in ranking.
type TierTerms struct {
	AmountCents int64
	Duration    time.Duration
	Weight      int
}

// Profile describes how one actor type obtains a trust badge. Each type
// carries its own required-document set, price, subscription period, and
// auto-approval policy.
type Profile struct {
	ActorType          id.ActorType
	RequiredDocuments  []string
	AmountCents        int64
	SubscriptionPeriod time.Duration

	// AutoApproveConfidence is the minimum AI confidence (0-100) at which an
	// approved verdict skips admin review. Zero means the type always goes to
	// an admin regardless of the verdict.
	AutoApproveConfidence int
}

// Catalog is the read-only configuration map. Accessors copy values out so
// callers cannot mutate shared state.
type Catalog struct {
	terms    map[id.Tier]TierTerms
	profiles map[id.ActorType]Profile

	aiEnhancedBonus int
	specSheetBonus  int
}

const day = 24 * time.Hour

// Default returns the production catalog.
func Default() *Catalog {
	return &Catalog{
		terms: map[id.Tier]TierTerms{
			id.TierFeatured:      {AmountCents: 999, Duration: 30 * day, Weight: 100},
			id.TierPremium:       {AmountCents: 2499, Duration: 30 * day, Weight: 250},
			id.TierElite:         {AmountCents: 4999, Duration: 30 * day, Weight: 500},
			id.TierVerifiedBadge: {AmountCents: 1999, Duration: 365 * day, Weight: 0},
		},
		profiles: map[id.ActorType]Profile{
			id.ActorTypeBuyer: {
				ActorType:             id.ActorTypeBuyer,
				RequiredDocuments:     []string{"government_id"},
				AmountCents:           1999,
				SubscriptionPeriod:    365 * day,
				AutoApproveConfidence: 85,
			},
			id.ActorTypeSeller: {
				ActorType:             id.ActorTypeSeller,
				RequiredDocuments:     []string{"government_id", "business_license"},
				AmountCents:           4999,
				SubscriptionPeriod:    365 * day,
				AutoApproveConfidence: 90,
			},
			id.ActorTypeContractor: {
				ActorType:          id.ActorTypeContractor,
				RequiredDocuments:  []string{"government_id", "trade_certificate", "insurance_certificate"},
				AmountCents:        7999,
				SubscriptionPeriod: 365 * day,
				// Contractors always get a human look.
				AutoApproveConfidence: 0,
			},
		},
		aiEnhancedBonus: 10,
		specSheetBonus:  5,
	}
}

// Terms returns the commercial terms for a tier.
func (c *Catalog) Terms(t id.Tier) (TierTerms, bool) {
	terms, ok := c.terms[t]
	return terms, ok
}

// Weight returns the ranking weight for a tier, zero when unknown.
func (c *Catalog) Weight(t id.Tier) int {
	return c.terms[t].Weight
}

// Duration returns the entitlement duration for a tier, zero when unknown.
func (c *Catalog) Duration(t id.Tier) time.Duration {
	return c.terms[t].Duration
}

// Profile returns the verification profile for an actor type.
func (c *Catalog) Profile(t id.ActorType) (Profile, bool) {
	p, ok := c.profiles[t]
	if !ok {
		return Profile{}, false
	}
	docs := make([]string, len(p.RequiredDocuments))
	copy(docs, p.RequiredDocuments)
	p.RequiredDocuments = docs
	return p, true
}

// AIEnhancedBonus is the flat ranking bonus for AI-enhanced listings.
func (c *Catalog) AIEnhancedBonus() int { return c.aiEnhancedBonus }

// SpecSheetBonus is the flat ranking bonus for listings with a spec sheet.
func (c *Catalog) SpecSheetBonus() int { return c.specSheetBonus }

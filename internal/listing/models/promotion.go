package models

import (
	"time"

	id "trustgate/pkg/domain"
)

// CapabilityState is one materialized flag on the read model: whether the
// capability is live and when it lapses (nil for non-expiring grants).
type CapabilityState struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Promotion is the listing/profile read model consumed by search ranking and
// the UI. The capability fields are a materialized view over the entitlement
// ledger: the Cascade Resolver is their only writer. Enhancement booleans are
// owned by the listing service and only read here.
type Promotion struct {
	TargetID      id.TargetID
	Featured      CapabilityState
	Premium       CapabilityState
	Elite         CapabilityState
	VerifiedBadge CapabilityState
	AIEnhanced    bool
	SpecSheet     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// State returns the capability state for a tier.
func (p *Promotion) State(t id.Tier) CapabilityState {
	switch t {
	case id.TierFeatured:
		return p.Featured
	case id.TierPremium:
		return p.Premium
	case id.TierElite:
		return p.Elite
	case id.TierVerifiedBadge:
		return p.VerifiedBadge
	}
	return CapabilityState{}
}

// SetState replaces the capability state for a tier.
func (p *Promotion) SetState(t id.Tier, s CapabilityState) {
	switch t {
	case id.TierFeatured:
		p.Featured = s
	case id.TierPremium:
		p.Premium = s
	case id.TierElite:
		p.Elite = s
	case id.TierVerifiedBadge:
		p.VerifiedBadge = s
	}
}

// ActiveAt reports whether the capability is live at the given instant,
// honoring the materialized expiry even before a sweep has run.
func (s CapabilityState) ActiveAt(now time.Time) bool {
	if !s.Active {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

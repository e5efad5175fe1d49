package handler

import (
	"time"

	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
)

// EnhancementsRequest is the body for PUT /listings/{listingID}/enhancements.
type EnhancementsRequest struct {
	AIEnhanced bool `json:"aiEnhanced"`
	SpecSheet  bool `json:"specSheet"`
}

// Validate implements httputil.Validatable. Both fields are plain booleans;
// there is nothing to reject.
func (r *EnhancementsRequest) Validate() error { return nil }

// CapabilityView is one flag as the caller sees it right now.
type CapabilityView struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// PromotionResponse is the HTTP view of a listing's promotion state.
type PromotionResponse struct {
	TargetID      string         `json:"targetId"`
	Featured      CapabilityView `json:"featured"`
	Premium       CapabilityView `json:"premium"`
	Elite         CapabilityView `json:"elite"`
	VerifiedBadge CapabilityView `json:"verifiedBadge"`
	AIEnhanced    bool           `json:"aiEnhanced"`
	SpecSheet     bool           `json:"specSheet"`
	Score         int            `json:"score"`
}

// fromPromotion renders the flags with the expiry applied, so a lapsed flag
// reads inactive even before the sweeper has flipped the ledger.
func fromPromotion(p *models.Promotion, score int, now time.Time) PromotionResponse {
	view := func(t id.Tier) CapabilityView {
		state := p.State(t)
		return CapabilityView{Active: state.ActiveAt(now), ExpiresAt: state.ExpiresAt}
	}
	return PromotionResponse{
		TargetID:      p.TargetID.String(),
		Featured:      view(id.TierFeatured),
		Premium:       view(id.TierPremium),
		Elite:         view(id.TierElite),
		VerifiedBadge: view(id.TierVerifiedBadge),
		AIEnhanced:    p.AIEnhanced,
		SpecSheet:     p.SpecSheet,
		Score:         score,
	}
}

package models

import (
	"time"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// PurchaseStatus tracks an entitlement purchase through its lifecycle.
type PurchaseStatus string

const (
	StatusPending   PurchaseStatus = "pending"
	StatusActive    PurchaseStatus = "active"
	StatusExpired   PurchaseStatus = "expired"
	StatusCancelled PurchaseStatus = "cancelled"
	StatusRefunded  PurchaseStatus = "refunded"
)

// EntitlementPurchase is one paid capability grant in the ledger: a tier,
// bought by an owner, attached to a target (listing or profile), bounded in
// time once active.
type EntitlementPurchase struct {
	ID          id.PurchaseID
	OwnerID     id.ActorID
	TargetID    id.TargetID
	Tier        id.Tier
	AmountCents int64
	Status      PurchaseStatus
	StartedAt   time.Time
	// ExpiresAt is nil for non-expiring grants. Once set it is never
	// recomputed; duplicate activation events must not extend a purchase.
	ExpiresAt  *time.Time
	PaymentRef string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPurchase creates a pending purchase awaiting payment confirmation.
func NewPurchase(purchaseID id.PurchaseID, owner id.ActorID, target id.TargetID, tier id.Tier, amountCents int64, now time.Time) *EntitlementPurchase {
	return &EntitlementPurchase{
		ID:          purchaseID,
		OwnerID:     owner,
		TargetID:    target,
		Tier:        tier,
		AmountCents: amountCents,
		Status:      StatusPending,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Activate moves a pending purchase to active and stamps the payment
// reference. The expiry is computed exactly once from the tier duration;
// re-activating an already-active purchase is a no-op so duplicate payment
// confirmations cannot double-extend it.
func (p *EntitlementPurchase) Activate(now time.Time, duration time.Duration, paymentRef string) error {
	if p.Status == StatusActive {
		return nil
	}
	if p.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "purchase is not pending")
	}
	p.Status = StatusActive
	p.StartedAt = now
	if p.ExpiresAt == nil && duration > 0 {
		expiry := now.Add(duration)
		p.ExpiresAt = &expiry
	}
	if paymentRef != "" {
		p.PaymentRef = paymentRef
	}
	p.UpdatedAt = now
	return nil
}

// Expire marks an active purchase expired. Only the sweeper calls this.
func (p *EntitlementPurchase) Expire(now time.Time) error {
	if p.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only active purchases expire")
	}
	p.Status = StatusExpired
	p.UpdatedAt = now
	return nil
}

// Cancel marks the purchase cancelled or refunded by explicit admin or
// payment-provider action.
func (p *EntitlementPurchase) Cancel(now time.Time, refunded bool) error {
	switch p.Status {
	case StatusActive, StatusPending:
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "purchase is not cancellable")
	}
	if refunded {
		p.Status = StatusRefunded
	} else {
		p.Status = StatusCancelled
	}
	p.UpdatedAt = now
	return nil
}

// GrantsAt reports whether this purchase grants the capability at the given
// instant: it must be active, unexpired, and its tier must cover the
// capability directly or through containment.
func (p *EntitlementPurchase) GrantsAt(capability id.Tier, now time.Time) bool {
	if p.Status != StatusActive {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	return p.Tier.Grants(capability)
}

// DueAt reports whether the sweeper should expire this purchase.
func (p *EntitlementPurchase) DueAt(now time.Time) bool {
	return p.Status == StatusActive && p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

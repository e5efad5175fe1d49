package handler

import (
	"time"

	"trustgate/internal/entitlement/models"
	"trustgate/internal/payment"
)

// PurchaseResponse is the HTTP view of a ledger entry.
type PurchaseResponse struct {
	PurchaseID  string     `json:"purchaseId"`
	TargetID    string     `json:"targetId"`
	Tier        string     `json:"tier"`
	AmountCents int64      `json:"amountCents"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"startedAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CheckoutURL string     `json:"checkoutUrl,omitempty"`
}

func fromPurchase(p *models.EntitlementPurchase, session *payment.Session) PurchaseResponse {
	resp := PurchaseResponse{
		PurchaseID:  p.ID.String(),
		TargetID:    p.TargetID.String(),
		Tier:        p.Tier.String(),
		AmountCents: p.AmountCents,
		Status:      string(p.Status),
		StartedAt:   p.StartedAt,
		ExpiresAt:   p.ExpiresAt,
	}
	if session != nil {
		resp.CheckoutURL = session.CheckoutURL
	}
	return resp
}

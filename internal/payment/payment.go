// Package payment integrates the external checkout provider: creating
// checkout sessions, and turning provider confirmations (webhook or Kafka)
// into exactly-once activations on the ledger and verification cases.
package payment

import (
	"encoding/json"
	"time"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// SessionKind says what a checkout session pays for.
type SessionKind string

const (
	// KindCase pays the verification fee for an approved case.
	KindCase SessionKind = "case"
	// KindPurchase pays for a promotion tier purchase.
	KindPurchase SessionKind = "purchase"
)

// SessionRequest describes the checkout session to open with the provider.
// ReferenceID is the case or purchase ID the confirmation must come back with.
type SessionRequest struct {
	Kind        SessionKind   `json:"kind"`
	ReferenceID string        `json:"reference_id"`
	ActorID     id.ActorID    `json:"actor_id"`
	Tier        id.Tier       `json:"tier,omitempty"`
	AmountCents int64         `json:"amount_cents"`
	Recurring   bool          `json:"recurring"`
	Period      time.Duration `json:"-"`
}

// Session is the provider's handle on an open checkout.
type Session struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Confirmation is the provider's settlement event for a session.
type Confirmation struct {
	EventID     string      `json:"event_id"`
	Kind        SessionKind `json:"kind"`
	ReferenceID string      `json:"reference_id"`
	PaymentRef  string      `json:"payment_ref"`
	Status      string      `json:"status"`
	AmountCents int64       `json:"amount_cents"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

const (
	ConfirmationSucceeded = "succeeded"
	ConfirmationFailed    = "failed"
)

// ParseConfirmation decodes and validates a raw confirmation payload.
func ParseConfirmation(raw []byte) (*Confirmation, error) {
	var c Confirmation
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed payment confirmation")
	}
	if c.EventID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "confirmation missing event_id")
	}
	if c.Kind != KindCase && c.Kind != KindPurchase {
		return nil, dErrors.New(dErrors.CodeValidation, "confirmation has unknown kind")
	}
	if c.ReferenceID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "confirmation missing reference_id")
	}
	if c.Status != ConfirmationSucceeded && c.Status != ConfirmationFailed {
		return nil, dErrors.New(dErrors.CodeValidation, "confirmation has unknown status")
	}
	return &c, nil
}

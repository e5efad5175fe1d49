// Package models holds the verification case aggregate: one actor's journey
// from document submission through AI screening, admin review, payment, and
// an eventually expiring or revoked badge.
package models

import (
	"time"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// CaseStatus tracks a verification case through its lifecycle.
type CaseStatus string

const (
	StatusSubmitted      CaseStatus = "submitted"
	StatusAIReview       CaseStatus = "ai_review"
	StatusPendingAdmin   CaseStatus = "pending_admin"
	StatusPendingPayment CaseStatus = "pending_payment"
	StatusRejected       CaseStatus = "rejected"
	StatusActive         CaseStatus = "active"
	StatusExpired        CaseStatus = "expired"
	StatusRevoked        CaseStatus = "revoked"
)

// AI verdicts as returned by the document-analysis service.
const (
	VerdictApproved    = "approved"
	VerdictRejected    = "rejected"
	VerdictNeedsReview = "needs_review"
)

// Admin decisions.
const (
	DecisionApprove   = "approve"
	DecisionReject    = "reject"
	DecisionRevoke    = "revoke"
	DecisionReinstate = "reinstate"
)

// Document is one uploaded piece of evidence.
type Document struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// AIReview is the screening result from the document-analysis service.
type AIReview struct {
	Verdict    string    `json:"verdict"`
	Confidence int       `json:"confidence"`
	Notes      string    `json:"notes,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// AdminReview is a human reviewer's decision on the case.
type AdminReview struct {
	ReviewerID string    `json:"reviewerId"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	ReviewedAt time.Time `json:"reviewedAt"`
}

// StatusChange is one entry in the case's append-only history.
type StatusChange struct {
	From   CaseStatus `json:"from"`
	To     CaseStatus `json:"to"`
	At     time.Time  `json:"at"`
	Reason string     `json:"reason,omitempty"`
}

// VerificationCase is the aggregate. One actor holds at most one open case;
// a rejected case is reused on resubmission rather than replaced.
type VerificationCase struct {
	ID        id.CaseID
	ActorID   id.ActorID
	ActorType id.ActorType
	Status    CaseStatus
	Documents []Document
	AIReview  *AIReview
	// AdminReview holds the most recent human decision.
	AdminReview *AdminReview
	History     []StatusChange
	PaymentRef  string
	ActivatedAt *time.Time
	// ExpiresAt is computed once on first activation and never recomputed.
	ExpiresAt *time.Time
	// Version guards optimistic concurrency in the store.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// transitions is the full lifecycle: anything absent here is rejected.
var transitions = map[CaseStatus][]CaseStatus{
	StatusSubmitted:      {StatusAIReview},
	StatusAIReview:       {StatusPendingAdmin, StatusPendingPayment, StatusRejected},
	StatusPendingAdmin:   {StatusPendingPayment, StatusRejected},
	StatusPendingPayment: {StatusActive},
	StatusRejected:       {StatusSubmitted},
	StatusActive:         {StatusExpired, StatusRevoked},
	StatusRevoked:        {StatusPendingPayment},
	StatusExpired:        {},
}

// Terminal reports whether the status admits no further transitions other
// than through an explicit admin reinstatement.
func (s CaseStatus) Terminal() bool {
	return s == StatusExpired || s == StatusRevoked
}

func NewCase(caseID id.CaseID, actor id.ActorID, actorType id.ActorType, docs []Document, now time.Time) *VerificationCase {
	return &VerificationCase{
		ID:        caseID,
		ActorID:   actor,
		ActorType: actorType,
		Status:    StatusSubmitted,
		Documents: docs,
		History:   []StatusChange{{To: StatusSubmitted, At: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *VerificationCase) transition(to CaseStatus, now time.Time, reason string) error {
	for _, allowed := range transitions[c.Status] {
		if allowed == to {
			c.History = append(c.History, StatusChange{From: c.Status, To: to, At: now, Reason: reason})
			c.Status = to
			c.UpdatedAt = now
			return nil
		}
	}
	return dErrors.New(dErrors.CodeInvariantViolation,
		"case cannot move from "+string(c.Status)+" to "+string(to))
}

// StartAIReview marks the case as handed to the document-analysis service.
func (c *VerificationCase) StartAIReview(now time.Time) error {
	return c.transition(StatusAIReview, now, "")
}

// RecordAIVerdict settles the AI screening. Approved verdicts at or above the
// auto-approve threshold go straight to payment; everything else either lands
// on an admin's desk or is rejected outright.
func (c *VerificationCase) RecordAIVerdict(review AIReview, autoApproveConfidence int, now time.Time) error {
	review.ReviewedAt = now
	c.AIReview = &review

	switch review.Verdict {
	case VerdictApproved:
		if autoApproveConfidence > 0 && review.Confidence >= autoApproveConfidence {
			return c.transition(StatusPendingPayment, now, "ai auto-approved")
		}
		return c.transition(StatusPendingAdmin, now, "confidence below auto-approve threshold")
	case VerdictRejected:
		return c.transition(StatusRejected, now, review.Notes)
	case VerdictNeedsReview:
		return c.transition(StatusPendingAdmin, now, review.Notes)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown ai verdict")
	}
}

// ApproveByAdmin moves a case under admin review to payment.
func (c *VerificationCase) ApproveByAdmin(reviewerID, reason string, now time.Time) error {
	if err := c.transition(StatusPendingPayment, now, reason); err != nil {
		return err
	}
	c.AdminReview = &AdminReview{ReviewerID: reviewerID, Decision: DecisionApprove, Reason: reason, ReviewedAt: now}
	return nil
}

// RejectByAdmin closes the case against the actor. They may resubmit.
func (c *VerificationCase) RejectByAdmin(reviewerID, reason string, now time.Time) error {
	if err := c.transition(StatusRejected, now, reason); err != nil {
		return err
	}
	c.AdminReview = &AdminReview{ReviewerID: reviewerID, Decision: DecisionReject, Reason: reason, ReviewedAt: now}
	return nil
}

// Resubmit reopens a rejected case with a fresh document set. Prior reviews
// are cleared; the history keeps the full trail.
func (c *VerificationCase) Resubmit(docs []Document, now time.Time) error {
	if err := c.transition(StatusSubmitted, now, "resubmitted"); err != nil {
		return err
	}
	c.Documents = docs
	c.AIReview = nil
	c.AdminReview = nil
	return nil
}

// Activate flips a paid case to active. The badge period is computed exactly
// once; a replayed payment confirmation on an already-active case is a no-op.
func (c *VerificationCase) Activate(now time.Time, period time.Duration, paymentRef string) error {
	if c.Status == StatusActive {
		return nil
	}
	if err := c.transition(StatusActive, now, ""); err != nil {
		return err
	}
	started := now
	c.ActivatedAt = &started
	if c.ExpiresAt == nil && period > 0 {
		expiry := now.Add(period)
		c.ExpiresAt = &expiry
	}
	if paymentRef != "" {
		c.PaymentRef = paymentRef
	}
	return nil
}

// Expire lapses an active badge at the end of its subscription period.
func (c *VerificationCase) Expire(now time.Time) error {
	return c.transition(StatusExpired, now, "subscription lapsed")
}

// Revoke withdraws an active badge by admin action.
func (c *VerificationCase) Revoke(reviewerID, reason string, now time.Time) error {
	if err := c.transition(StatusRevoked, now, reason); err != nil {
		return err
	}
	c.AdminReview = &AdminReview{ReviewerID: reviewerID, Decision: DecisionRevoke, Reason: reason, ReviewedAt: now}
	return nil
}

// Reinstate sends a revoked case back through payment. The previous badge
// period is not resurrected; activation computes a fresh one.
func (c *VerificationCase) Reinstate(reviewerID, reason string, now time.Time) error {
	if err := c.transition(StatusPendingPayment, now, reason); err != nil {
		return err
	}
	c.AdminReview = &AdminReview{ReviewerID: reviewerID, Decision: DecisionReinstate, Reason: reason, ReviewedAt: now}
	c.ActivatedAt = nil
	c.ExpiresAt = nil
	c.PaymentRef = ""
	return nil
}

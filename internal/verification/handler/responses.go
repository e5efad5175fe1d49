package handler

import (
	"time"

	"trustgate/internal/payment"
	"trustgate/internal/verification/models"
	vsvc "trustgate/internal/verification/service"
)

// CaseResponse is the actor-facing view of a verification case. Screening
// internals stay hidden; the actor sees status, timing, and any rejection
// reason.
type CaseResponse struct {
	CaseID      string     `json:"caseId"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submittedAt"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	CheckoutURL string     `json:"checkoutUrl,omitempty"`
}

func fromCase(c *models.VerificationCase, session *payment.Session) CaseResponse {
	resp := CaseResponse{
		CaseID:      c.ID.String(),
		Status:      publicStatus(c.Status),
		SubmittedAt: c.CreatedAt,
		ActivatedAt: c.ActivatedAt,
		ExpiresAt:   c.ExpiresAt,
	}
	if c.Status == models.StatusRejected && c.AdminReview != nil {
		resp.Reason = c.AdminReview.Reason
	} else if c.Status == models.StatusRejected && c.AIReview != nil {
		resp.Reason = c.AIReview.Notes
	}
	if session != nil {
		resp.CheckoutURL = session.CheckoutURL
	}
	return resp
}

// publicStatus folds the internal screening states into what the actor is
// told: anything between submission and a decision is simply under review.
func publicStatus(s models.CaseStatus) string {
	switch s {
	case models.StatusSubmitted, models.StatusAIReview, models.StatusPendingAdmin:
		return "under_review"
	default:
		return string(s)
	}
}

func fromSubmitResult(r *vsvc.SubmitResult) CaseResponse {
	return fromCase(r.Case, r.Session)
}

// AdminCaseResponse is the reviewer's view, including screening output and
// the full status history.
type AdminCaseResponse struct {
	CaseID      string                `json:"caseId"`
	ActorID     string                `json:"actorId"`
	ActorType   string                `json:"actorType"`
	Status      string                `json:"status"`
	Documents   []models.Document     `json:"documents"`
	AIReview    *models.AIReview      `json:"aiReview,omitempty"`
	AdminReview *models.AdminReview   `json:"adminReview,omitempty"`
	History     []models.StatusChange `json:"history"`
	ExpiresAt   *time.Time            `json:"expiresAt,omitempty"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

func fromCaseAdmin(c *models.VerificationCase) AdminCaseResponse {
	return AdminCaseResponse{
		CaseID:      c.ID.String(),
		ActorID:     c.ActorID.String(),
		ActorType:   c.ActorType.String(),
		Status:      string(c.Status),
		Documents:   c.Documents,
		AIReview:    c.AIReview,
		AdminReview: c.AdminReview,
		History:     c.History,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func fromCasesAdmin(cases []*models.VerificationCase) []AdminCaseResponse {
	out := make([]AdminCaseResponse, len(cases))
	for i, c := range cases {
		out[i] = fromCaseAdmin(c)
	}
	return out
}

// DecisionResponse is returned from the admin decision endpoint.
type DecisionResponse struct {
	Case        AdminCaseResponse `json:"case"`
	CheckoutURL string            `json:"checkoutUrl,omitempty"`
}

func fromDecideResult(r *vsvc.DecideResult) DecisionResponse {
	resp := DecisionResponse{Case: fromCaseAdmin(r.Case)}
	if r.Session != nil {
		resp.CheckoutURL = r.Session.CheckoutURL
	}
	return resp
}

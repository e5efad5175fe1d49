package handler

import (
	"strings"
	"time"

	"trustgate/internal/verification/models"
	dErrors "trustgate/pkg/domain-errors"
)

const maxDocuments = 10

// SubmitRequest is the HTTP request body for POST /verification.
type SubmitRequest struct {
	Documents []DocumentInput `json:"documents"`
}

// DocumentInput is one uploaded document reference.
type DocumentInput struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
}

// Validate implements httputil.Validatable.
func (r *SubmitRequest) Validate() error {
	if len(r.Documents) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one document is required")
	}
	if len(r.Documents) > maxDocuments {
		return dErrors.New(dErrors.CodeValidation, "too many documents")
	}
	for i := range r.Documents {
		r.Documents[i].Type = strings.TrimSpace(r.Documents[i].Type)
		r.Documents[i].Reference = strings.TrimSpace(r.Documents[i].Reference)
		if r.Documents[i].Type == "" {
			return dErrors.New(dErrors.CodeValidation, "document type is required")
		}
		if r.Documents[i].Reference == "" {
			return dErrors.New(dErrors.CodeValidation, "document reference is required")
		}
	}
	return nil
}

// ToDocuments converts the request payload into domain documents.
func (r *SubmitRequest) ToDocuments(now time.Time) []models.Document {
	docs := make([]models.Document, len(r.Documents))
	for i, d := range r.Documents {
		docs[i] = models.Document{Type: d.Type, Reference: d.Reference, UploadedAt: now}
	}
	return docs
}

// DecisionRequest is the body for POST /admin/verification/{caseID}/decision.
type DecisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// Validate implements httputil.Validatable.
func (r *DecisionRequest) Validate() error {
	r.Decision = strings.TrimSpace(r.Decision)
	r.Reason = strings.TrimSpace(r.Reason)

	switch r.Decision {
	case models.DecisionApprove, models.DecisionReinstate:
	case models.DecisionReject, models.DecisionRevoke:
		if r.Reason == "" {
			return dErrors.New(dErrors.CodeValidation, "reason is required for "+r.Decision)
		}
	case "":
		return dErrors.New(dErrors.CodeValidation, "decision is required")
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown decision")
	}
	return nil
}

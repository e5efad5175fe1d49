package handler

import (
	"strings"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// PurchaseRequest is the HTTP request body for POST /entitlements.
type PurchaseRequest struct {
	TargetID string `json:"targetId"`
	Tier     string `json:"tier"`

	parsedTarget id.TargetID
	parsedTier   id.Tier
}

// Validate implements httputil.Validatable.
func (r *PurchaseRequest) Validate() error {
	r.TargetID = strings.TrimSpace(r.TargetID)
	if r.TargetID == "" {
		return dErrors.New(dErrors.CodeValidation, "targetId is required")
	}
	target, err := id.ParseTargetID(r.TargetID)
	if err != nil {
		return err
	}
	r.parsedTarget = target

	tier, err := id.ParseTier(strings.TrimSpace(r.Tier))
	if err != nil {
		return err
	}
	r.parsedTier = tier
	return nil
}

// ParsedTarget returns the validated target ID.
func (r *PurchaseRequest) ParsedTarget() id.TargetID { return r.parsedTarget }

// ParsedTier returns the validated tier.
func (r *PurchaseRequest) ParsedTier() id.Tier { return r.parsedTier }

// CancelRequest is the body for POST /admin/entitlements/{purchaseID}/cancel.
type CancelRequest struct {
	Refund bool   `json:"refund"`
	Reason string `json:"reason"`
}

// Validate implements httputil.Validatable.
func (r *CancelRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

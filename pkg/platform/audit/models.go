package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// verification outcomes, paid activations, refunds.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// revocations, reinstatements, duplicate payment deliveries.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility: sweep runs, routine expirations. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// ActorID is the marketplace participant the event concerns.
	ActorID string
	// ReviewerID tracks who performed the action when different from ActorID
	// (admin decisions).
	ReviewerID string
	CaseID     string
	PurchaseID string
	TargetID   string
	Tier       string
	Action     string
	Decision   string
	Reason     string
	// RequestID is the correlation ID from HTTP request context.
	RequestID string
}

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID string) ([]Event, error)
}

type AuditEvent string

const (
	// Verification case events
	EventCaseSubmitted     AuditEvent = "case_submitted"
	EventCaseAIReviewed    AuditEvent = "case_ai_reviewed"
	EventCaseAdminApproved AuditEvent = "case_admin_approved"
	EventCaseAdminRejected AuditEvent = "case_admin_rejected"
	EventCaseRevoked       AuditEvent = "case_revoked"
	EventCaseReinstated    AuditEvent = "case_reinstated"
	EventCaseActivated     AuditEvent = "case_activated"
	EventCaseExpired       AuditEvent = "case_expired"

	// Entitlement ledger events
	EventPurchaseCreated   AuditEvent = "purchase_created"
	EventPurchaseActivated AuditEvent = "purchase_activated"
	EventPurchaseExpired   AuditEvent = "purchase_expired"
	EventPurchaseCancelled AuditEvent = "purchase_cancelled"
	EventPurchaseRefunded  AuditEvent = "purchase_refunded"

	// Payment gate events
	EventPaymentDuplicateIgnored AuditEvent = "payment_duplicate_ignored"

	// Sweep events
	EventSweepCompleted AuditEvent = "sweep_completed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	// Compliance events - require tamper-proof storage
	EventCaseSubmitted:     CategoryCompliance,
	EventCaseAdminApproved: CategoryCompliance,
	EventCaseAdminRejected: CategoryCompliance,
	EventCaseActivated:     CategoryCompliance,
	EventPurchaseActivated: CategoryCompliance,
	EventPurchaseCancelled: CategoryCompliance,
	EventPurchaseRefunded:  CategoryCompliance,

	// Security events - feed into alerting
	EventCaseRevoked:             CategorySecurity,
	EventCaseReinstated:          CategorySecurity,
	EventPaymentDuplicateIgnored: CategorySecurity,

	// Operations events - routine activity, can be sampled
	EventCaseAIReviewed:  CategoryOperations,
	EventCaseExpired:     CategoryOperations,
	EventPurchaseCreated: CategoryOperations,
	EventPurchaseExpired: CategoryOperations,
	EventSweepCompleted:  CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

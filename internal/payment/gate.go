package payment

import (
	"context"
	"log/slog"
	"time"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
)

// PurchaseActivator flips a pending purchase to active once its payment
// settles. Implemented by the entitlement service.
type PurchaseActivator interface {
	ActivateByPayment(ctx context.Context, purchaseID id.PurchaseID, paymentRef string, at time.Time) error
}

// CaseActivator flips an approved verification case to active once its
// payment settles. Implemented by the verification service.
type CaseActivator interface {
	ActivateOnPayment(ctx context.Context, caseID id.CaseID, paymentRef string, at time.Time) error
}

// AuditPublisher records payment-gate decisions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Gate is the single entry point for provider confirmations, regardless of
// whether they arrive over the webhook or the Kafka topic. It deduplicates by
// event ID and dispatches to the owning service; the guarded transitions in
// the stores make a dispatch that slips past the dedup harmless.
type Gate struct {
	dedup     Dedup
	purchases PurchaseActivator
	cases     CaseActivator
	audit     AuditPublisher
	logger    *slog.Logger
}

func NewGate(dedup Dedup, purchases PurchaseActivator, cases CaseActivator, auditPub AuditPublisher, logger *slog.Logger) *Gate {
	return &Gate{
		dedup:     dedup,
		purchases: purchases,
		cases:     cases,
		audit:     auditPub,
		logger:    logger,
	}
}

// HandleConfirmation processes one provider confirmation. The event is marked
// seen only after its work completed: a delivery that fails on a transient
// fault returns the error unmarked, so the provider's retry (or the Kafka
// redelivery) gets a full second attempt instead of a duplicate short-circuit.
func (g *Gate) HandleConfirmation(ctx context.Context, c *Confirmation) error {
	seen, err := g.dedup.Seen(ctx, c.EventID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment dedup unavailable")
	}
	if seen {
		g.logger.Info("duplicate payment confirmation ignored",
			"event_id", c.EventID, "payment_ref", c.PaymentRef)
		_ = g.audit.Emit(ctx, audit.Event{
			Action: string(audit.EventPaymentDuplicateIgnored),
			Reason: c.EventID,
		})
		return nil
	}

	if c.Status != ConfirmationSucceeded {
		g.logger.Warn("payment confirmation not successful, skipping activation",
			"event_id", c.EventID, "status", c.Status, "reference_id", c.ReferenceID)
		g.mark(ctx, c)
		return nil
	}

	if err := g.dispatch(ctx, c); err != nil {
		return err
	}
	g.mark(ctx, c)
	return nil
}

func (g *Gate) dispatch(ctx context.Context, c *Confirmation) error {
	at := c.OccurredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	switch c.Kind {
	case KindPurchase:
		purchaseID, err := id.ParsePurchaseID(c.ReferenceID)
		if err != nil {
			return err
		}
		return g.purchases.ActivateByPayment(ctx, purchaseID, c.PaymentRef, at)
	case KindCase:
		caseID, err := id.ParseCaseID(c.ReferenceID)
		if err != nil {
			return err
		}
		return g.cases.ActivateOnPayment(ctx, caseID, c.PaymentRef, at)
	default:
		return dErrors.New(dErrors.CodeValidation, "confirmation has unknown kind")
	}
}

// mark is best effort: the work is already done, and a marker that fails to
// stick only means a replay re-runs the guarded activation, which is a no-op.
func (g *Gate) mark(ctx context.Context, c *Confirmation) {
	if _, err := g.dedup.MarkOnce(ctx, c.EventID); err != nil {
		g.logger.Warn("recording payment event marker failed",
			"event_id", c.EventID, "error", err)
	}
}

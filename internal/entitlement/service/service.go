// Package service implements the entitlement ledger operations: selling
// promotion tiers, activating them on payment, and cancelling them. Every
// ledger mutation ends with a flag recompute so the read model never drifts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trustgate/internal/catalog"
	"trustgate/internal/entitlement/models"
	"trustgate/internal/payment"
	"trustgate/internal/platform/metrics"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/requestcontext"
)

// PurchaseStore is the ledger persistence contract the service needs.
type PurchaseStore interface {
	Create(ctx context.Context, p *models.EntitlementPurchase) error
	FindByID(ctx context.Context, purchaseID id.PurchaseID) (*models.EntitlementPurchase, error)
	FindByPaymentRef(ctx context.Context, ref string) (*models.EntitlementPurchase, error)
	Transition(ctx context.Context, p *models.EntitlementPurchase, from models.PurchaseStatus) error
}

// Recomputer rewrites the promotion flags for a target from the ledger.
type Recomputer interface {
	Recompute(ctx context.Context, target id.TargetID, now time.Time) error
}

// Sessions opens checkout sessions with the payment provider.
type Sessions interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

// AuditPublisher records ledger events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store    PurchaseStore
	resolver Recomputer
	sessions Sessions
	catalog  *catalog.Catalog
	audit    AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(store PurchaseStore, resolver Recomputer, sessions Sessions, cat *catalog.Catalog, auditPub AuditPublisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		sessions: sessions,
		catalog:  cat,
		audit:    auditPub,
		metrics:  m,
		logger:   logger,
	}
}

// Purchase opens a pending ledger entry for a promotion tier and a checkout
// session to pay for it. The entry only grants once the provider confirms.
func (s *Service) Purchase(ctx context.Context, ownerID id.ActorID, targetID id.TargetID, tier id.Tier) (*models.EntitlementPurchase, *payment.Session, error) {
	terms, ok := s.catalog.Terms(tier)
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "unknown promotion tier")
	}
	if tier == id.TierVerifiedBadge {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "verified badge is granted through verification, not purchased directly")
	}

	now := requestcontext.Now(ctx)
	p := models.NewPurchase(id.PurchaseID(uuid.New()), ownerID, targetID, tier, terms.AmountCents, now)

	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, nil, dErrors.New(dErrors.CodeConflict, "purchase already exists")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "create purchase")
	}

	session, err := s.sessions.CreateSession(ctx, payment.SessionRequest{
		Kind:        payment.KindPurchase,
		ReferenceID: p.ID.String(),
		ActorID:     ownerID,
		Tier:        tier,
		AmountCents: terms.AmountCents,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open checkout for purchase %s: %w", p.ID, err)
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Action:     string(audit.EventPurchaseCreated),
		ActorID:    ownerID.String(),
		PurchaseID: p.ID.String(),
		TargetID:   targetID.String(),
		Tier:       tier.String(),
		RequestID:  requestcontext.RequestID(ctx),
	})
	s.logger.Info("purchase created", "purchase_id", p.ID, "tier", tier, "target_id", targetID)
	return p, session, nil
}

// Get returns a purchase, restricted to its owner unless admin is set.
func (s *Service) Get(ctx context.Context, purchaseID id.PurchaseID, requester id.ActorID, admin bool) (*models.EntitlementPurchase, error) {
	p, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "purchase not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find purchase")
	}
	if !admin && p.OwnerID != requester {
		return nil, dErrors.New(dErrors.CodeForbidden, "purchase belongs to another actor")
	}
	return p, nil
}

// ActivateByPayment flips a pending purchase to active once its payment
// settles. Replayed confirmations for an already-active purchase are a no-op;
// the expiry set on first activation is never recomputed.
func (s *Service) ActivateByPayment(ctx context.Context, purchaseID id.PurchaseID, paymentRef string, at time.Time) error {
	p, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "purchase not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find purchase")
	}

	if p.Status == models.StatusActive {
		s.logger.Info("purchase already active, ignoring confirmation",
			"purchase_id", purchaseID, "payment_ref", paymentRef)
		return nil
	}

	if err := p.Activate(at, s.catalog.Duration(p.Tier), paymentRef); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConflict, "purchase cannot be activated")
	}

	if err := s.store.Transition(ctx, p, models.StatusPending); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// A concurrent confirmation won the race; success either way.
			current, findErr := s.store.FindByID(ctx, purchaseID)
			if findErr == nil && current.Status == models.StatusActive {
				return nil
			}
			return dErrors.New(dErrors.CodeConflict, "purchase state changed concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "activate purchase")
	}

	if err := s.resolver.Recompute(ctx, p.TargetID, at); err != nil {
		s.logger.Error("flag recompute failed after activation",
			"purchase_id", purchaseID, "target_id", p.TargetID, "error", err)
	}

	s.metrics.PurchasesActivated.Inc()
	_ = s.audit.Emit(ctx, audit.Event{
		Action:     string(audit.EventPurchaseActivated),
		ActorID:    p.OwnerID.String(),
		PurchaseID: p.ID.String(),
		TargetID:   p.TargetID.String(),
		Tier:       p.Tier.String(),
	})
	s.logger.Info("purchase activated", "purchase_id", purchaseID, "tier", p.Tier, "expires_at", p.ExpiresAt)
	return nil
}

// RecordBadgeSubscription writes an already-paid verified-badge entry to the
// ledger when a verification case activates. The entry targets the actor's
// profile so the resolver surfaces the badge there.
func (s *Service) RecordBadgeSubscription(ctx context.Context, ownerID id.ActorID, paymentRef string, period time.Duration, at time.Time) error {
	if existing, err := s.store.FindByPaymentRef(ctx, paymentRef); err == nil && existing.Status == models.StatusActive {
		return nil
	}

	terms, _ := s.catalog.Terms(id.TierVerifiedBadge)
	target := id.ProfileTarget(ownerID)

	p := models.NewPurchase(id.PurchaseID(uuid.New()), ownerID, target, id.TierVerifiedBadge, terms.AmountCents, at)
	if err := p.Activate(at, period, paymentRef); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "activate badge subscription")
	}
	if err := s.store.Create(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "record badge subscription")
	}

	if err := s.resolver.Recompute(ctx, target, at); err != nil {
		s.logger.Error("flag recompute failed after badge grant",
			"owner_id", ownerID, "error", err)
	}

	s.metrics.PurchasesActivated.Inc()
	_ = s.audit.Emit(ctx, audit.Event{
		Action:     string(audit.EventPurchaseActivated),
		ActorID:    ownerID.String(),
		PurchaseID: p.ID.String(),
		TargetID:   target.String(),
		Tier:       id.TierVerifiedBadge.String(),
	})
	return nil
}

// CancelByPaymentRef cancels whatever ledger entry the payment reference
// points at. Used when a verification badge is revoked.
func (s *Service) CancelByPaymentRef(ctx context.Context, paymentRef string, refunded bool, at time.Time) error {
	p, err := s.store.FindByPaymentRef(ctx, paymentRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no purchase for payment reference")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find purchase by payment ref")
	}
	return s.cancel(ctx, p, refunded, "", at)
}

// Cancel is the admin cancellation path for a specific purchase.
func (s *Service) Cancel(ctx context.Context, purchaseID id.PurchaseID, refunded bool, reason string) error {
	p, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "purchase not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find purchase")
	}
	return s.cancel(ctx, p, refunded, reason, requestcontext.Now(ctx))
}

func (s *Service) cancel(ctx context.Context, p *models.EntitlementPurchase, refunded bool, reason string, at time.Time) error {
	from := p.Status
	if err := p.Cancel(at, refunded); err != nil {
		return dErrors.Wrap(err, dErrors.CodeConflict, "purchase cannot be cancelled")
	}
	if err := s.store.Transition(ctx, p, from); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeConflict, "purchase state changed concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "cancel purchase")
	}

	if err := s.resolver.Recompute(ctx, p.TargetID, at); err != nil {
		s.logger.Error("flag recompute failed after cancellation",
			"purchase_id", p.ID, "target_id", p.TargetID, "error", err)
	}

	action := audit.EventPurchaseCancelled
	if refunded {
		action = audit.EventPurchaseRefunded
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Action:     string(action),
		ActorID:    p.OwnerID.String(),
		ReviewerID: reviewerID(ctx),
		PurchaseID: p.ID.String(),
		TargetID:   p.TargetID.String(),
		Tier:       p.Tier.String(),
		Reason:     reason,
		RequestID:  requestcontext.RequestID(ctx),
	})
	s.logger.Info("purchase cancelled", "purchase_id", p.ID, "refunded", refunded)
	return nil
}

func reviewerID(ctx context.Context) string {
	actor := requestcontext.ActorID(ctx)
	if actor.IsNil() {
		return ""
	}
	return actor.String()
}

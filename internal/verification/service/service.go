// Package service implements the verification case operations: submission
// with AI screening, admin decisions, payment-driven activation, and badge
// expiry or revocation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustgate/internal/catalog"
	"trustgate/internal/payment"
	"trustgate/internal/platform/metrics"
	"trustgate/internal/verification/aireview"
	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/circuit"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// CaseStore is the persistence contract for verification cases.
type CaseStore interface {
	Create(ctx context.Context, c *models.VerificationCase) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.VerificationCase, error)
	FindOpenByActor(ctx context.Context, actor id.ActorID, actorType id.ActorType) (*models.VerificationCase, error)
	FindActiveByPaymentRef(ctx context.Context, paymentRef string) (*models.VerificationCase, error)
	ListByStatus(ctx context.Context, status models.CaseStatus, limit int) ([]*models.VerificationCase, error)
	Update(ctx context.Context, c *models.VerificationCase) error
}

// AIClient screens a document set.
type AIClient interface {
	Analyze(ctx context.Context, actorType id.ActorType, docs []models.Document) (*aireview.Result, error)
}

// Payments opens checkout sessions and cancels subscriptions.
type Payments interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
	CancelSubscription(ctx context.Context, paymentRef string) error
}

// BadgeLedger is the slice of the entitlement service that records and
// cancels verified-badge subscriptions.
type BadgeLedger interface {
	RecordBadgeSubscription(ctx context.Context, owner id.ActorID, paymentRef string, period time.Duration, at time.Time) error
	CancelByPaymentRef(ctx context.Context, paymentRef string, refunded bool, at time.Time) error
}

// AuditPublisher records verification events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// screenProbeInterval is how often an open screening circuit lets one request
// through to test whether the analysis service has recovered.
const screenProbeInterval = 30 * time.Second

type Service struct {
	store    CaseStore
	ai       AIClient
	payments Payments
	ledger   BadgeLedger
	catalog  *catalog.Catalog
	audit    AuditPublisher
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger

	breaker   *circuit.Breaker
	probeMu   sync.Mutex
	lastProbe time.Time
}

func New(store CaseStore, ai AIClient, payments Payments, ledger BadgeLedger, cat *catalog.Catalog, auditPub AuditPublisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		ai:       ai,
		payments: payments,
		ledger:   ledger,
		catalog:  cat,
		audit:    auditPub,
		metrics:  m,
		tracer:   otel.Tracer("trustgate/verification/service"),
		logger:   logger,
		breaker:  circuit.New("ai-review"),
	}
}

// SubmitResult is what the actor gets back: the case, and a checkout session
// when the screening auto-approved them straight into payment.
type SubmitResult struct {
	Case    *models.VerificationCase
	Session *payment.Session
}

// Submit opens (or reopens) the actor's verification case and runs the AI
// screening. A screening failure never fails the submission: the case lands
// on the admin queue and the actor simply sees it under review.
func (s *Service) Submit(ctx context.Context, actorID id.ActorID, actorType id.ActorType, docs []models.Document) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Submit",
		trace.WithAttributes(attribute.String("actor_type", actorType.String())))
	defer span.End()

	profile, ok := s.catalog.Profile(actorType)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown actor type")
	}
	if err := validateDocuments(profile.RequiredDocuments, docs); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c, err := s.openCase(ctx, actorID, actorType, docs, now)
	if err != nil {
		return nil, err
	}

	s.metrics.CasesSubmitted.Inc()
	_ = s.audit.Emit(ctx, audit.Event{
		Action:    string(audit.EventCaseSubmitted),
		ActorID:   actorID.String(),
		CaseID:    c.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})

	if err := s.screen(ctx, c, profile, now); err != nil {
		return nil, err
	}

	result := &SubmitResult{Case: c}
	if c.Status == models.StatusPendingPayment {
		session, err := s.openCheckout(ctx, c, profile)
		if err != nil {
			// The case is approved and waiting; the actor can retry payment.
			s.logger.Error("checkout session failed after auto-approval",
				"case_id", c.ID, "error", err)
		} else {
			result.Session = session
		}
	}
	return result, nil
}

// openCase reuses a rejected case for resubmission, rejects submission when a
// case for this actor type is already in flight, and creates a fresh case
// otherwise. Cases for the actor's other types never collide here.
func (s *Service) openCase(ctx context.Context, actorID id.ActorID, actorType id.ActorType, docs []models.Document, now time.Time) (*models.VerificationCase, error) {
	existing, err := s.store.FindOpenByActor(ctx, actorID, actorType)
	switch {
	case err == nil:
		if existing.Status != models.StatusRejected {
			return nil, dErrors.New(dErrors.CodeConflict, "verification already in progress or active")
		}
		if err := existing.Resubmit(docs, now); err != nil {
			return nil, err
		}
		if err := s.store.Update(ctx, existing); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return nil, dErrors.New(dErrors.CodeConflict, "case changed concurrently, retry")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reopen case")
		}
		return existing, nil
	case errors.Is(err, sentinel.ErrNotFound):
		c := models.NewCase(id.CaseID(uuid.New()), actorID, actorType, docs, now)
		if err := s.store.Create(ctx, c); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create case")
		}
		return c, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find open case")
	}
}

// screen hands the documents to the analysis service and settles the verdict
// on the case. Any screening failure degrades to a needs_review verdict with
// zero confidence so a human picks it up.
func (s *Service) screen(ctx context.Context, c *models.VerificationCase, profile catalog.Profile, now time.Time) error {
	if err := c.StartAIReview(now); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist screening start")
	}

	review := models.AIReview{Verdict: models.VerdictNeedsReview, Confidence: 0}
	if !s.shouldCallScreening(now) {
		s.metrics.AIReviewFallbacks.Inc()
		review.Notes = "screening unavailable"
	} else if result, err := s.ai.Analyze(ctx, c.ActorType, c.Documents); err != nil {
		s.metrics.AIReviewFallbacks.Inc()
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.Error("screening circuit opened", "breaker", s.breaker.Name())
		}
		s.logger.Warn("document screening failed, routing to admin",
			"case_id", c.ID, "error", err)
		review.Notes = "screening unavailable"
	} else {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.Info("screening circuit closed", "breaker", s.breaker.Name())
		}
		review = models.AIReview{Verdict: result.Verdict, Confidence: result.Confidence, Notes: result.Notes}
	}

	if err := c.RecordAIVerdict(review, profile.AutoApproveConfidence, now); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist screening verdict")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Action:   string(audit.EventCaseAIReviewed),
		ActorID:  c.ActorID.String(),
		CaseID:   c.ID.String(),
		Decision: review.Verdict,
		Reason:   review.Notes,
	})
	return nil
}

// shouldCallScreening gates the analysis call on the circuit breaker. While
// open, one probe per interval is let through so recovery closes the circuit.
func (s *Service) shouldCallScreening(now time.Time) bool {
	if !s.breaker.IsOpen() {
		return true
	}
	s.probeMu.Lock()
	defer s.probeMu.Unlock()
	if now.Sub(s.lastProbe) >= screenProbeInterval {
		s.lastProbe = now
		return true
	}
	return false
}

func (s *Service) openCheckout(ctx context.Context, c *models.VerificationCase, profile catalog.Profile) (*payment.Session, error) {
	return s.payments.CreateSession(ctx, payment.SessionRequest{
		Kind:        payment.KindCase,
		ReferenceID: c.ID.String(),
		ActorID:     c.ActorID,
		AmountCents: profile.AmountCents,
		Recurring:   true,
		Period:      profile.SubscriptionPeriod,
	})
}

// Status returns the actor's current case in the role they are acting as.
func (s *Service) Status(ctx context.Context, actorID id.ActorID, actorType id.ActorType) (*models.VerificationCase, error) {
	c, err := s.store.FindOpenByActor(ctx, actorID, actorType)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find case")
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "no verification case")
}

// PendingAdmin returns the admin review queue, oldest first.
func (s *Service) PendingAdmin(ctx context.Context, limit int) ([]*models.VerificationCase, error) {
	if limit <= 0 {
		limit = 50
	}
	cases, err := s.store.ListByStatus(ctx, models.StatusPendingAdmin, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list pending cases")
	}
	return cases, nil
}

// DecideResult pairs the updated case with the checkout session opened for
// decisions that send the actor to payment.
type DecideResult struct {
	Case    *models.VerificationCase
	Session *payment.Session
}

// Decide applies an admin decision to a case.
func (s *Service) Decide(ctx context.Context, caseID id.CaseID, reviewerID, decision, reason string) (*DecideResult, error) {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find case")
	}

	now := requestcontext.Now(ctx)
	var action audit.AuditEvent
	paymentRef := c.PaymentRef

	switch decision {
	case models.DecisionApprove:
		if err := c.ApproveByAdmin(reviewerID, reason, now); err != nil {
			return nil, err
		}
		action = audit.EventCaseAdminApproved
	case models.DecisionReject:
		if err := c.RejectByAdmin(reviewerID, reason, now); err != nil {
			return nil, err
		}
		action = audit.EventCaseAdminRejected
	case models.DecisionRevoke:
		if err := c.Revoke(reviewerID, reason, now); err != nil {
			return nil, err
		}
		action = audit.EventCaseRevoked
	case models.DecisionReinstate:
		if err := c.Reinstate(reviewerID, reason, now); err != nil {
			return nil, err
		}
		action = audit.EventCaseReinstated
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "unknown decision")
	}

	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "case changed concurrently, retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persist decision")
	}

	if decision == models.DecisionRevoke {
		s.teardownBadge(ctx, c, paymentRef, now)
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Action:     string(action),
		ActorID:    c.ActorID.String(),
		ReviewerID: reviewerID,
		CaseID:     c.ID.String(),
		Decision:   decision,
		Reason:     reason,
		RequestID:  requestcontext.RequestID(ctx),
	})

	result := &DecideResult{Case: c}
	if c.Status == models.StatusPendingPayment {
		profile, ok := s.catalog.Profile(c.ActorType)
		if ok {
			session, err := s.openCheckout(ctx, c, profile)
			if err != nil {
				s.logger.Error("checkout session failed after decision",
					"case_id", c.ID, "decision", decision, "error", err)
			} else {
				result.Session = session
			}
		}
	}
	return result, nil
}

// teardownBadge unwinds the paid subscription behind a revoked badge. Both
// steps are best effort: the case is already revoked and the flags follow the
// ledger, so a provider hiccup costs a retry, not consistency.
func (s *Service) teardownBadge(ctx context.Context, c *models.VerificationCase, paymentRef string, now time.Time) {
	if paymentRef == "" {
		return
	}
	if err := s.payments.CancelSubscription(ctx, paymentRef); err != nil {
		s.logger.Error("cancel subscription failed", "case_id", c.ID, "error", err)
	}
	if err := s.ledger.CancelByPaymentRef(ctx, paymentRef, false, now); err != nil {
		s.logger.Error("cancel badge ledger entry failed", "case_id", c.ID, "error", err)
	}
}

// ActivateOnPayment flips a paid case to active and records the badge
// subscription on the ledger. Replayed confirmations are a no-op.
func (s *Service) ActivateOnPayment(ctx context.Context, caseID id.CaseID, paymentRef string, at time.Time) error {
	c, err := s.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find case")
	}

	if c.Status == models.StatusActive {
		s.logger.Info("case already active, ignoring confirmation",
			"case_id", caseID, "payment_ref", paymentRef)
		return nil
	}

	profile, ok := s.catalog.Profile(c.ActorType)
	if !ok {
		return dErrors.New(dErrors.CodeInternal, "case has unknown actor type")
	}

	if err := c.Activate(at, profile.SubscriptionPeriod, paymentRef); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			current, findErr := s.store.FindByID(ctx, caseID)
			if findErr == nil && current.Status == models.StatusActive {
				return nil
			}
			return dErrors.New(dErrors.CodeConflict, "case changed concurrently")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "activate case")
	}

	if err := s.ledger.RecordBadgeSubscription(ctx, c.ActorID, paymentRef, profile.SubscriptionPeriod, at); err != nil {
		s.logger.Error("record badge subscription failed",
			"case_id", caseID, "actor_id", c.ActorID, "error", err)
	}

	s.metrics.CasesActivated.Inc()
	_ = s.audit.Emit(ctx, audit.Event{
		Action:  string(audit.EventCaseActivated),
		ActorID: c.ActorID.String(),
		CaseID:  c.ID.String(),
	})
	s.logger.Info("verification case activated", "case_id", caseID, "expires_at", c.ExpiresAt)
	return nil
}

// ExpireActiveCase lapses the case funded by an expired badge subscription.
// The payment ref pins the exact case: an actor holding badges in two roles
// only loses the one whose subscription ran out. No match means nothing to do.
func (s *Service) ExpireActiveCase(ctx context.Context, owner id.ActorID, paymentRef string, at time.Time) error {
	c, err := s.store.FindActiveByPaymentRef(ctx, paymentRef)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "find active case")
	}

	if err := c.Expire(at); err != nil {
		return err
	}
	if err := s.store.Update(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "expire case")
	}

	_ = s.audit.Emit(ctx, audit.Event{
		Action:  string(audit.EventCaseExpired),
		ActorID: owner.String(),
		CaseID:  c.ID.String(),
	})
	return nil
}

func validateDocuments(required []string, docs []models.Document) error {
	provided := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d.Type == "" || d.Reference == "" {
			return dErrors.New(dErrors.CodeValidation, "document missing type or reference")
		}
		provided[d.Type] = true
	}
	for _, req := range required {
		if !provided[req] {
			return dErrors.New(dErrors.CodeValidation, "missing required document: "+req)
		}
	}
	return nil
}

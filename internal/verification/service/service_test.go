package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"trustgate/internal/catalog"
	"trustgate/internal/payment"
	"trustgate/internal/platform/metrics"
	"trustgate/internal/verification/aireview"
	"trustgate/internal/verification/models"
	"trustgate/internal/verification/service/mocks"
	"trustgate/internal/verification/store/vcase"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/audit/publisher"
	auditstore "trustgate/pkg/platform/audit/store/memory"
	"trustgate/pkg/requestcontext"
)

type VerificationServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *vcase.InMemory
	ai         *mocks.MockAIClient
	payments   *mocks.MockPayments
	ledger     *mocks.MockBadgeLedger
	auditStore *auditstore.InMemoryStore
	svc        *Service
	ctx        context.Context
	now        time.Time
}

func (s *VerificationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = vcase.NewInMemory()
	s.ai = mocks.NewMockAIClient(s.ctrl)
	s.payments = mocks.NewMockPayments(s.ctrl)
	s.ledger = mocks.NewMockBadgeLedger(s.ctrl)
	s.auditStore = auditstore.NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(s.store, s.ai, s.payments, s.ledger, catalog.Default(),
		publisher.NewPublisher(s.auditStore), metrics.NewWith(prometheus.NewRegistry()),
		slog.New(slog.DiscardHandler))
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func buyerDocs() []models.Document {
	return []models.Document{{Type: "government_id", Reference: "doc-1", UploadedAt: time.Now()}}
}

func sellerDocs() []models.Document {
	return []models.Document{
		{Type: "government_id", Reference: "doc-1", UploadedAt: time.Now()},
		{Type: "business_license", Reference: "doc-2", UploadedAt: time.Now()},
	}
}

func (s *VerificationServiceSuite) expectSession() {
	s.payments.EXPECT().CreateSession(gomock.Any(), gomock.Any()).
		Return(&payment.Session{ID: "sess_1", CheckoutURL: "https://pay.example/sess_1"}, nil)
}

func (s *VerificationServiceSuite) TestSubmitAutoApproved() {
	actor := id.ActorID(uuid.New())
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeBuyer, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 92}, nil)
	s.expectSession()

	result, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
	s.Require().NoError(err)
	s.Equal(models.StatusPendingPayment, result.Case.Status)
	s.Require().NotNil(result.Session)
	s.Equal("sess_1", result.Session.ID)

	s.Run("payment confirmation activates the badge", func() {
		s.ledger.EXPECT().RecordBadgeSubscription(gomock.Any(), actor, "sub_1", 365*24*time.Hour, s.now).
			Return(nil)

		s.Require().NoError(s.svc.ActivateOnPayment(s.ctx, result.Case.ID, "sub_1", s.now))

		c, err := s.store.FindByID(s.ctx, result.Case.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, c.Status)
		s.Require().NotNil(c.ExpiresAt)
		s.Equal(s.now.Add(365*24*time.Hour), *c.ExpiresAt)
	})

	s.Run("replayed confirmation is a no-op", func() {
		s.Require().NoError(s.svc.ActivateOnPayment(s.ctx, result.Case.ID, "sub_1", s.now.Add(time.Hour)))

		c, err := s.store.FindByID(s.ctx, result.Case.ID)
		s.Require().NoError(err)
		s.Equal(s.now.Add(365*24*time.Hour), *c.ExpiresAt)
	})
}

// TestSubmitScreeningFailure: the analysis service being down must not fail
// the submission; the case goes to an admin instead.
func (s *VerificationServiceSuite) TestSubmitScreeningFailure() {
	actor := id.ActorID(uuid.New())
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeBuyer, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeTimeout, "document analysis timed out"))

	result, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
	s.Require().NoError(err)
	s.Equal(models.StatusPendingAdmin, result.Case.Status)
	s.Nil(result.Session)

	s.Require().NotNil(result.Case.AIReview)
	s.Equal(models.VerdictNeedsReview, result.Case.AIReview.Verdict)
	s.Equal(0, result.Case.AIReview.Confidence)
	s.Equal("screening unavailable", result.Case.AIReview.Notes)

	s.Run("actor sees the case under review", func() {
		c, err := s.svc.Status(s.ctx, actor, id.ActorTypeBuyer)
		s.Require().NoError(err)
		s.Equal(models.StatusPendingAdmin, c.Status)
	})
}

func (s *VerificationServiceSuite) TestSubmitValidation() {
	actor := id.ActorID(uuid.New())

	s.Run("missing required document", func() {
		_, err := s.svc.Submit(s.ctx, actor, id.ActorTypeSeller, buyerDocs())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown actor type", func() {
		_, err := s.svc.Submit(s.ctx, actor, id.ActorType("agency"), buyerDocs())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("second submission while in progress conflicts", func() {
		s.ai.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&aireview.Result{Verdict: models.VerdictNeedsReview, Confidence: 40}, nil)

		_, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
		s.Require().NoError(err)

		_, err = s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *VerificationServiceSuite) TestRejectionAndResubmission() {
	actor := id.ActorID(uuid.New())
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeSeller, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictRejected, Confidence: 97, Notes: "license expired"}, nil)

	first, err := s.svc.Submit(s.ctx, actor, id.ActorTypeSeller, sellerDocs())
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, first.Case.Status)

	// Resubmission reuses the case rather than opening a second one.
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeSeller, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 95}, nil)
	s.expectSession()

	second, err := s.svc.Submit(s.ctx, actor, id.ActorTypeSeller, sellerDocs())
	s.Require().NoError(err)
	s.Equal(first.Case.ID, second.Case.ID)
	s.Equal(models.StatusPendingPayment, second.Case.Status)
}

// TestContractorAlwaysNeedsAdmin: a zero auto-approve threshold sends even a
// perfect AI verdict to a human.
func (s *VerificationServiceSuite) TestContractorAlwaysNeedsAdmin() {
	actor := id.ActorID(uuid.New())
	docs := []models.Document{
		{Type: "government_id", Reference: "doc-1", UploadedAt: time.Now()},
		{Type: "trade_certificate", Reference: "doc-2", UploadedAt: time.Now()},
		{Type: "insurance_certificate", Reference: "doc-3", UploadedAt: time.Now()},
	}
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeContractor, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 99}, nil)

	result, err := s.svc.Submit(s.ctx, actor, id.ActorTypeContractor, docs)
	s.Require().NoError(err)
	s.Equal(models.StatusPendingAdmin, result.Case.Status)

	s.Run("admin approval moves it to payment", func() {
		s.expectSession()
		decided, err := s.svc.Decide(s.ctx, result.Case.ID, "admin-1", models.DecisionApprove, "verified by phone")
		s.Require().NoError(err)
		s.Equal(models.StatusPendingPayment, decided.Case.Status)
		s.NotNil(decided.Session)
	})
}

func (s *VerificationServiceSuite) TestRevokeAndReinstate() {
	actor := id.ActorID(uuid.New())
	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeBuyer, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 95}, nil)
	s.expectSession()

	result, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
	s.Require().NoError(err)
	s.ledger.EXPECT().RecordBadgeSubscription(gomock.Any(), actor, "sub_r", gomock.Any(), gomock.Any()).Return(nil)
	s.Require().NoError(s.svc.ActivateOnPayment(s.ctx, result.Case.ID, "sub_r", s.now))

	s.Run("revocation tears down the subscription and ledger entry", func() {
		s.payments.EXPECT().CancelSubscription(gomock.Any(), "sub_r").Return(nil)
		s.ledger.EXPECT().CancelByPaymentRef(gomock.Any(), "sub_r", false, s.now).Return(nil)

		decided, err := s.svc.Decide(s.ctx, result.Case.ID, "admin-1", models.DecisionRevoke, "policy violation")
		s.Require().NoError(err)
		s.Equal(models.StatusRevoked, decided.Case.Status)

		events := s.auditStore.All()
		var revoked bool
		for _, e := range events {
			if e.Action == string(audit.EventCaseRevoked) {
				revoked = true
				s.Equal("admin-1", e.ReviewerID)
			}
		}
		s.True(revoked)
	})

	s.Run("reinstatement goes back through payment", func() {
		s.expectSession()
		decided, err := s.svc.Decide(s.ctx, result.Case.ID, "admin-2", models.DecisionReinstate, "appeal upheld")
		s.Require().NoError(err)
		s.Equal(models.StatusPendingPayment, decided.Case.Status)
		s.NotNil(decided.Session)
		s.Nil(decided.Case.ExpiresAt)
	})
}

func (s *VerificationServiceSuite) TestExpireActiveCase() {
	actor := id.ActorID(uuid.New())

	s.Run("unknown subscription is a no-op", func() {
		s.Require().NoError(s.svc.ExpireActiveCase(s.ctx, actor, "sub_unknown", s.now))
	})

	s.Run("active case lapses", func() {
		s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeBuyer, gomock.Any()).
			Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 95}, nil)
		s.expectSession()
		result, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
		s.Require().NoError(err)
		s.ledger.EXPECT().RecordBadgeSubscription(gomock.Any(), actor, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.Require().NoError(s.svc.ActivateOnPayment(s.ctx, result.Case.ID, "sub_e", s.now))

		s.Require().NoError(s.svc.ExpireActiveCase(s.ctx, actor, "sub_e", s.now.Add(365*24*time.Hour)))

		c, err := s.store.FindByID(s.ctx, result.Case.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusExpired, c.Status)
	})
}

// TestCasesArePerActorType: the one-open-case rule is scoped to the role. An
// actor with a buyer case in flight can still verify as a seller, and each
// case keeps its own lifecycle.
func (s *VerificationServiceSuite) TestCasesArePerActorType() {
	actor := id.ActorID(uuid.New())

	s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeBuyer, gomock.Any()).
		Return(&aireview.Result{Verdict: models.VerdictNeedsReview, Confidence: 40}, nil)
	buyer, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
	s.Require().NoError(err)
	s.Equal(models.StatusPendingAdmin, buyer.Case.Status)

	s.Run("seller submission opens a second case", func() {
		s.ai.EXPECT().Analyze(gomock.Any(), id.ActorTypeSeller, gomock.Any()).
			Return(&aireview.Result{Verdict: models.VerdictApproved, Confidence: 95}, nil)
		s.expectSession()

		seller, err := s.svc.Submit(s.ctx, actor, id.ActorTypeSeller, sellerDocs())
		s.Require().NoError(err)
		s.NotEqual(buyer.Case.ID, seller.Case.ID)
		s.Equal(id.ActorTypeSeller, seller.Case.ActorType)
		s.Equal(models.StatusPendingPayment, seller.Case.Status)
	})

	s.Run("second buyer submission still conflicts", func() {
		_, err := s.svc.Submit(s.ctx, actor, id.ActorTypeBuyer, buyerDocs())
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("status is answered per role", func() {
		c, err := s.svc.Status(s.ctx, actor, id.ActorTypeBuyer)
		s.Require().NoError(err)
		s.Equal(buyer.Case.ID, c.ID)

		c, err = s.svc.Status(s.ctx, actor, id.ActorTypeSeller)
		s.Require().NoError(err)
		s.Equal(id.ActorTypeSeller, c.ActorType)
	})
}

// TestScreeningCircuitBreaker: repeated screening failures open the circuit;
// submissions then fall straight back to the admin queue without hammering the
// analysis service, except for one probe per interval.
func (s *VerificationServiceSuite) TestScreeningCircuitBreaker() {
	analysisDown := dErrors.New(dErrors.CodeUnavailable, "document analysis unreachable")

	// Five consecutive failures open the circuit; the sixth submission is the
	// allowed probe, which also fails.
	s.ai.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, analysisDown).Times(6)

	for range 6 {
		result, err := s.svc.Submit(s.ctx, id.ActorID(uuid.New()), id.ActorTypeBuyer, buyerDocs())
		s.Require().NoError(err)
		s.Equal(models.StatusPendingAdmin, result.Case.Status)
	}

	// Same instant as the probe: the circuit short-circuits, no Analyze call.
	result, err := s.svc.Submit(s.ctx, id.ActorID(uuid.New()), id.ActorTypeBuyer, buyerDocs())
	s.Require().NoError(err)
	s.Equal(models.StatusPendingAdmin, result.Case.Status)
	s.Equal("screening unavailable", result.Case.AIReview.Notes)
}

func (s *VerificationServiceSuite) TestPendingAdminQueue() {
	for range 2 {
		s.ai.EXPECT().Analyze(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&aireview.Result{Verdict: models.VerdictNeedsReview, Confidence: 30}, nil)
		_, err := s.svc.Submit(s.ctx, id.ActorID(uuid.New()), id.ActorTypeBuyer, buyerDocs())
		s.Require().NoError(err)
	}

	queue, err := s.svc.PendingAdmin(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(queue, 2)
}

package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"trustgate/internal/catalog"
	"trustgate/internal/entitlement/models"
	"trustgate/internal/entitlement/store/purchase"
	"trustgate/internal/payment"
	"trustgate/internal/platform/metrics"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/audit/publisher"
	auditstore "trustgate/pkg/platform/audit/store/memory"
	"trustgate/pkg/requestcontext"
)

type fakeRecomputer struct {
	calls []id.TargetID
}

func (f *fakeRecomputer) Recompute(_ context.Context, target id.TargetID, _ time.Time) error {
	f.calls = append(f.calls, target)
	return nil
}

type fakeSessions struct {
	requests []payment.SessionRequest
	err      error
}

func (f *fakeSessions) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &payment.Session{ID: "sess_1", CheckoutURL: "https://pay.example/sess_1"}, nil
}

type EntitlementServiceSuite struct {
	suite.Suite
	store      *purchase.InMemory
	resolver   *fakeRecomputer
	sessions   *fakeSessions
	auditStore *auditstore.InMemoryStore
	svc        *Service
	ctx        context.Context
	now        time.Time
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.store = purchase.NewInMemory()
	s.resolver = &fakeRecomputer{}
	s.sessions = &fakeSessions{}
	s.auditStore = auditstore.NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = New(s.store, s.resolver, s.sessions, catalog.Default(),
		publisher.NewPublisher(s.auditStore), metrics.NewWith(prometheus.NewRegistry()),
		slog.New(slog.DiscardHandler))
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func TestEntitlementServiceSuite(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) TestPurchase() {
	owner := id.ActorID(uuid.New())
	target := id.TargetID(uuid.New())

	s.Run("creates pending entry and checkout session", func() {
		p, session, err := s.svc.Purchase(s.ctx, owner, target, id.TierPremium)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, p.Status)
		s.Equal(int64(2499), p.AmountCents)
		s.Nil(p.ExpiresAt)
		s.Equal("sess_1", session.ID)

		s.Require().Len(s.sessions.requests, 1)
		s.Equal(payment.KindPurchase, s.sessions.requests[0].Kind)
		s.Equal(p.ID.String(), s.sessions.requests[0].ReferenceID)
	})

	s.Run("rejects unknown tier", func() {
		_, _, err := s.svc.Purchase(s.ctx, owner, target, id.Tier("platinum"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects direct badge purchase", func() {
		_, _, err := s.svc.Purchase(s.ctx, owner, target, id.TierVerifiedBadge)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *EntitlementServiceSuite) TestActivateByPayment() {
	owner := id.ActorID(uuid.New())
	target := id.TargetID(uuid.New())
	p, _, err := s.svc.Purchase(s.ctx, owner, target, id.TierElite)
	s.Require().NoError(err)

	s.Run("activates and recomputes flags", func() {
		s.Require().NoError(s.svc.ActivateByPayment(s.ctx, p.ID, "pay_1", s.now))

		got, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, got.Status)
		s.Require().NotNil(got.ExpiresAt)
		s.Equal(s.now.Add(30*24*time.Hour), *got.ExpiresAt)
		s.Equal([]id.TargetID{target}, s.resolver.calls)
	})

	s.Run("replayed confirmation is a no-op", func() {
		s.Require().NoError(s.svc.ActivateByPayment(s.ctx, p.ID, "pay_1", s.now.Add(time.Hour)))

		got, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(s.now.Add(30*24*time.Hour), *got.ExpiresAt)
		s.Len(s.resolver.calls, 1)
	})

	s.Run("unknown purchase is not found", func() {
		err := s.svc.ActivateByPayment(s.ctx, id.PurchaseID(uuid.New()), "pay_x", s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EntitlementServiceSuite) TestRecordBadgeSubscription() {
	owner := id.ActorID(uuid.New())
	period := 365 * 24 * time.Hour

	s.Require().NoError(s.svc.RecordBadgeSubscription(s.ctx, owner, "sub_1", period, s.now))

	got, err := s.store.FindByPaymentRef(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(models.StatusActive, got.Status)
	s.Equal(id.TierVerifiedBadge, got.Tier)
	s.Equal(id.ProfileTarget(owner), got.TargetID)
	s.Equal([]id.TargetID{id.ProfileTarget(owner)}, s.resolver.calls)

	s.Run("replayed grant does not duplicate", func() {
		s.Require().NoError(s.svc.RecordBadgeSubscription(s.ctx, owner, "sub_1", period, s.now))
		s.Len(s.resolver.calls, 1)
	})
}

func (s *EntitlementServiceSuite) TestCancel() {
	owner := id.ActorID(uuid.New())
	target := id.TargetID(uuid.New())
	p, _, err := s.svc.Purchase(s.ctx, owner, target, id.TierFeatured)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.ActivateByPayment(s.ctx, p.ID, "pay_c", s.now))

	s.Require().NoError(s.svc.Cancel(s.ctx, p.ID, true, "chargeback"))

	got, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRefunded, got.Status)
	// Activation and cancellation each trigger a recompute.
	s.Len(s.resolver.calls, 2)

	events := s.auditStore.All()
	var refunds int
	for _, e := range events {
		if e.Action == string(audit.EventPurchaseRefunded) {
			refunds++
			s.Equal("chargeback", e.Reason)
		}
	}
	s.Equal(1, refunds)

	s.Run("terminal purchase cannot be cancelled again", func() {
		err := s.svc.Cancel(s.ctx, p.ID, false, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *EntitlementServiceSuite) TestCancelByPaymentRef() {
	owner := id.ActorID(uuid.New())
	s.Require().NoError(s.svc.RecordBadgeSubscription(s.ctx, owner, "sub_2", 365*24*time.Hour, s.now))

	s.Require().NoError(s.svc.CancelByPaymentRef(s.ctx, "sub_2", false, s.now))

	got, err := s.store.FindByPaymentRef(s.ctx, "sub_2")
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)

	s.Run("unknown reference is not found", func() {
		err := s.svc.CancelByPaymentRef(s.ctx, "sub_missing", false, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EntitlementServiceSuite) TestGetOwnership() {
	owner := id.ActorID(uuid.New())
	stranger := id.ActorID(uuid.New())
	p, _, err := s.svc.Purchase(s.ctx, owner, id.TargetID(uuid.New()), id.TierFeatured)
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, p.ID, owner, false)
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, p.ID, stranger, false)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.svc.Get(s.ctx, p.ID, stranger, true)
	s.Require().NoError(err)
}

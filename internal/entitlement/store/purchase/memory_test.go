package purchase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"trustgate/internal/entitlement/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

type PurchaseStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *PurchaseStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestPurchaseStoreSuite(t *testing.T) {
	suite.Run(t, new(PurchaseStoreSuite))
}

func (s *PurchaseStoreSuite) newPurchase(tier id.Tier, target id.TargetID) *models.EntitlementPurchase {
	return models.NewPurchase(
		id.PurchaseID(uuid.New()),
		id.ActorID(uuid.New()),
		target,
		tier,
		999,
		time.Now(),
	)
}

// TestCreationAndLookups verifies the store correctly creates and retrieves purchases.
func (s *PurchaseStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds purchase by ID", func() {
		p := s.newPurchase(id.TierFeatured, id.TargetID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.Tier, found.Tier)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.PurchaseID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate IDs", func() {
		p := s.newPurchase(id.TierFeatured, id.TargetID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrConflict)
	})

	s.Run("finds by payment ref", func() {
		p := s.newPurchase(id.TierPremium, id.TargetID(uuid.New()))
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().NoError(p.Activate(time.Now(), time.Hour, "pay_ref_1"))
		s.Require().NoError(s.store.Transition(s.ctx, p, models.StatusPending))

		found, err := s.store.FindByPaymentRef(s.ctx, "pay_ref_1")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)

		_, err = s.store.FindByPaymentRef(s.ctx, "")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestActiveByTarget verifies target scoping and status filtering.
func (s *PurchaseStoreSuite) TestActiveByTarget() {
	target := id.TargetID(uuid.New())
	now := time.Now()

	active := s.newPurchase(id.TierElite, target)
	s.Require().NoError(s.store.Create(s.ctx, active))
	s.Require().NoError(active.Activate(now, time.Hour, "pay_a"))
	s.Require().NoError(s.store.Transition(s.ctx, active, models.StatusPending))

	pending := s.newPurchase(id.TierFeatured, target)
	s.Require().NoError(s.store.Create(s.ctx, pending))

	other := s.newPurchase(id.TierFeatured, id.TargetID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, other))

	got, err := s.store.ListActiveByTarget(s.ctx, target)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(active.ID, got[0].ID)
}

// TestListDue verifies the due-selection predicate that makes sweeps idempotent.
func (s *PurchaseStoreSuite) TestListDue() {
	now := time.Now()

	due := s.newPurchase(id.TierPremium, id.TargetID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, due))
	s.Require().NoError(due.Activate(now.Add(-2*time.Hour), time.Hour, "pay_due"))
	s.Require().NoError(s.store.Transition(s.ctx, due, models.StatusPending))

	fresh := s.newPurchase(id.TierPremium, id.TargetID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, fresh))
	s.Require().NoError(fresh.Activate(now, 24*time.Hour, "pay_fresh"))
	s.Require().NoError(s.store.Transition(s.ctx, fresh, models.StatusPending))

	s.Run("selects only past-expiry actives", func() {
		got, err := s.store.ListDue(s.ctx, now, 10)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(due.ID, got[0].ID)
	})

	s.Run("expired records drop out of the selection", func() {
		p, err := s.store.FindByID(s.ctx, due.ID)
		s.Require().NoError(err)
		s.Require().NoError(p.Expire(now))
		s.Require().NoError(s.store.Transition(s.ctx, p, models.StatusActive))

		got, err := s.store.ListDue(s.ctx, now, 10)
		s.Require().NoError(err)
		s.Empty(got)
	})
}

// TestGuardedTransition verifies per-record serialization.
func (s *PurchaseStoreSuite) TestGuardedTransition() {
	now := time.Now()
	p := s.newPurchase(id.TierFeatured, id.TargetID(uuid.New()))
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Require().NoError(p.Activate(now, time.Hour, "pay_g"))
	s.Require().NoError(s.store.Transition(s.ctx, p, models.StatusPending))

	// A second writer still holding the pending snapshot loses the race.
	stale := *p
	err := s.store.Transition(s.ctx, &stale, models.StatusPending)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	err = s.store.Transition(s.ctx, p, models.StatusPending)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)
}

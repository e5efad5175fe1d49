package resolver

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	entmodels "trustgate/internal/entitlement/models"
	flagstore "trustgate/internal/listing/store/flags"
	"trustgate/internal/platform/metrics"
	id "trustgate/pkg/domain"
)

type ResolverSuite struct {
	suite.Suite
	purchases *purchaseFixture
	flags     *flagstore.InMemory
	resolver  *Resolver
	ctx       context.Context
	now       time.Time
}

type purchaseFixture struct {
	byTarget map[id.TargetID][]*entmodels.EntitlementPurchase
}

func (f *purchaseFixture) ListActiveByTarget(_ context.Context, target id.TargetID) ([]*entmodels.EntitlementPurchase, error) {
	return f.byTarget[target], nil
}

func (f *purchaseFixture) add(target id.TargetID, tier id.Tier, activatedAt time.Time, duration time.Duration) *entmodels.EntitlementPurchase {
	p := entmodels.NewPurchase(id.PurchaseID(uuid.New()), id.ActorID(uuid.New()), target, tier, 999, activatedAt)
	if err := p.Activate(activatedAt, duration, "pay_"+uuid.NewString()[:8]); err != nil {
		panic(err)
	}
	f.byTarget[target] = append(f.byTarget[target], p)
	return p
}

func (s *ResolverSuite) SetupTest() {
	s.purchases = &purchaseFixture{byTarget: make(map[id.TargetID][]*entmodels.EntitlementPurchase)}
	s.flags = flagstore.NewInMemory()
	m := metrics.NewWith(prometheus.NewRegistry())
	s.resolver = New(s.purchases, s.flags, m, slog.New(slog.DiscardHandler))
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

// TestCascadeOverlap covers overlapping placement purchases: a flag granted
// by several tiers keeps the latest expiry among them.
func (s *ResolverSuite) TestCascadeOverlap() {
	target := id.TargetID(uuid.New())
	elite := s.purchases.add(target, id.TierElite, s.now, 10*24*time.Hour)
	premium := s.purchases.add(target, id.TierPremium, s.now, 40*24*time.Hour)

	s.Require().NoError(s.resolver.Recompute(s.ctx, target, s.now))

	p, err := s.flags.Get(s.ctx, target)
	s.Require().NoError(err)

	s.Run("elite carries its own expiry", func() {
		s.True(p.Elite.Active)
		s.Require().NotNil(p.Elite.ExpiresAt)
		s.Equal(*elite.ExpiresAt, *p.Elite.ExpiresAt)
	})

	s.Run("contained tiers outlive the elite purchase", func() {
		s.True(p.Premium.Active)
		s.True(p.Featured.Active)
		s.Require().NotNil(p.Featured.ExpiresAt)
		s.Equal(*premium.ExpiresAt, *p.Featured.ExpiresAt)
		s.Equal(*premium.ExpiresAt, *p.Premium.ExpiresAt)
	})

	s.Run("badge is untouched by placement purchases", func() {
		s.False(p.VerifiedBadge.Active)
	})
}

func (s *ResolverSuite) TestNonExpiringGrantPinsFlagOpen() {
	target := id.TargetID(uuid.New())
	s.purchases.add(target, id.TierVerifiedBadge, s.now, 0)

	s.Require().NoError(s.resolver.Recompute(s.ctx, target, s.now))

	p, err := s.flags.Get(s.ctx, target)
	s.Require().NoError(err)
	s.True(p.VerifiedBadge.Active)
	s.Nil(p.VerifiedBadge.ExpiresAt)
}

// TestLapsedPurchaseExcluded verifies the read model never reflects a grant
// that is past expiry, even before the sweeper has flipped its status.
func (s *ResolverSuite) TestLapsedPurchaseExcluded() {
	target := id.TargetID(uuid.New())
	s.purchases.add(target, id.TierFeatured, s.now.Add(-48*time.Hour), 24*time.Hour)

	s.Require().NoError(s.resolver.Recompute(s.ctx, target, s.now))

	p, err := s.flags.Get(s.ctx, target)
	s.Require().NoError(err)
	s.False(p.Featured.Active)
}

// TestRecomputeClearsStaleFlags verifies a rescan with no remaining grants
// rewrites previously-set flags to inactive.
func (s *ResolverSuite) TestRecomputeClearsStaleFlags() {
	target := id.TargetID(uuid.New())
	s.purchases.add(target, id.TierElite, s.now, 24*time.Hour)
	s.Require().NoError(s.resolver.Recompute(s.ctx, target, s.now))

	s.purchases.byTarget[target] = nil
	s.Require().NoError(s.resolver.Recompute(s.ctx, target, s.now.Add(time.Hour)))

	p, err := s.flags.Get(s.ctx, target)
	s.Require().NoError(err)
	s.False(p.Elite.Active)
	s.False(p.Premium.Active)
	s.False(p.Featured.Active)
}

func TestResolveIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	target := id.TargetID(uuid.New())
	p := entmodels.NewPurchase(id.PurchaseID(uuid.New()), id.ActorID(uuid.New()), target, id.TierPremium, 2499, now)
	if err := p.Activate(now, 30*24*time.Hour, "pay_x"); err != nil {
		t.Fatal(err)
	}

	first := Resolve([]*entmodels.EntitlementPurchase{p}, now)
	second := Resolve([]*entmodels.EntitlementPurchase{p}, now)
	if !first[id.TierPremium].Active || !second[id.TierPremium].Active {
		t.Fatal("expected premium flag active on both passes")
	}
	if !first[id.TierFeatured].ExpiresAt.Equal(*second[id.TierFeatured].ExpiresAt) {
		t.Fatal("expected identical expiry across passes")
	}
}

package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

func newTestPurchase(tier id.Tier, now time.Time) *EntitlementPurchase {
	return NewPurchase(
		id.PurchaseID(uuid.New()),
		id.ActorID(uuid.New()),
		id.TargetID(uuid.New()),
		tier,
		2499,
		now,
	)
}

func TestActivateComputesExpiryOnce(t *testing.T) {
	day0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := newTestPurchase(id.TierPremium, day0)

	require.NoError(t, p.Activate(day0, 30*24*time.Hour, "pay_123"))
	require.NotNil(t, p.ExpiresAt)
	assert.Equal(t, day0.Add(30*24*time.Hour), *p.ExpiresAt)
	assert.Equal(t, StatusActive, p.Status)

	// A duplicate confirmation arriving later must not extend the expiry.
	firstExpiry := *p.ExpiresAt
	require.NoError(t, p.Activate(day0.Add(48*time.Hour), 30*24*time.Hour, "pay_123"))
	assert.Equal(t, firstExpiry, *p.ExpiresAt)
	assert.Equal(t, day0, p.StartedAt)
}

func TestActivateNonExpiring(t *testing.T) {
	now := time.Now()
	p := newTestPurchase(id.TierVerifiedBadge, now)

	require.NoError(t, p.Activate(now, 0, "pay_456"))
	assert.Nil(t, p.ExpiresAt)
	assert.Equal(t, StatusActive, p.Status)
}

func TestActivateRejectsTerminalStates(t *testing.T) {
	now := time.Now()
	p := newTestPurchase(id.TierFeatured, now)
	require.NoError(t, p.Activate(now, time.Hour, "pay_1"))
	require.NoError(t, p.Expire(now.Add(2*time.Hour)))

	err := p.Activate(now.Add(3*time.Hour), time.Hour, "pay_1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.Equal(t, StatusExpired, p.Status)
}

func TestGrantsAtContainment(t *testing.T) {
	now := time.Now()
	p := newTestPurchase(id.TierElite, now)
	require.NoError(t, p.Activate(now, 24*time.Hour, "pay_2"))

	assert.True(t, p.GrantsAt(id.TierElite, now))
	assert.True(t, p.GrantsAt(id.TierPremium, now))
	assert.True(t, p.GrantsAt(id.TierFeatured, now))
	assert.False(t, p.GrantsAt(id.TierVerifiedBadge, now))

	// Past expiry nothing is granted.
	later := now.Add(25 * time.Hour)
	assert.False(t, p.GrantsAt(id.TierFeatured, later))
	assert.True(t, p.DueAt(later))
}

func TestCancelAndRefund(t *testing.T) {
	now := time.Now()

	p := newTestPurchase(id.TierPremium, now)
	require.NoError(t, p.Activate(now, time.Hour, "pay_3"))
	require.NoError(t, p.Cancel(now, false))
	assert.Equal(t, StatusCancelled, p.Status)

	q := newTestPurchase(id.TierPremium, now)
	require.NoError(t, q.Activate(now, time.Hour, "pay_4"))
	require.NoError(t, q.Cancel(now, true))
	assert.Equal(t, StatusRefunded, q.Status)

	// Expired purchases stay expired.
	err := p.Cancel(now, false)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

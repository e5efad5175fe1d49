package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "trustgate/pkg/domain-errors"
)

func TestTierContainment(t *testing.T) {
	t.Run("elite grants every placement tier", func(t *testing.T) {
		assert.True(t, TierElite.Grants(TierElite))
		assert.True(t, TierElite.Grants(TierPremium))
		assert.True(t, TierElite.Grants(TierFeatured))
	})

	t.Run("premium grants featured but not elite", func(t *testing.T) {
		assert.True(t, TierPremium.Grants(TierFeatured))
		assert.False(t, TierPremium.Grants(TierElite))
	})

	t.Run("featured grants only itself", func(t *testing.T) {
		assert.True(t, TierFeatured.Grants(TierFeatured))
		assert.False(t, TierFeatured.Grants(TierPremium))
	})

	t.Run("verified badge sits outside the chain", func(t *testing.T) {
		assert.True(t, TierVerifiedBadge.Grants(TierVerifiedBadge))
		assert.False(t, TierVerifiedBadge.Grants(TierFeatured))
		assert.False(t, TierElite.Grants(TierVerifiedBadge))
	})
}

func TestParseTier(t *testing.T) {
	t.Run("accepts supported tiers", func(t *testing.T) {
		for _, want := range AllTiers() {
			got, err := ParseTier(string(want))
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("rejects empty and unknown values", func(t *testing.T) {
		_, err := ParseTier("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = ParseTier("platinum")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestParseActorType(t *testing.T) {
	for _, valid := range []string{"buyer", "seller", "contractor"} {
		got, err := ParseActorType(valid)
		assert.NoError(t, err)
		assert.Equal(t, ActorType(valid), got)
	}

	_, err := ParseActorType("admin")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

//go:build integration

package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trustgate/internal/payment"
	"trustgate/pkg/testutil/containers"
)

func TestRedisDedup(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	dedup := payment.NewRedisDedup(rc.Client, time.Hour)

	seen, err := dedup.Seen(ctx, "evt_integration_1")
	require.NoError(t, err)
	require.False(t, seen, "unmarked event is not seen")

	first, err := dedup.MarkOnce(ctx, "evt_integration_1")
	require.NoError(t, err)
	require.True(t, first, "first delivery should win")

	second, err := dedup.MarkOnce(ctx, "evt_integration_1")
	require.NoError(t, err)
	require.False(t, second, "replayed delivery should be suppressed")

	seen, err = dedup.Seen(ctx, "evt_integration_1")
	require.NoError(t, err)
	require.True(t, seen, "marked event is seen")

	other, err := dedup.MarkOnce(ctx, "evt_integration_2")
	require.NoError(t, err)
	require.True(t, other, "distinct events do not collide")
}

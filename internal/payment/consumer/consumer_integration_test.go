//go:build integration

package consumer_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustgate/internal/payment"
	"trustgate/internal/payment/consumer"
	"trustgate/internal/platform/config"
	"trustgate/pkg/testutil/containers"
)

type channelGate struct {
	received chan *payment.Confirmation
}

func (g *channelGate) HandleConfirmation(_ context.Context, c *payment.Confirmation) error {
	g.received <- c
	return nil
}

func TestConsumerDeliversConfirmations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rp := containers.GetManager().GetRedpanda(t)
	topic := "payment.confirmations.test"

	cfg := config.KafkaConfig{
		Brokers:      rp.Brokers,
		Group:        "trustgate-test-" + uuid.NewString(),
		PaymentTopic: topic,
	}

	gate := &channelGate{received: make(chan *payment.Confirmation, 4)}
	c, err := consumer.New(cfg, gate, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	require.NoError(t, err)
	defer producer.Close()

	confirmation := payment.Confirmation{
		EventID:     "evt_" + uuid.NewString(),
		Kind:        payment.KindPurchase,
		ReferenceID: uuid.NewString(),
		PaymentRef:  "pay_kafka_1",
		Status:      payment.ConfirmationSucceeded,
		AmountCents: 999,
		OccurredAt:  time.Now().UTC(),
	}
	body, err := json.Marshal(confirmation)
	require.NoError(t, err)

	// A malformed record first: the consumer must drop it and keep going.
	require.NoError(t, producer.ProduceSync(ctx,
		&kgo.Record{Value: []byte("not json")},
		&kgo.Record{Value: body},
	).FirstErr())

	select {
	case got := <-gate.received:
		require.Equal(t, confirmation.EventID, got.EventID)
		require.Equal(t, payment.KindPurchase, got.Kind)
		require.Equal(t, "pay_kafka_1", got.PaymentRef)
	case <-time.After(30 * time.Second):
		t.Fatal("confirmation never reached the gate")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}

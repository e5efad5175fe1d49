// Package consumer drains provider payment confirmations from Kafka and feeds
// them through the payment gate. It is the second delivery path next to the
// webhook; the gate's event-ID dedup makes the two paths safe to run together.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"trustgate/internal/payment"
	"trustgate/internal/platform/config"
	dErrors "trustgate/pkg/domain-errors"
)

const (
	retryBase = time.Second
	retryCap  = 30 * time.Second
)

// Handler is the slice of the payment gate the consumer needs.
type Handler interface {
	HandleConfirmation(ctx context.Context, c *payment.Confirmation) error
}

type Consumer struct {
	client  *kgo.Client
	topic   string
	gate    Handler
	logger  *slog.Logger
	backoff time.Duration
}

// New connects a consumer group to the payment topic, creating the topic when
// the broker allows it so fresh environments come up without manual setup.
func New(cfg config.KafkaConfig, gate Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.PaymentTopic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(context.Background(), client, cfg.PaymentTopic); err != nil {
		logger.Warn("could not ensure payment topic", "topic", cfg.PaymentTopic, "error", err)
	}

	return &Consumer{
		client:  client,
		topic:   cfg.PaymentTopic,
		gate:    gate,
		logger:  logger,
		backoff: retryBase,
	}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// Run polls until the context is cancelled. Records that fail to parse or
// that the gate rejects as unprocessable are committed and dropped; a record
// hitting a transient fault is retried in place with backoff, holding the
// partition position, so the confirmation is never skipped.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var stopped error
		fetches.EachRecord(func(record *kgo.Record) {
			if stopped != nil {
				return
			}
			confirmation, err := payment.ParseConfirmation(record.Value)
			if err != nil {
				c.logger.Warn("dropping malformed payment record",
					"topic", record.Topic, "offset", record.Offset, "error", err)
				return
			}
			stopped = c.deliver(ctx, confirmation)
		})
		if stopped != nil {
			return stopped
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("commit offsets failed", "error", err)
		}
	}
}

// deliver feeds one confirmation to the gate, retrying transient faults with
// doubling backoff. Permanent failures are logged and dropped so one poison
// record cannot wedge the partition. Returns non-nil only when the context
// ends mid-retry.
func (c *Consumer) deliver(ctx context.Context, confirmation *payment.Confirmation) error {
	backoff := c.backoff
	for {
		err := c.gate.HandleConfirmation(ctx, confirmation)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			c.logger.Error("dropping unprocessable payment confirmation",
				"event_id", confirmation.EventID, "error", err)
			return nil
		}

		c.logger.Warn("payment confirmation failed, retrying",
			"event_id", confirmation.EventID, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, retryCap)
	}
}

func retryable(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeUnavailable) ||
		dErrors.HasCode(err, dErrors.CodeTimeout) ||
		dErrors.HasCode(err, dErrors.CodeInternal)
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}

package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup records confirmation event IDs so replays are processed once. Seen
// answers whether an event was already handled; MarkOnce records it as handled
// and returns false when another delivery got there first. Marking is separate
// from checking so the gate only marks events it has fully processed.
type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkOnce(ctx context.Context, eventID string) (bool, error)
}

// MemoryDedup is the in-process dedup used in tests and single-node setups.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{seen: make(map[string]struct{})}
}

func (d *MemoryDedup) Seen(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[eventID]
	return ok, nil
}

func (d *MemoryDedup) MarkOnce(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}
	d.seen[eventID] = struct{}{}
	return true, nil
}

// RedisDedup shares the dedup set across replicas via SETNX with a TTL.
// The TTL bounds the window in which provider replays are suppressed; the
// guarded ledger transition catches anything older.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	return &RedisDedup{client: client, ttl: ttl}
}

func dedupKey(eventID string) string {
	return "trustgate:payment:event:" + eventID
}

func (d *RedisDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("check payment event: %w", err)
	}
	return n > 0, nil
}

func (d *RedisDedup) MarkOnce(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupKey(eventID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark payment event: %w", err)
	}
	return ok, nil
}

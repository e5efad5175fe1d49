package flags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
)

// Store is the promotion read-model contract the cache decorates.
type Store interface {
	Get(ctx context.Context, target id.TargetID) (*models.Promotion, error)
	PutCapabilities(ctx context.Context, target id.TargetID, states map[id.Tier]models.CapabilityState, now time.Time) error
	SetEnhancements(ctx context.Context, target id.TargetID, aiEnhanced, specSheet bool, now time.Time) error
}

// CachedStore is a read-through Redis cache in front of a promotion store.
// Writes go to the backing store and invalidate the cached entry; the next
// read repopulates it. Cache failures degrade to the backing store.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(target id.TargetID) string {
	return "trustgate:promo:" + target.String()
}

func (s *CachedStore) Get(ctx context.Context, target id.TargetID) (*models.Promotion, error) {
	key := cacheKey(target)

	raw, err := s.client.Get(ctx, key).Bytes()
	if err == nil {
		var p models.Promotion
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry; drop it and fall through to the store.
		s.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("promotion cache read failed", "target_id", target, "error", err)
	}

	p, err := s.inner.Get(ctx, target)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
			s.logger.Warn("promotion cache write failed", "target_id", target, "error", err)
		}
	}
	return p, nil
}

func (s *CachedStore) PutCapabilities(ctx context.Context, target id.TargetID, states map[id.Tier]models.CapabilityState, now time.Time) error {
	if err := s.inner.PutCapabilities(ctx, target, states, now); err != nil {
		return err
	}
	return s.invalidate(ctx, target)
}

func (s *CachedStore) SetEnhancements(ctx context.Context, target id.TargetID, aiEnhanced, specSheet bool, now time.Time) error {
	if err := s.inner.SetEnhancements(ctx, target, aiEnhanced, specSheet, now); err != nil {
		return err
	}
	return s.invalidate(ctx, target)
}

func (s *CachedStore) invalidate(ctx context.Context, target id.TargetID) error {
	if err := s.client.Del(ctx, cacheKey(target)).Err(); err != nil {
		return fmt.Errorf("invalidate promotion cache: %w", err)
	}
	return nil
}

// Package resolver recomputes the materialized promotion flags for a target
// from its entitlement ledger. It is the only writer of capability state on
// the listing read model.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	entmodels "trustgate/internal/entitlement/models"
	"trustgate/internal/listing/models"
	"trustgate/internal/platform/metrics"
	id "trustgate/pkg/domain"
)

// PurchaseStore is the slice of the ledger the resolver reads.
type PurchaseStore interface {
	ListActiveByTarget(ctx context.Context, target id.TargetID) ([]*entmodels.EntitlementPurchase, error)
}

// FlagStore is the read-model surface the resolver writes.
type FlagStore interface {
	PutCapabilities(ctx context.Context, target id.TargetID, states map[id.Tier]models.CapabilityState, now time.Time) error
}

type Resolver struct {
	purchases PurchaseStore
	flags     FlagStore
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

func New(purchases PurchaseStore, flags FlagStore, m *metrics.Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		purchases: purchases,
		flags:     flags,
		metrics:   m,
		tracer:    otel.Tracer("trustgate/entitlement/resolver"),
		logger:    logger,
	}
}

// Recompute rescans every active purchase for the target and rewrites all
// four capability flags in one shot. Rescanning the full set, rather than
// patching the flag for the purchase that changed, makes the operation safe
// to repeat and immune to ordering between concurrent ledger writes.
func (r *Resolver) Recompute(ctx context.Context, target id.TargetID, now time.Time) error {
	ctx, span := r.tracer.Start(ctx, "resolver.Recompute",
		trace.WithAttributes(attribute.String("target_id", target.String())))
	defer span.End()

	started := time.Now()

	active, err := r.purchases.ListActiveByTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}

	states := Resolve(active, now)
	if err := r.flags.PutCapabilities(ctx, target, states, now); err != nil {
		return fmt.Errorf("resolve %s: %w", target, err)
	}

	r.metrics.ResolverRecomputes.Inc()
	r.metrics.ResolverDurationMs.Observe(float64(time.Since(started).Milliseconds()))
	r.logger.Debug("recomputed promotion flags",
		"target_id", target, "active_purchases", len(active))
	return nil
}

// Resolve folds a set of active purchases into per-tier capability state.
// A purchase grants its own tier plus every tier it contains, and each flag
// carries the latest expiry among its grantors. A non-expiring grantor pins
// the flag open. Purchases already past expiry are skipped so the read model
// never shows a lapsed capability between sweeps.
func Resolve(active []*entmodels.EntitlementPurchase, now time.Time) map[id.Tier]models.CapabilityState {
	states := make(map[id.Tier]models.CapabilityState, len(id.AllTiers()))
	for _, tier := range id.AllTiers() {
		states[tier] = models.CapabilityState{}
	}

	for _, p := range active {
		for _, tier := range id.AllTiers() {
			if !p.GrantsAt(tier, now) {
				continue
			}
			states[tier] = mergeGrant(states[tier], p.ExpiresAt)
		}
	}
	return states
}

func mergeGrant(current models.CapabilityState, expiresAt *time.Time) models.CapabilityState {
	if !current.Active {
		return models.CapabilityState{Active: true, ExpiresAt: copyTime(expiresAt)}
	}
	// Already pinned open by a non-expiring grant.
	if current.ExpiresAt == nil {
		return current
	}
	if expiresAt == nil || expiresAt.After(*current.ExpiresAt) {
		current.ExpiresAt = copyTime(expiresAt)
	}
	return current
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

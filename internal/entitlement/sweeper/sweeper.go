// Package sweeper expires overdue entitlement purchases in bounded chunks.
// Runs are triggered by an external scheduler and are idempotent: the due
// predicate only ever selects records that still need work, so overlapping or
// repeated runs converge on the same state.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trustgate/internal/entitlement/models"
	"trustgate/internal/platform/metrics"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/audit"
	"trustgate/pkg/platform/sentinel"
)

// PurchaseStore is the ledger surface the sweeper works against.
type PurchaseStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.EntitlementPurchase, error)
	Transition(ctx context.Context, p *models.EntitlementPurchase, from models.PurchaseStatus) error
}

// Recomputer rewrites the promotion flags for a target from the ledger.
type Recomputer interface {
	Recompute(ctx context.Context, target id.TargetID, now time.Time) error
}

// CaseExpirer lapses the verification case behind an expired badge
// subscription, matched by the subscription's payment ref. Implemented by the
// verification service.
type CaseExpirer interface {
	ExpireActiveCase(ctx context.Context, owner id.ActorID, paymentRef string, at time.Time) error
}

// AuditPublisher records sweep activity.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Report summarizes one sweep run.
type Report struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}

type Runner struct {
	store     PurchaseStore
	resolver  Recomputer
	cases     CaseExpirer
	audit     AuditPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	chunkSize int
}

func NewRunner(store PurchaseStore, resolver Recomputer, cases CaseExpirer, auditPub AuditPublisher, m *metrics.Metrics, logger *slog.Logger, chunkSize int) *Runner {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Runner{
		store:     store,
		resolver:  resolver,
		cases:     cases,
		audit:     auditPub,
		metrics:   m,
		tracer:    otel.Tracer("trustgate/entitlement/sweeper"),
		logger:    logger,
		chunkSize: chunkSize,
	}
}

// Sweep expires every purchase past its expiry at the pinned instant. Each
// record is handled independently: one bad record costs one error count, not
// the run. Affected targets are recomputed once at the end.
func (r *Runner) Sweep(ctx context.Context, now time.Time) (Report, error) {
	ctx, span := r.tracer.Start(ctx, "sweeper.Sweep")
	defer span.End()

	var report Report
	touched := make(map[id.TargetID]struct{})
	counted := make(map[id.PurchaseID]struct{})

	for {
		due, err := r.store.ListDue(ctx, now, r.chunkSize)
		if err != nil {
			return report, fmt.Errorf("list due purchases: %w", err)
		}
		if len(due) == 0 {
			break
		}

		var progressed int
		for _, p := range due {
			// A record that failed earlier this run stays due and gets
			// re-selected by later chunks; count it once.
			if _, done := counted[p.ID]; done {
				continue
			}
			counted[p.ID] = struct{}{}
			report.Total++
			if err := r.expire(ctx, p, now); err != nil {
				report.Errors++
				r.logger.Error("expire purchase failed",
					"purchase_id", p.ID, "tier", p.Tier, "error", err)
				continue
			}
			progressed++
			report.Processed++
			touched[p.TargetID] = struct{}{}
		}

		// A chunk where nothing moved means every remaining record is stuck;
		// bail instead of rescanning the same records forever.
		if progressed == 0 {
			break
		}
		if len(due) < r.chunkSize {
			break
		}
	}

	for target := range touched {
		if err := r.resolver.Recompute(ctx, target, now); err != nil {
			report.Errors++
			r.logger.Error("recompute after sweep failed", "target_id", target, "error", err)
		}
	}

	r.metrics.SweepRuns.Inc()
	r.metrics.SweepProcessed.Add(float64(report.Processed))
	r.metrics.SweepErrors.Add(float64(report.Errors))
	span.SetAttributes(
		attribute.Int("sweep.processed", report.Processed),
		attribute.Int("sweep.errors", report.Errors),
	)

	_ = r.audit.Emit(ctx, audit.Event{
		Action: string(audit.EventSweepCompleted),
		Reason: fmt.Sprintf("processed=%d errors=%d total=%d", report.Processed, report.Errors, report.Total),
	})
	r.logger.Info("sweep completed",
		"processed", report.Processed, "errors", report.Errors, "total", report.Total)
	return report, nil
}

func (r *Runner) expire(ctx context.Context, p *models.EntitlementPurchase, now time.Time) error {
	if err := p.Expire(now); err != nil {
		return err
	}
	if err := r.store.Transition(ctx, p, models.StatusActive); err != nil {
		// Lost a race with a cancellation or a concurrent sweep; the record is
		// no longer due either way.
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil
		}
		return err
	}

	if p.Tier == id.TierVerifiedBadge && r.cases != nil {
		if err := r.cases.ExpireActiveCase(ctx, p.OwnerID, p.PaymentRef, now); err != nil {
			r.logger.Error("expire verification case failed",
				"owner_id", p.OwnerID, "purchase_id", p.ID, "error", err)
		}
	}

	_ = r.audit.Emit(ctx, audit.Event{
		Action:     string(audit.EventPurchaseExpired),
		ActorID:    p.OwnerID.String(),
		PurchaseID: p.ID.String(),
		TargetID:   p.TargetID.String(),
		Tier:       p.Tier.String(),
	})
	return nil
}

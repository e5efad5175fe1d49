package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesSubmitted     prometheus.Counter
	CasesActivated     prometheus.Counter
	AIReviewFallbacks  prometheus.Counter
	PurchasesActivated prometheus.Counter
	SweepRuns          prometheus.Counter
	SweepProcessed     prometheus.Counter
	SweepErrors        prometheus.Counter
	ResolverRecomputes prometheus.Counter
	ResolverDurationMs prometheus.Histogram
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers all metrics on the given registerer. Tests pass a fresh
// prometheus.NewRegistry to avoid duplicate-registration panics.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CasesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_cases_submitted_total",
			Help: "Total number of verification cases submitted",
		}),
		CasesActivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_cases_activated_total",
			Help: "Total number of verification cases activated on payment",
		}),
		AIReviewFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_ai_review_fallbacks_total",
			Help: "Total number of AI review calls degraded to admin review",
		}),
		PurchasesActivated: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_purchases_activated_total",
			Help: "Total number of entitlement purchases activated",
		}),
		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_sweep_runs_total",
			Help: "Total number of expiry sweep runs",
		}),
		SweepProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_sweep_processed_total",
			Help: "Total number of purchases expired by the sweeper",
		}),
		SweepErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_sweep_errors_total",
			Help: "Total number of per-record sweep failures",
		}),
		ResolverRecomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_resolver_recomputes_total",
			Help: "Total number of capability flag recomputations",
		}),
		ResolverDurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_resolver_duration_ms",
			Help:    "Latency of capability flag recomputation in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}),
	}
}

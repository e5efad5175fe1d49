// Package httptransport assembles the HTTP surface: middleware chain, route
// groups, and the handlers each group mounts.
package httptransport

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	entitlementhandler "trustgate/internal/entitlement/handler"
	listinghandler "trustgate/internal/listing/handler"
	paymenthandler "trustgate/internal/payment/handler"
	"trustgate/internal/platform/middleware"
	verificationhandler "trustgate/internal/verification/handler"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router mounts.
type Deps struct {
	Verification *verificationhandler.Handler
	Entitlement  *entitlementhandler.Handler
	Listing      *listinghandler.Handler
	Payment      *paymenthandler.Handler

	JWTValidator    middleware.JWTValidator
	SweepSecretHash string
	Registry        *prometheus.Registry
	HealthChecks    map[string]HealthCheck
	Logger          *slog.Logger
}

// NewRouter builds the chi router. Three trust zones share one mux: public
// endpoints (promotion reads, webhooks, health, metrics), bearer-token actor
// endpoints, and the admin and scheduler groups.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", handleHealth(d.HealthChecks))
	if d.Registry != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	// Unauthenticated reads and provider callbacks. The webhook authenticates
	// itself via its HMAC signature, not a bearer token.
	d.Listing.Register(r)
	d.Payment.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.JWTValidator, d.Logger))

		d.Verification.Register(r)
		d.Entitlement.Register(r)
		d.Listing.RegisterAuthed(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(d.JWTValidator, d.Logger))
		r.Use(middleware.RequireAdmin(d.Logger))

		d.Verification.RegisterAdmin(r)
		d.Entitlement.RegisterAdmin(r)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.RequireSweepSecret(d.SweepSecretHash, d.Logger))

		d.Entitlement.RegisterInternal(r)
	})

	return r
}

// Package handler wires the entitlement endpoints: buying promotion tiers,
// inspecting purchases, admin cancellation, and the scheduler-facing sweep
// trigger.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/entitlement/models"
	"trustgate/internal/entitlement/sweeper"
	"trustgate/internal/payment"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// Service defines the entitlement operations the handler exposes.
type Service interface {
	Purchase(ctx context.Context, ownerID id.ActorID, targetID id.TargetID, tier id.Tier) (*models.EntitlementPurchase, *payment.Session, error)
	Get(ctx context.Context, purchaseID id.PurchaseID, requester id.ActorID, admin bool) (*models.EntitlementPurchase, error)
	Cancel(ctx context.Context, purchaseID id.PurchaseID, refunded bool, reason string) error
}

// Sweeper runs one expiry pass.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (sweeper.Report, error)
}

type Handler struct {
	service Service
	sweeper Sweeper
	logger  *slog.Logger
}

func New(service Service, sweep Sweeper, logger *slog.Logger) *Handler {
	return &Handler{service: service, sweeper: sweep, logger: logger}
}

// Register mounts the actor-facing entitlement endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/entitlements", h.HandlePurchase)
	r.Get("/entitlements/{purchaseID}", h.HandleGet)
}

// RegisterAdmin mounts the admin endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/entitlements/{purchaseID}/cancel", h.HandleCancel)
}

// RegisterInternal mounts the scheduler-facing sweep trigger.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Post("/sweep", h.HandleSweep)
}

// HandlePurchase handles POST /entitlements.
func (h *Handler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[PurchaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	p, session, err := h.service.Purchase(ctx, actorID, req.ParsedTarget(), req.ParsedTier())
	if err != nil {
		h.logger.WarnContext(ctx, "purchase failed",
			"request_id", requestID,
			"actor_id", actorID,
			"tier", req.Tier,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "purchase created",
		"request_id", requestID,
		"actor_id", actorID,
		"purchase_id", p.ID,
		"tier", p.Tier,
	)
	httputil.WriteJSON(w, http.StatusCreated, fromPurchase(p, session))
}

// HandleGet handles GET /entitlements/{purchaseID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	purchaseID, err := id.ParsePurchaseID(chi.URLParam(r, "purchaseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	admin := requestcontext.ActorRole(ctx) == "admin"
	p, err := h.service.Get(ctx, purchaseID, actorID, admin)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPurchase(p, nil))
}

// HandleCancel handles POST /admin/entitlements/{purchaseID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	purchaseID, err := id.ParsePurchaseID(chi.URLParam(r, "purchaseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CancelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Cancel(ctx, purchaseID, req.Refund, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "cancel failed",
			"request_id", requestID,
			"purchase_id", purchaseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "purchase cancelled by admin",
		"request_id", requestID,
		"purchase_id", purchaseID,
		"refund", req.Refund,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSweep handles POST /internal/sweep. The run is pinned to a single
// instant so every record in the batch sees the same clock.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := requestcontext.Now(ctx)

	report, err := h.sweeper.Sweep(ctx, now)
	if err != nil {
		h.logger.ErrorContext(ctx, "sweep failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// Package handler exposes the promotion read model: the flags and ranking
// boost for a listing, and the enhancement booleans the listing service owns.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/listing/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/platform/sentinel"
	"trustgate/pkg/requestcontext"
)

// Store is the promotion read-model surface the handler needs.
type Store interface {
	Get(ctx context.Context, target id.TargetID) (*models.Promotion, error)
	SetEnhancements(ctx context.Context, target id.TargetID, aiEnhanced, specSheet bool, now time.Time) error
}

// Scorer computes the ranking boost for a promotion.
type Scorer interface {
	Score(p *models.Promotion, now time.Time) int
}

type Handler struct {
	store  Store
	scorer Scorer
	logger *slog.Logger
}

func New(store Store, scorer Scorer, logger *slog.Logger) *Handler {
	return &Handler{store: store, scorer: scorer, logger: logger}
}

// Register mounts the listing promotion endpoints. Reads are public: search
// and listing pages call them unauthenticated.
func (h *Handler) Register(r chi.Router) {
	r.Get("/listings/{listingID}/promotion", h.HandleGetPromotion)
}

// RegisterAuthed mounts the endpoints that mutate listing-owned state.
func (h *Handler) RegisterAuthed(r chi.Router) {
	r.Put("/listings/{listingID}/enhancements", h.HandleSetEnhancements)
}

// HandleGetPromotion handles GET /listings/{listingID}/promotion. A listing
// with no promotion row is simply unpromoted, not an error.
func (h *Handler) HandleGetPromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target, err := id.ParseTargetID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	now := requestcontext.Now(ctx)
	p, err := h.store.Get(ctx, target)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			p = &models.Promotion{TargetID: target}
		} else {
			h.logger.ErrorContext(ctx, "promotion lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"target_id", target,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "promotion lookup failed"))
			return
		}
	}

	httputil.WriteJSON(w, http.StatusOK, fromPromotion(p, h.scorer.Score(p, now), now))
}

// HandleSetEnhancements handles PUT /listings/{listingID}/enhancements.
func (h *Handler) HandleSetEnhancements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	target, err := id.ParseTargetID(chi.URLParam(r, "listingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[EnhancementsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	now := requestcontext.Now(ctx)
	if err := h.store.SetEnhancements(ctx, target, req.AIEnhanced, req.SpecSheet, now); err != nil {
		h.logger.ErrorContext(ctx, "set enhancements failed",
			"request_id", requestID,
			"target_id", target,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "set enhancements failed"))
		return
	}

	p, err := h.store.Get(ctx, target)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "promotion lookup failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromPromotion(p, h.scorer.Score(p, now), now))
}

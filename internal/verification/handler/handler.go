// Package handler wires the verification endpoints: actor-facing submission
// and status, and the admin review surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/verification/models"
	vsvc "trustgate/internal/verification/service"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

// Service defines the verification operations the handler exposes.
type Service interface {
	Submit(ctx context.Context, actorID id.ActorID, actorType id.ActorType, docs []models.Document) (*vsvc.SubmitResult, error)
	Status(ctx context.Context, actorID id.ActorID, actorType id.ActorType) (*models.VerificationCase, error)
	PendingAdmin(ctx context.Context, limit int) ([]*models.VerificationCase, error)
	Decide(ctx context.Context, caseID id.CaseID, reviewerID, decision, reason string) (*vsvc.DecideResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the actor-facing verification endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification", h.HandleSubmit)
	r.Get("/verification", h.HandleStatus)
}

// RegisterAdmin mounts the admin review endpoints.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/verification", h.HandleQueue)
	r.Post("/verification/{caseID}/decision", h.HandleDecision)
}

// HandleSubmit handles POST /verification.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actorID := requestcontext.ActorID(ctx)
	actorType := requestcontext.ActorType(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Submit(ctx, actorID, actorType, req.ToDocuments(requestcontext.Now(ctx)))
	if err != nil {
		h.logger.WarnContext(ctx, "verification submission failed",
			"request_id", requestID,
			"actor_id", actorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification submitted",
		"request_id", requestID,
		"actor_id", actorID,
		"case_id", result.Case.ID,
		"status", result.Case.Status,
	)
	httputil.WriteJSON(w, http.StatusCreated, fromSubmitResult(result))
}

// HandleStatus handles GET /verification.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	c, err := h.service.Status(ctx, actorID, requestcontext.ActorType(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCase(c, nil))
}

// HandleQueue handles GET /admin/verification.
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	cases, err := h.service.PendingAdmin(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": fromCasesAdmin(cases)})
}

// HandleDecision handles POST /admin/verification/{caseID}/decision.
func (h *Handler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caseID, err := id.ParseCaseID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reviewerID := requestcontext.ActorID(ctx)
	result, err := h.service.Decide(ctx, caseID, reviewerID.String(), req.Decision, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "admin decision failed",
			"request_id", requestID,
			"case_id", caseID,
			"decision", req.Decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "admin decision applied",
		"request_id", requestID,
		"case_id", caseID,
		"decision", req.Decision,
		"reviewer_id", reviewerID,
	)
	httputil.WriteJSON(w, http.StatusOK, fromDecideResult(result))
}

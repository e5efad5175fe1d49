// Package handler receives payment provider webhooks and hands them to the
// payment gate. The Kafka consumer is the other delivery path into the same
// gate.
package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustgate/internal/payment"
	dErrors "trustgate/pkg/domain-errors"
	"trustgate/pkg/platform/httputil"
	"trustgate/pkg/requestcontext"
)

const maxWebhookBody = 64 * 1024

// Gate is the confirmation entry point the handler feeds.
type Gate interface {
	HandleConfirmation(ctx context.Context, c *payment.Confirmation) error
}

type Handler struct {
	gate          Gate
	signingSecret string
	logger        *slog.Logger
}

// New constructs the webhook handler. signingSecret verifies the provider's
// HMAC signature header; empty disables verification for local development.
func New(gate Gate, signingSecret string, logger *slog.Logger) *Handler {
	return &Handler{gate: gate, signingSecret: signingSecret, logger: logger}
}

// Register mounts the webhook endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/payment", h.HandleWebhook)
}

// HandleWebhook handles POST /webhooks/payment. The gate deduplicates, so a
// provider retrying a delivery it already made gets a 200 and no effect.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "read webhook body"))
		return
	}

	if h.signingSecret != "" && !h.verifySignature(body, r.Header.Get("X-Payment-Signature")) {
		h.logger.WarnContext(ctx, "webhook signature rejected", "request_id", requestID)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid webhook signature"))
		return
	}

	confirmation, err := payment.ParseConfirmation(body)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed webhook payload",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	if err := h.gate.HandleConfirmation(ctx, confirmation); err != nil {
		h.logger.ErrorContext(ctx, "payment confirmation failed",
			"request_id", requestID,
			"event_id", confirmation.EventID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "payment confirmation processed",
		"request_id", requestID,
		"event_id", confirmation.EventID,
		"kind", confirmation.Kind,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

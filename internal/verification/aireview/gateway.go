// Package aireview adapts the external document-analysis service. The
// gateway returns honest errors; deciding what a failed screening means for
// the case is the verification service's call.
package aireview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"trustgate/internal/platform/config"
	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	dErrors "trustgate/pkg/domain-errors"
)

// Result is the screening outcome for a document set.
type Result struct {
	Verdict    string `json:"verdict"`
	Confidence int    `json:"confidence"`
	Notes      string `json:"notes,omitempty"`
}

// Gateway calls the document-analysis HTTP API.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(cfg config.AIReviewConfig) *Gateway {
	return &Gateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type analyzeRequest struct {
	ActorType string            `json:"actor_type"`
	Documents []models.Document `json:"documents"`
}

// Analyze submits the document set for screening.
func (g *Gateway) Analyze(ctx context.Context, actorType id.ActorType, docs []models.Document) (*Result, error) {
	body, err := json.Marshal(analyzeRequest{ActorType: actorType.String(), Documents: docs})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode analysis request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build analysis request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "document analysis timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "document analysis unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("document analysis returned %d", resp.StatusCode))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode analysis response")
	}
	switch result.Verdict {
	case models.VerdictApproved, models.VerdictRejected, models.VerdictNeedsReview:
	default:
		return nil, dErrors.New(dErrors.CodeUnavailable, "document analysis returned unknown verdict")
	}
	if result.Confidence < 0 || result.Confidence > 100 {
		return nil, dErrors.New(dErrors.CodeUnavailable, "document analysis returned out-of-range confidence")
	}
	return &result, nil
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"trustgate/internal/platform/config"
	dErrors "trustgate/pkg/domain-errors"
)

// Client opens checkout sessions and cancels subscriptions with the provider.
type Client interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	CancelSubscription(ctx context.Context, paymentRef string) error
}

// HTTPClient talks to the provider's checkout API over HTTPS.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(cfg config.CheckoutConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *HTTPClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode checkout session request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "checkout provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("checkout provider returned %d: %s", resp.StatusCode, snippet))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode checkout session response")
	}
	if session.ID == "" {
		return nil, dErrors.New(dErrors.CodeUnavailable, "checkout provider returned empty session")
	}
	return &session, nil
}

func (c *HTTPClient) CancelSubscription(ctx context.Context, paymentRef string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/subscriptions/"+paymentRef, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build cancel request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "checkout provider unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, "subscription not found at provider")
	default:
		return dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("cancel subscription returned %d", resp.StatusCode))
	}
}

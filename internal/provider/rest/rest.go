package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hikayahq/storefront/internal/provider"
	"github.com/hikayahq/storefront/pkg/httpclient"
)

// Provider talks to an external payment service over HTTP. Calls go through
// a circuit breaker so a degraded provider sheds load fast instead of tying
// up request handlers.
type Provider struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewProvider creates a REST payment provider against the given base URL.
func NewProvider(baseURL string, logger *slog.Logger) *Provider {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(
		client,
		httpclient.DefaultCircuitBreakerConfig("payment-provider"),
		logger,
	)

	return &Provider{
		client:  cb,
		baseURL: baseURL,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "rest"
}

type intentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// CreateIntent opens a charge with the external payment service.
func (p *Provider) CreateIntent(ctx context.Context, input *provider.IntentInput) (*provider.IntentResult, error) {
	body, err := json.Marshal(intentRequest{
		Amount:      input.Amount,
		Currency:    input.Currency,
		Description: input.Description,
		Metadata:    input.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	resp, err := p.client.Post(ctx, p.baseURL+"/v1/payment_intents", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "payment-provider")
	}

	var out intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	return &provider.IntentResult{
		ProviderPaymentID: out.ID,
		ClientSecret:      out.ClientSecret,
		Status:            out.Status,
	}, nil
}

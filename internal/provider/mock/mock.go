package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hikayahq/storefront/internal/provider"
)

// Provider is a mock payment provider that always opens a charge.
// It is intended for development and testing purposes.
type Provider struct{}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreateIntent simulates opening a charge with the provider. The returned
// handle stays pending until a webhook notification settles it.
func (p *Provider) CreateIntent(_ context.Context, _ *provider.IntentInput) (*provider.IntentResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	id := "mock_pi_" + uuid.New().String()
	return &provider.IntentResult{
		ProviderPaymentID: id,
		ClientSecret:      id + "_secret_" + uuid.New().String(),
		Status:            "pending",
	}, nil
}

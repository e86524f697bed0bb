package provider

import (
	"context"
)

// IntentInput holds the parameters for opening a charge with the payment
// provider.
type IntentInput struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// IntentResult holds the charge handle issued by the payment provider. The
// handle is what later webhook notifications reference.
type IntentResult struct {
	ProviderPaymentID string
	ClientSecret      string
	Status            string
}

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "rest").
	Name() string

	// CreateIntent opens a charge with the provider and returns its handle.
	CreateIntent(ctx context.Context, input *IntentInput) (*IntentResult, error)
}

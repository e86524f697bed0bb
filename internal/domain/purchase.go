package domain

import (
	"time"
)

// Purchase status constants. Transitions are one-directional:
// pending → completed or pending → failed. A terminal entry never regresses.
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
)

// Purchase is a durable record of a purchase attempt. ProviderPaymentID is
// the opaque charge handle issued by the payment provider; the settlement
// reconciler matches asynchronous provider notifications against it.
type Purchase struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	StoryID           string    `json:"story_id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ValidPurchaseStatuses returns all valid purchase statuses.
func ValidPurchaseStatuses() []string {
	return []string{
		PurchaseStatusPending,
		PurchaseStatusCompleted,
		PurchaseStatusFailed,
	}
}

// IsValidPurchaseStatus checks whether the given status is a valid purchase status.
func IsValidPurchaseStatus(status string) bool {
	for _, s := range ValidPurchaseStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the purchase has reached a terminal status.
func (p *Purchase) IsTerminal() bool {
	return p.Status == PurchaseStatusCompleted || p.Status == PurchaseStatusFailed
}

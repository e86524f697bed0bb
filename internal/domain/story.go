package domain

import (
	"time"
)

// Story category constants.
const (
	CategoryAdventure      = "adventure"
	CategoryRomance        = "romance"
	CategoryMystery        = "mystery"
	CategoryScienceFiction = "science-fiction"
	CategoryChildren       = "children"
	CategoryOther          = "other"
)

// Story represents a catalog item offered for purchase. Price is the charge
// amount in the smallest currency unit (halalas for SAR). PurchaseCount is
// mutated only by the settlement reconciler, never by client actions.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	Content       string    `json:"content,omitempty"`
	Category      string    `json:"category"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	ImageURL      string    `json:"image_url,omitempty"`
	Rating        float64   `json:"rating"`
	PurchaseCount int       `json:"purchase_count"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ValidCategories returns the set of valid story categories.
func ValidCategories() []string {
	return []string{
		CategoryAdventure,
		CategoryRomance,
		CategoryMystery,
		CategoryScienceFiction,
		CategoryChildren,
		CategoryOther,
	}
}

// IsValidCategory checks whether the given category is a valid story category.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories() {
		if c == category {
			return true
		}
	}
	return false
}

package repository

import (
	"context"
	"time"

	"github.com/hikayahq/storefront/internal/domain"
)

// UserRepository defines the interface for account persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store. Emails are stored lowercased
	// and must be unique.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by its lowercased email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetTokenHash retrieves the user holding the given pending reset
	// token digest. Returns ErrNotFound when no user holds it.
	GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// MarkVerified flips the verified flag and clears the verification code,
	// but only if the stored code matches and has not expired at the given
	// instant. Returns false when no row transitioned.
	MarkVerified(ctx context.Context, userID, code string, now time.Time) (bool, error)

	// List returns users with pagination support, newest first.
	// Returns the user slice, the total count, and any error.
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)
}

// StoryRepository defines the interface for catalog persistence operations.
type StoryRepository interface {
	// Create inserts a new story into the store.
	Create(ctx context.Context, story *domain.Story) error

	// GetByID retrieves a story by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Story, error)

	// Update modifies an existing story in the store.
	Update(ctx context.Context, story *domain.Story) error

	// Delete removes a story from the store.
	Delete(ctx context.Context, id string) error

	// List returns stories with optional category filtering and pagination,
	// newest first. Returns the story slice, the total count, and any error.
	List(ctx context.Context, category string, offset, limit int) ([]domain.Story, int, error)

	// IncrementPurchaseCount bumps the sale counter for a story.
	IncrementPurchaseCount(ctx context.Context, id string) error
}

// LibraryEntry is a completed purchase joined with its story for the
// owned-content listing.
type LibraryEntry struct {
	Purchase domain.Purchase `json:"purchase"`
	Story    domain.Story    `json:"story"`
}

// AnalyticsTotals aggregates marketplace counters for the admin dashboard.
type AnalyticsTotals struct {
	TotalUsers       int   `json:"total_users"`
	TotalStories     int   `json:"total_stories"`
	TotalPurchases   int   `json:"total_purchases"`
	CompletedRevenue int64 `json:"completed_revenue"`
	PendingPurchases int   `json:"pending_purchases"`
	FailedPurchases  int   `json:"failed_purchases"`
}

// PurchaseRepository defines the interface for purchase ledger operations.
type PurchaseRepository interface {
	// Create inserts a new pending purchase into the ledger.
	Create(ctx context.Context, purchase *domain.Purchase) error

	// GetByID retrieves a purchase by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Purchase, error)

	// HasCompleted reports whether the user already owns the story.
	HasCompleted(ctx context.Context, userID, storyID string) (bool, error)

	// CompleteIfPending atomically transitions the purchase matching the
	// provider payment ID from pending to completed. Returns the transitioned
	// purchase, or nil when no pending row matched.
	CompleteIfPending(ctx context.Context, providerPaymentID string) (*domain.Purchase, error)

	// FailIfPending atomically transitions the purchase matching the provider
	// payment ID from pending to failed. Returns the transitioned purchase,
	// or nil when no pending row matched.
	FailIfPending(ctx context.Context, providerPaymentID string) (*domain.Purchase, error)

	// ListLibrary returns the user's completed purchases joined with their
	// stories, newest first.
	ListLibrary(ctx context.Context, userID string, offset, limit int) ([]LibraryEntry, int, error)

	// ListByUserID returns all purchases for a user regardless of status.
	ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Purchase, int, error)

	// ListAll returns purchases across all users with pagination, newest first.
	ListAll(ctx context.Context, offset, limit int) ([]domain.Purchase, int, error)

	// Analytics computes aggregate marketplace totals.
	Analytics(ctx context.Context) (*AnalyticsTotals, error)
}

// SessionRepository defines the interface for the token revocation registry.
// Sessions are keyed by the SHA-256 hash of the bearer token.
type SessionRepository interface {
	// Save stores a session under its token hash with a TTL matching the
	// token's remaining lifetime.
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves the session for a token hash. Returns ErrNotFound when
	// no live session exists.
	Get(ctx context.Context, tokenHash string) (*domain.Session, error)

	// Delete removes the session for a token hash. Deleting a missing
	// session is not an error.
	Delete(ctx context.Context, tokenHash string) error
}

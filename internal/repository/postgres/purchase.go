package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/internal/repository"
	"github.com/hikayahq/storefront/pkg/database"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

// PurchaseRepository implements repository.PurchaseRepository using PostgreSQL.
type PurchaseRepository struct {
	db database.DBTX
}

// NewPurchaseRepository creates a new PostgreSQL-backed purchase repository.
func NewPurchaseRepository(db database.DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `id, user_id, story_id, amount, currency, provider_payment_id, status, created_at, updated_at`

// Create inserts a new pending purchase into the ledger.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	query := `
		INSERT INTO purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.StoryID,
		p.Amount,
		p.Currency,
		p.ProviderPaymentID,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("purchase", "provider_payment_id", p.ProviderPaymentID)
		}
		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// GetByID retrieves a purchase by its ID.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*domain.Purchase, error) {
	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE id = $1`

	return r.scanPurchase(ctx, query, id)
}

// HasCompleted reports whether the user already owns the story.
func (r *PurchaseRepository) HasCompleted(ctx context.Context, userID, storyID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM purchases
			WHERE user_id = $1 AND story_id = $2 AND status = 'completed'
		)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, storyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check completed purchase: %w", err)
	}

	return exists, nil
}

// CompleteIfPending transitions the purchase from pending to completed in a
// single compare-and-set statement. The status guard in the WHERE clause is
// what makes settlement idempotent under replayed and concurrent
// notifications: exactly one caller observes the transitioned row.
func (r *PurchaseRepository) CompleteIfPending(ctx context.Context, providerPaymentID string) (*domain.Purchase, error) {
	return r.transitionIfPending(ctx, providerPaymentID, domain.PurchaseStatusCompleted)
}

// FailIfPending transitions the purchase from pending to failed using the
// same compare-and-set guard as CompleteIfPending.
func (r *PurchaseRepository) FailIfPending(ctx context.Context, providerPaymentID string) (*domain.Purchase, error) {
	return r.transitionIfPending(ctx, providerPaymentID, domain.PurchaseStatusFailed)
}

func (r *PurchaseRepository) transitionIfPending(ctx context.Context, providerPaymentID, status string) (*domain.Purchase, error) {
	query := `
		UPDATE purchases
		SET status = $2, updated_at = $3
		WHERE provider_payment_id = $1 AND status = 'pending'
		RETURNING ` + purchaseColumns

	var p domain.Purchase
	row := r.db.QueryRow(ctx, query, providerPaymentID, status, time.Now().UTC())
	if err := scanPurchaseRow(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("transition purchase to %s: %w", status, err)
	}

	return &p, nil
}

// ListLibrary returns the user's completed purchases joined with their
// stories, newest purchase first.
func (r *PurchaseRepository) ListLibrary(ctx context.Context, userID string, offset, limit int) ([]repository.LibraryEntry, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM purchases p
		JOIN stories s ON s.id = p.story_id
		WHERE p.user_id = $1 AND p.status = 'completed'`

	var total int
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count library: %w", err)
	}

	query := `
		SELECT p.id, p.user_id, p.story_id, p.amount, p.currency, p.provider_payment_id, p.status, p.created_at, p.updated_at,
		       s.id, s.title, s.slug, s.author, s.description, s.content, s.category, s.price, s.currency, s.image_url, s.rating, s.purchase_count, s.created_by, s.created_at, s.updated_at
		FROM purchases p
		JOIN stories s ON s.id = p.story_id
		WHERE p.user_id = $1 AND p.status = 'completed'
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list library: %w", err)
	}
	defer rows.Close()

	entries := make([]repository.LibraryEntry, 0, limit)
	for rows.Next() {
		var e repository.LibraryEntry
		err := rows.Scan(
			&e.Purchase.ID,
			&e.Purchase.UserID,
			&e.Purchase.StoryID,
			&e.Purchase.Amount,
			&e.Purchase.Currency,
			&e.Purchase.ProviderPaymentID,
			&e.Purchase.Status,
			&e.Purchase.CreatedAt,
			&e.Purchase.UpdatedAt,
			&e.Story.ID,
			&e.Story.Title,
			&e.Story.Slug,
			&e.Story.Author,
			&e.Story.Description,
			&e.Story.Content,
			&e.Story.Category,
			&e.Story.Price,
			&e.Story.Currency,
			&e.Story.ImageURL,
			&e.Story.Rating,
			&e.Story.PurchaseCount,
			&e.Story.CreatedBy,
			&e.Story.CreatedAt,
			&e.Story.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan library row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate library: %w", err)
	}

	return entries, total, nil
}

// ListByUserID returns all purchases for a user regardless of status.
func (r *PurchaseRepository) ListByUserID(ctx context.Context, userID string, offset, limit int) ([]domain.Purchase, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.listPurchases(ctx, total, query, userID, limit, offset)
}

// ListAll returns purchases across all users with pagination, newest first.
func (r *PurchaseRepository) ListAll(ctx context.Context, offset, limit int) ([]domain.Purchase, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}

	query := `
		SELECT ` + purchaseColumns + `
		FROM purchases
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	return r.listPurchases(ctx, total, query, limit, offset)
}

// Analytics computes aggregate marketplace totals for the admin dashboard.
func (r *PurchaseRepository) Analytics(ctx context.Context) (*repository.AnalyticsTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM stories),
			(SELECT COUNT(*) FROM purchases),
			(SELECT COALESCE(SUM(amount), 0) FROM purchases WHERE status = 'completed'),
			(SELECT COUNT(*) FROM purchases WHERE status = 'pending'),
			(SELECT COUNT(*) FROM purchases WHERE status = 'failed')`

	var t repository.AnalyticsTotals
	err := r.db.QueryRow(ctx, query).Scan(
		&t.TotalUsers,
		&t.TotalStories,
		&t.TotalPurchases,
		&t.CompletedRevenue,
		&t.PendingPurchases,
		&t.FailedPurchases,
	)
	if err != nil {
		return nil, fmt.Errorf("compute analytics: %w", err)
	}

	return &t, nil
}

func (r *PurchaseRepository) listPurchases(ctx context.Context, total int, query string, args ...any) ([]domain.Purchase, int, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0)
	for rows.Next() {
		var p domain.Purchase
		if err := scanPurchaseRow(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan purchase row: %w", err)
		}
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate purchases: %w", err)
	}

	return purchases, total, nil
}

func (r *PurchaseRepository) scanPurchase(ctx context.Context, query string, args ...any) (*domain.Purchase, error) {
	var p domain.Purchase
	row := r.db.QueryRow(ctx, query, args...)
	if err := scanPurchaseRow(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	return &p, nil
}

func scanPurchaseRow(row pgx.Row, p *domain.Purchase) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.StoryID,
		&p.Amount,
		&p.Currency,
		&p.ProviderPaymentID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

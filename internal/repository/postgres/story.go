package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/pkg/database"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

// StoryRepository implements repository.StoryRepository using PostgreSQL.
type StoryRepository struct {
	db database.DBTX
}

// NewStoryRepository creates a new PostgreSQL-backed story repository.
func NewStoryRepository(db database.DBTX) *StoryRepository {
	return &StoryRepository{db: db}
}

const storyColumns = `id, title, slug, author, description, content, category, price, currency, image_url, rating, purchase_count, created_by, created_at, updated_at`

// Create inserts a new story into the database.
func (r *StoryRepository) Create(ctx context.Context, s *domain.Story) error {
	query := `
		INSERT INTO stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(ctx, query,
		s.ID,
		s.Title,
		s.Slug,
		s.Author,
		s.Description,
		s.Content,
		s.Category,
		s.Price,
		s.Currency,
		s.ImageURL,
		s.Rating,
		s.PurchaseCount,
		s.CreatedBy,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("story", "slug", s.Slug)
		}
		return fmt.Errorf("insert story: %w", err)
	}

	return nil
}

// GetByID retrieves a story by its ID.
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*domain.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE id = $1`

	var s domain.Story
	row := r.db.QueryRow(ctx, query, id)
	if err := scanStoryRow(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("story", id)
		}
		return nil, fmt.Errorf("scan story: %w", err)
	}

	return &s, nil
}

// Update modifies an existing story in the database.
func (r *StoryRepository) Update(ctx context.Context, s *domain.Story) error {
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE stories
		SET title = $1, slug = $2, author = $3, description = $4, content = $5,
		    category = $6, price = $7, currency = $8, image_url = $9, rating = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		s.Title,
		s.Slug,
		s.Author,
		s.Description,
		s.Content,
		s.Category,
		s.Price,
		s.Currency,
		s.ImageURL,
		s.Rating,
		s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("story", s.ID)
	}

	return nil
}

// Delete removes a story from the database.
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("story", id)
	}

	return nil
}

// List returns stories ordered by creation time descending, optionally
// filtered by category, with a total count.
func (r *StoryRepository) List(ctx context.Context, category string, offset, limit int) ([]domain.Story, int, error) {
	countQuery := `SELECT COUNT(*) FROM stories`
	listQuery := `
		SELECT ` + storyColumns + `
		FROM stories
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	countArgs := []any{}
	listArgs := []any{limit, offset}

	if category != "" {
		countQuery = `SELECT COUNT(*) FROM stories WHERE category = $1`
		listQuery = `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE category = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
		countArgs = []any{category}
		listArgs = []any{category, limit, offset}
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stories: %w", err)
	}

	rows, err := r.db.Query(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]domain.Story, 0, limit)
	for rows.Next() {
		var s domain.Story
		if err := scanStoryRow(rows, &s); err != nil {
			return nil, 0, fmt.Errorf("scan story row: %w", err)
		}
		stories = append(stories, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate stories: %w", err)
	}

	return stories, total, nil
}

// IncrementPurchaseCount bumps the sale counter for a story. A missing story
// is not an error here: the counter is best-effort bookkeeping driven by
// settlement, and the ledger row remains the source of truth.
func (r *StoryRepository) IncrementPurchaseCount(ctx context.Context, id string) error {
	query := `
		UPDATE stories
		SET purchase_count = purchase_count + 1, updated_at = $2
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment purchase count: %w", err)
	}

	return nil
}

func scanStoryRow(row pgx.Row, s *domain.Story) error {
	return row.Scan(
		&s.ID,
		&s.Title,
		&s.Slug,
		&s.Author,
		&s.Description,
		&s.Content,
		&s.Category,
		&s.Price,
		&s.Currency,
		&s.ImageURL,
		&s.Rating,
		&s.PurchaseCount,
		&s.CreatedBy,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/pkg/database"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

func sampleStory() *domain.Story {
	return &domain.Story{
		ID:            "33333333-3333-3333-3333-333333333333",
		Title:         "The Lost City",
		Slug:          "the-lost-city",
		Author:        "A. Writer",
		Description:   "An expedition goes wrong.",
		Content:       "full story text",
		Category:      domain.CategoryAdventure,
		Price:         1500,
		Currency:      "SAR",
		Rating:        4.5,
		PurchaseCount: 3,
		CreatedBy:     "admin-1",
		CreatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

var storyColumnNames = []string{
	"id", "title", "slug", "author", "description", "content", "category",
	"price", "currency", "image_url", "rating", "purchase_count",
	"created_by", "created_at", "updated_at",
}

func storyRow(s *domain.Story) *pgxmock.Rows {
	return pgxmock.NewRows(storyColumnNames).AddRow(
		s.ID, s.Title, s.Slug, s.Author, s.Description, s.Content, s.Category,
		s.Price, s.Currency, s.ImageURL, s.Rating, s.PurchaseCount,
		s.CreatedBy, s.CreatedAt, s.UpdatedAt,
	)
}

func TestStoryRepository_Create(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStoryRepository(mock)
	s := sampleStory()

	mock.ExpectExec("INSERT INTO stories").
		WithArgs(
			s.ID, s.Title, s.Slug, s.Author, s.Description, s.Content, s.Category,
			s.Price, s.Currency, s.ImageURL, s.Rating, s.PurchaseCount,
			s.CreatedBy, s.CreatedAt, s.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_GetByID_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStoryRepository(mock)

	mock.ExpectQuery("SELECT (.+) FROM stories").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByID(context.Background(), "missing-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_List_FiltersByCategory(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStoryRepository(mock)
	s := sampleStory()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(domain.CategoryAdventure).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM stories").
		WithArgs(domain.CategoryAdventure, 20, 0).
		WillReturnRows(storyRow(s))

	stories, total, err := repo.List(context.Background(), domain.CategoryAdventure, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, stories, 1)
	assert.Equal(t, s.Slug, stories[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_IncrementPurchaseCount(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStoryRepository(mock)

	mock.ExpectExec("UPDATE stories").
		WithArgs("story-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.IncrementPurchaseCount(context.Background(), "story-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_Delete_NotFound(t *testing.T) {
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewStoryRepository(mock)

	mock.ExpectExec("DELETE FROM stories").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err = repo.Delete(context.Background(), "missing-id")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/internal/repository"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
	"github.com/hikayahq/storefront/pkg/slug"
)

// StoryService implements the business logic for catalog operations.
type StoryService struct {
	storyRepo repository.StoryRepository
	currency  string
	logger    *slog.Logger
}

// NewStoryService creates a new story service.
func NewStoryService(storyRepo repository.StoryRepository, currency string, logger *slog.Logger) *StoryService {
	return &StoryService{
		storyRepo: storyRepo,
		currency:  currency,
		logger:    logger,
	}
}

// CreateStoryInput holds the parameters for creating a catalog item.
type CreateStoryInput struct {
	Title       string
	Author      string
	Description string
	Content     string
	Category    string
	Price       int64
	ImageURL    string
}

// Create adds a new story to the catalog. Admin only; enforced at the router.
func (s *StoryService) Create(ctx context.Context, createdBy string, input CreateStoryInput) (*domain.Story, error) {
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Price <= 0 {
		return nil, apperrors.InvalidInput("price must be positive")
	}
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput("invalid category: " + input.Category)
	}

	now := time.Now().UTC()
	story := &domain.Story{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Slug:        slug.Generate(input.Title),
		Author:      input.Author,
		Description: input.Description,
		Content:     input.Content,
		Category:    input.Category,
		Price:       input.Price,
		Currency:    s.currency,
		ImageURL:    input.ImageURL,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.storyRepo.Create(ctx, story); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "story created",
		slog.String("story_id", story.ID),
		slog.String("slug", story.Slug),
	)

	return story, nil
}

// Get retrieves a single story with its full content.
func (s *StoryService) Get(ctx context.Context, id string) (*domain.Story, error) {
	return s.storyRepo.GetByID(ctx, id)
}

// List returns stories for the public catalog. Content is stripped so the
// listing never leaks paid material.
func (s *StoryService) List(ctx context.Context, category string, offset, limit int) ([]domain.Story, int, error) {
	if category != "" && !domain.IsValidCategory(category) {
		return nil, 0, apperrors.InvalidInput("invalid category: " + category)
	}

	stories, total, err := s.storyRepo.List(ctx, category, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list stories: %w", err)
	}

	for i := range stories {
		stories[i].Content = ""
	}

	return stories, total, nil
}

// Delete removes a story from the catalog.
func (s *StoryService) Delete(ctx context.Context, id string) error {
	if err := s.storyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "story deleted",
		slog.String("story_id", id),
	)

	return nil
}

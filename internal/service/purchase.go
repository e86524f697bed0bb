package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/internal/event"
	"github.com/hikayahq/storefront/internal/provider"
	"github.com/hikayahq/storefront/internal/repository"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

// Provider event types recognized by the settlement reconciler.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// PurchaseService implements the purchase ledger and settlement reconciler.
type PurchaseService struct {
	purchaseRepo repository.PurchaseRepository
	storyRepo    repository.StoryRepository
	provider     provider.Provider
	producer     *event.Producer
	logger       *slog.Logger
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	storyRepo repository.StoryRepository,
	paymentProvider provider.Provider,
	producer *event.Producer,
	logger *slog.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		storyRepo:    storyRepo,
		provider:     paymentProvider,
		producer:     producer,
		logger:       logger,
	}
}

// IntentResult bundles the pending ledger row with the provider's handle.
type IntentResult struct {
	Purchase     *domain.Purchase
	ClientSecret string
}

// CreateIntent opens a charge with the payment provider and records a
// pending purchase referencing its handle. Client retries may leave extra
// pending rows behind; only the row the provider settles ever completes.
func (s *PurchaseService) CreateIntent(ctx context.Context, userID, storyID string) (*IntentResult, error) {
	story, err := s.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.Price <= 0 {
		return nil, apperrors.InvalidInput("story is not purchasable")
	}

	owned, err := s.purchaseRepo.HasCompleted(ctx, userID, storyID)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	if owned {
		return nil, apperrors.AlreadyExists("purchase", "story_id", storyID)
	}

	intent, err := s.provider.CreateIntent(ctx, &provider.IntentInput{
		Amount:      story.Price,
		Currency:    story.Currency,
		Description: story.Title,
		Metadata: map[string]string{
			"user_id":  userID,
			"story_id": storyID,
		},
	})
	if err != nil {
		return nil, apperrors.PaymentFailed("could not open charge with payment provider")
	}

	now := time.Now().UTC()
	purchase := &domain.Purchase{
		ID:                uuid.New().String(),
		UserID:            userID,
		StoryID:           storyID,
		Amount:            story.Price,
		Currency:          story.Currency,
		ProviderPaymentID: intent.ProviderPaymentID,
		Status:            domain.PurchaseStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.purchaseRepo.Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("record pending purchase: %w", err)
	}

	s.logger.InfoContext(ctx, "payment intent created",
		slog.String("purchase_id", purchase.ID),
		slog.String("story_id", storyID),
		slog.String("provider_payment_id", intent.ProviderPaymentID),
	)

	return &IntentResult{Purchase: purchase, ClientSecret: intent.ClientSecret}, nil
}

// HandleProviderEvent reconciles an authenticated provider notification
// against the ledger. The webhook handler verifies the signature before
// calling here; this method only decides what, if anything, transitions.
//
// Unknown event types and unknown charge handles are acknowledged without
// state change: the provider retries on non-2xx, and retrying cannot make
// an unknown handle known.
func (s *PurchaseService) HandleProviderEvent(ctx context.Context, eventType, providerPaymentID string) error {
	switch eventType {
	case EventPaymentSucceeded:
		return s.settleSuccess(ctx, providerPaymentID)
	case EventPaymentFailed:
		return s.settleFailure(ctx, providerPaymentID)
	default:
		s.logger.DebugContext(ctx, "ignoring provider event",
			slog.String("event_type", eventType),
		)
		return nil
	}
}

// settleSuccess performs the pending→completed transition. Side effects
// (sale counter, receipt, fan-out) run only for the invocation that actually
// transitioned the row, and their failures are logged, never propagated:
// the settlement is durable once the update commits.
func (s *PurchaseService) settleSuccess(ctx context.Context, providerPaymentID string) error {
	purchase, err := s.purchaseRepo.CompleteIfPending(ctx, providerPaymentID)
	if err != nil {
		return fmt.Errorf("complete purchase: %w", err)
	}
	if purchase == nil {
		// Replay, concurrent delivery, or a handle this ledger never issued.
		s.logger.InfoContext(ctx, "no pending purchase for provider event",
			slog.String("provider_payment_id", providerPaymentID),
		)
		return nil
	}

	if err := s.storyRepo.IncrementPurchaseCount(ctx, purchase.StoryID); err != nil {
		s.logger.ErrorContext(ctx, "failed to increment purchase count",
			slog.String("story_id", purchase.StoryID),
			slog.String("error", err.Error()),
		)
	}

	if s.producer != nil {
		if err := s.producer.PublishPurchaseCompleted(ctx, purchase); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish purchase.completed event",
				slog.String("purchase_id", purchase.ID),
				slog.String("error", err.Error()),
			)
		}

		if err := s.producer.PublishPurchaseReceipt(ctx, purchase); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish receipt event",
				slog.String("purchase_id", purchase.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "purchase completed",
		slog.String("purchase_id", purchase.ID),
		slog.String("user_id", purchase.UserID),
	)

	return nil
}

func (s *PurchaseService) settleFailure(ctx context.Context, providerPaymentID string) error {
	purchase, err := s.purchaseRepo.FailIfPending(ctx, providerPaymentID)
	if err != nil {
		return fmt.Errorf("fail purchase: %w", err)
	}
	if purchase == nil {
		return nil
	}

	s.logger.InfoContext(ctx, "purchase failed",
		slog.String("purchase_id", purchase.ID),
		slog.String("provider_payment_id", providerPaymentID),
	)

	return nil
}

// Library returns the user's completed purchases joined with their stories.
func (s *PurchaseService) Library(ctx context.Context, userID string, offset, limit int) ([]repository.LibraryEntry, int, error) {
	return s.purchaseRepo.ListLibrary(ctx, userID, offset, limit)
}

// ListAll returns purchases across all users for the admin listing.
func (s *PurchaseService) ListAll(ctx context.Context, offset, limit int) ([]domain.Purchase, int, error) {
	return s.purchaseRepo.ListAll(ctx, offset, limit)
}

// ListByUser returns one user's purchases regardless of status, for the
// admin listing's per-user filter.
func (s *PurchaseService) ListByUser(ctx context.Context, userID string, offset, limit int) ([]domain.Purchase, int, error) {
	return s.purchaseRepo.ListByUserID(ctx, userID, offset, limit)
}

// Analytics computes aggregate marketplace totals for the admin dashboard.
func (s *PurchaseService) Analytics(ctx context.Context) (*repository.AnalyticsTotals, error) {
	return s.purchaseRepo.Analytics(ctx)
}

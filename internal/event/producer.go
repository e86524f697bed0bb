package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hikayahq/storefront/internal/domain"
	pkgkafka "github.com/hikayahq/storefront/pkg/kafka"
)

// Kafka topics for storefront domain events. The notification topics feed
// the outbound message-delivery service; the purchase topic is the
// settlement fan-out.
var (
	TopicEmailVerification = pkgkafka.Topic("notification", "email_verification")
	TopicPasswordReset     = pkgkafka.Topic("notification", "password_reset")
	TopicPurchaseReceipt   = pkgkafka.Topic("notification", "receipt")
	TopicPurchaseCompleted = pkgkafka.Topic("purchase", "completed")
)

// Aggregate type constants.
const (
	AggregateTypeUser     = "user"
	AggregateTypePurchase = "purchase"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// EmailVerificationData is the payload for a notification.email_verification event.
type EmailVerificationData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Code   string `json:"code"`
}

// PasswordResetData is the payload for a notification.password_reset event.
// Token is the raw reset token; only its hash is ever persisted.
type PasswordResetData struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

// PurchaseReceiptData is the payload for a notification.receipt event.
type PurchaseReceiptData struct {
	PurchaseID string `json:"purchase_id"`
	UserID     string `json:"user_id"`
	StoryID    string `json:"story_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// PurchaseCompletedData is the payload for a purchase.completed event.
type PurchaseCompletedData struct {
	PurchaseID        string `json:"purchase_id"`
	UserID            string `json:"user_id"`
	StoryID           string `json:"story_id"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	ProviderPaymentID string `json:"provider_payment_id"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the storefront service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishEmailVerification publishes a verification-code delivery request.
func (p *Producer) PublishEmailVerification(ctx context.Context, user *domain.User, code string) error {
	data := EmailVerificationData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Code:   code,
	}

	event, err := pkgkafka.NewEvent(TopicEmailVerification, user.ID, AggregateTypeUser, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create email_verification event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicEmailVerification, event); err != nil {
		return fmt.Errorf("publish email_verification event: %w", err)
	}

	p.logger.DebugContext(ctx, "published email_verification event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishPasswordReset publishes a reset-token delivery request.
func (p *Producer) PublishPasswordReset(ctx context.Context, user *domain.User, token string) error {
	data := PasswordResetData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
	}

	event, err := pkgkafka.NewEvent(TopicPasswordReset, user.ID, AggregateTypeUser, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create password_reset event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPasswordReset, event); err != nil {
		return fmt.Errorf("publish password_reset event: %w", err)
	}

	p.logger.DebugContext(ctx, "published password_reset event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishPurchaseReceipt publishes a receipt delivery request after settlement.
func (p *Producer) PublishPurchaseReceipt(ctx context.Context, purchase *domain.Purchase) error {
	data := PurchaseReceiptData{
		PurchaseID: purchase.ID,
		UserID:     purchase.UserID,
		StoryID:    purchase.StoryID,
		Amount:     purchase.Amount,
		Currency:   purchase.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicPurchaseReceipt, purchase.ID, AggregateTypePurchase, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create receipt event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPurchaseReceipt, event); err != nil {
		return fmt.Errorf("publish receipt event: %w", err)
	}

	p.logger.DebugContext(ctx, "published receipt event",
		slog.String("purchase_id", purchase.ID),
	)

	return nil
}

// PublishPurchaseCompleted publishes a purchase.completed event.
func (p *Producer) PublishPurchaseCompleted(ctx context.Context, purchase *domain.Purchase) error {
	data := PurchaseCompletedData{
		PurchaseID:        purchase.ID,
		UserID:            purchase.UserID,
		StoryID:           purchase.StoryID,
		Amount:            purchase.Amount,
		Currency:          purchase.Currency,
		ProviderPaymentID: purchase.ProviderPaymentID,
	}

	event, err := pkgkafka.NewEvent(TopicPurchaseCompleted, purchase.ID, AggregateTypePurchase, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create purchase.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPurchaseCompleted, event); err != nil {
		return fmt.Errorf("publish purchase.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published purchase.completed event",
		slog.String("purchase_id", purchase.ID),
		slog.String("user_id", purchase.UserID),
	)

	return nil
}

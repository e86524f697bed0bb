package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hikayahq/storefront/internal/domain"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

const keyPrefix = "session:"

// SessionRepository implements repository.SessionRepository using Redis.
// Keys carry a TTL matching the token lifetime, so expired sessions vanish
// without a sweeper.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Save persists a session under its token hash. The TTL is derived from the
// session's ExpiresAt; a session already past its expiry is silently dropped.
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := keyPrefix + session.TokenHash
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Get retrieves a session by token hash.
func (r *SessionRepository) Get(ctx context.Context, tokenHash string) (*domain.Session, error) {
	key := keyPrefix + tokenHash

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	session.TokenHash = tokenHash

	return &session, nil
}

// Delete removes a session by token hash. Deleting an absent key is a no-op,
// which makes logout idempotent.
func (r *SessionRepository) Delete(ctx context.Context, tokenHash string) error {
	key := keyPrefix + tokenHash

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}

package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hikayahq/storefront/internal/auth"
	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/internal/event"
	"github.com/hikayahq/storefront/internal/repository"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// resetTokenBytes is the entropy of a password reset token before hex encoding.
const resetTokenBytes = 32

// AuthService implements account lifecycle and authentication logic.
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtManager  *auth.JWTManager
	producer    *event.Producer
	logger      *slog.Logger

	verificationTTL time.Duration
	resetTTL        time.Duration
	nowFunc         func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	verificationTTL, resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		jwtManager:      jwtManager,
		producer:        producer,
		logger:          logger,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		nowFunc:         time.Now,
	}
}

// SignupInput holds the parameters for registering a new account.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Age      int
	Gender   string
}

// LoginInput holds the parameters for account login.
type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult bundles the issued token with the authenticated user.
type LoginResult struct {
	Token string
	User  *domain.User
}

// Signup creates a new unverified account and queues a verification code for
// delivery. The code delivery is fire-and-forget: publish failures are
// logged, never surfaced to the caller.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.nowFunc().UTC()
	codeExpiry := now.Add(s.verificationTTL)
	user := &domain.User{
		ID:                  uuid.New().String(),
		Email:               email,
		PasswordHash:        string(hashedPassword),
		Name:                input.Name,
		Age:                 input.Age,
		Gender:              input.Gender,
		Role:                domain.RoleStandard,
		EmailVerified:       false,
		VerificationCode:    code,
		VerificationExpires: &codeExpiry,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.producer != nil {
		if err := s.producer.PublishEmailVerification(ctx, user, code); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish email_verification event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// VerifyEmail consumes a verification code. Wrong and expired codes are
// indistinguishable to the caller; an already-verified account is reported
// as a conflict rather than re-running the check.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return apperrors.InvalidInput("email and code are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return invalidCodeError()
	}
	if user.EmailVerified {
		return &apperrors.AppError{
			Code:    "ALREADY_VERIFIED",
			Message: "email is already verified",
			Status:  http.StatusConflict,
			Err:     apperrors.ErrConflict,
		}
	}

	ok, err := s.userRepo.MarkVerified(ctx, user.ID, code, s.nowFunc().UTC())
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if !ok {
		return invalidCodeError()
	}

	s.logger.InfoContext(ctx, "email verified",
		slog.String("user_id", user.ID),
	)

	return nil
}

// Login authenticates an account and registers a session. Unknown email and
// wrong password produce the same error; the unverified check runs strictly
// after the password match so failures never reveal verification state for
// accounts whose password the caller does not hold.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.EmailVerified {
		return nil, apperrors.Forbidden("email not verified")
	}

	token, err := s.jwtManager.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.nowFunc().UTC()
	session := &domain.Session{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.jwtManager.Expiry()),
	}
	if err := s.sessionRepo.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{Token: token, User: user}, nil
}

// ForgotPassword issues a password reset token for a known account. Only the
// SHA-256 digest of the token is persisted; the raw token travels once, in
// the delivery event.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.NotFound("user", email)
	}

	raw := make([]byte, resetTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	expiry := s.nowFunc().UTC().Add(s.resetTTL)
	user.ResetTokenHash = hashToken(token)
	user.ResetExpires = &expiry
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishPasswordReset(ctx, user, token); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish password_reset event",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword consumes a reset token and replaces the password. The token
// is the only credential: the reset link carries nothing else. Missing,
// unknown, and expired tokens collapse into one error.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return invalidResetTokenError()
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByResetTokenHash(ctx, hashToken(token))
	if err != nil {
		return invalidResetTokenError()
	}

	now := s.nowFunc().UTC()
	if !user.HasLiveResetToken(now) {
		return invalidResetTokenError()
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = ""
	user.ResetExpires = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// VerifyToken checks both the token signature and the session registry, and
// returns the current user record. A valid token whose session was deleted
// is treated as unauthenticated.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	if _, err := s.sessionRepo.Get(ctx, hashToken(token)); err != nil {
		return nil, apperrors.Unauthorized("session not found")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("user not found")
	}

	return user, nil
}

// Logout deletes the session for the given token. Repeating a logout is a
// successful no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, hashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns accounts for the admin listing.
func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) ([]domain.User, int, error) {
	return s.userRepo.List(ctx, offset, limit)
}

func invalidCodeError() error {
	return &apperrors.AppError{
		Code:    "INVALID_CODE",
		Message: "invalid or expired verification code",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
}

func invalidResetTokenError() error {
	return &apperrors.AppError{
		Code:    "INVALID_RESET_TOKEN",
		Message: "invalid or expired reset token",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateVerificationCode returns a uniformly random 6-decimal-digit code.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hikayahq/storefront/internal/domain"
	"github.com/hikayahq/storefront/pkg/database"
	apperrors "github.com/hikayahq/storefront/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, age, gender, role, email_verified, verification_code, verification_expires, reset_token_hash, reset_expires, created_at, updated_at`

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Age,
		u.Gender,
		u.Role,
		u.EmailVerified,
		u.VerificationCode,
		u.VerificationExpires,
		u.ResetTokenHash,
		u.ResetExpires,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address. The caller is expected
// to lowercase the email before lookup.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// GetByResetTokenHash retrieves the user holding the given pending reset
// token digest. The reset link carries only the raw token, so completion
// has no email to look up by.
func (r *UserRepository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token_hash = $1 AND reset_token_hash <> ''`

	return r.scanUser(ctx, query, tokenHash)
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, name = $3, age = $4, gender = $5, role = $6,
		    email_verified = $7, verification_code = $8, verification_expires = $9,
		    reset_token_hash = $10, reset_expires = $11, updated_at = $12
		WHERE id = $13`

	ct, err := r.db.Exec(ctx, query,
		u.Email,
		u.PasswordHash,
		u.Name,
		u.Age,
		u.Gender,
		u.Role,
		u.EmailVerified,
		u.VerificationCode,
		u.VerificationExpires,
		u.ResetTokenHash,
		u.ResetExpires,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID)
	}

	return nil
}

// MarkVerified flips the verified flag and clears the verification code in a
// single guarded statement. The guard makes code consumption one-shot: a
// second submit with the same code matches no row.
func (r *UserRepository) MarkVerified(ctx context.Context, userID, code string, now time.Time) (bool, error) {
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_code = '', verification_expires = NULL, updated_at = $3
		WHERE id = $1 AND email_verified = FALSE
		  AND verification_code = $2 AND verification_code <> ''
		  AND verification_expires IS NOT NULL AND verification_expires > $3`

	ct, err := r.db.Exec(ctx, query, userID, code, now.UTC())
	if err != nil {
		return false, fmt.Errorf("mark user verified: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// List returns users ordered by creation time descending, with a total count.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User
	row := r.db.QueryRow(ctx, query, args...)
	if err := scanUserRow(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Age,
		&u.Gender,
		&u.Role,
		&u.EmailVerified,
		&u.VerificationCode,
		&u.VerificationExpires,
		&u.ResetTokenHash,
		&u.ResetExpires,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

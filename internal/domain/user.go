package domain

import (
	"time"
)

// User represents a registered account in the marketplace.
//
// VerificationCode and ResetTokenHash are one-time secrets: both are cleared
// on consumption, and an expired-but-present value behaves exactly like a
// missing one. The password hash and both secrets are excluded from every
// JSON rendering of the record.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Age          int    `json:"age,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Role         string `json:"role"`

	EmailVerified       bool       `json:"email_verified"`
	VerificationCode    string     `json:"-"`
	VerificationExpires *time.Time `json:"-"`

	ResetTokenHash string     `json:"-"`
	ResetExpires   *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLiveVerificationCode reports whether an unconsumed verification code
// exists and has not expired at the given instant.
func (u *User) HasLiveVerificationCode(now time.Time) bool {
	return u.VerificationCode != "" && u.VerificationExpires != nil && now.Before(*u.VerificationExpires)
}

// HasLiveResetToken reports whether an unconsumed reset token exists and has
// not expired at the given instant.
func (u *User) HasLiveResetToken(now time.Time) bool {
	return u.ResetTokenHash != "" && u.ResetExpires != nil && now.Before(*u.ResetExpires)
}

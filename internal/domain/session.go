package domain

import (
	"time"
)

// Session is the revocation record kept alongside a bearer token. A token may
// be cryptographically valid while its session has been deleted (logout);
// routes that enforce revocation require both checks to pass.
//
// Sessions are keyed by the SHA-256 digest of the token value, never the raw
// token itself.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

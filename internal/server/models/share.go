package models

import "time"

// Share is a capability token granting time-limited access to one file
// without authentication. Expired shares are inert: lookups exclude them,
// no eager cleanup is required for correctness.
type Share struct {
	ID string
	// Token is globally unique and unguessable (128 bits of entropy).
	Token  string
	FileID string
	// ExpiresAt is strictly in the future at creation time.
	ExpiresAt time.Time
	// PasswordHash is a bcrypt hash; nil when the share is not password
	// protected. The plaintext is never stored.
	PasswordHash []byte
	// AccessCount is monotonically non-decreasing.
	AccessCount int64
	CreatedBy   string
	CreatedAt   time.Time
}

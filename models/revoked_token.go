package models

import "time"

// RevokedToken marks a token id as invalid until ExpiresAt.
type RevokedToken struct {
	TokenID   string    `json:"token_id" db:"token_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	RevokedAt time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired reports whether the underlying token would already fail expiry checks.
func (t RevokedToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

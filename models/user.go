package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/upb/authgate/internal/auth"
)

// User is the persisted identity record. TokenVersion increments whenever
// every outstanding session for the user must stop working.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Role         auth.Role `json:"role" db:"role"`
	TokenVersion int64     `json:"token_version" db:"token_version"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User instance
func NewUser(email string, role auth.Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Identity projects the user onto the fields the authentication gate reads.
func (u *User) Identity() *auth.Identity {
	return &auth.Identity{
		ID:           u.ID.String(),
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}

package repositories

import (
	"context"

	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/models"
)

// UserRepository handles identity records. FindByID satisfies
// auth.IdentityResolver; unknown ids wrap auth.ErrIdentityNotFound.
type UserRepository interface {
	auth.IdentityResolver

	// Create stores a new user
	Create(ctx context.Context, user *models.User) error

	// IncrementTokenVersion bumps the user's token version and returns the new value
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}

// RevocationRepository is a revocation registry whose expired entries can
// be purged on demand.
type RevocationRepository interface {
	auth.RevocationRegistry
	Purger
}

// Purger deletes entries whose retention window has elapsed.
type Purger interface {
	// PurgeExpired returns the number of entries removed
	PurgeExpired(ctx context.Context) (int64, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repositories holds the stores the application is wired with
type Repositories struct {
	Users       UserRepository
	Revocations RevocationRepository
}

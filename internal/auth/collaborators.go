package auth

import (
	"context"
	"time"
)

// Identity is the authoritative persisted view of a principal.
type Identity struct {
	ID           string
	Role         Role
	TokenVersion int64
}

// RevocationRegistry tracks tokens invalidated before their natural expiry.
// Implementations must be safe for concurrent use. Entries past expiresAt
// may be purged and must then report false.
type RevocationRegistry interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// IdentityResolver looks up the live identity for a subject id.
// It returns an error wrapping ErrIdentityNotFound when no identity exists.
type IdentityResolver interface {
	FindByID(ctx context.Context, id string) (*Identity, error)
}

package auth

import (
	"context"
	"time"
)

// Principal is the request identity context attached after authentication.
// Role and TokenVersion come from the live identity, not the token.
type Principal struct {
	Subject      string    `json:"sub"`
	Role         Role      `json:"role"`
	TokenVersion int64     `json:"token_version"`
	TokenID      string    `json:"-"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal attached by the authentication gate.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

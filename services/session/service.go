package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/repositories"
	"github.com/upb/authgate/services"
	"go.uber.org/zap"
)

// IdentityCache drops whatever a resolver holds for a user, so the next
// lookup reads the store.
type IdentityCache interface {
	Forget(id string)
}

// Service ends sessions: one token at a time through the revocation
// registry, or every token of a user through the token version.
type Service struct {
	users       repositories.UserRepository
	revocations auth.RevocationRegistry
	identities  IdentityCache
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIdentityCache makes a version bump evict the user from cache.
func WithIdentityCache(cache IdentityCache) Option {
	return func(s *Service) {
		s.identities = cache
	}
}

// NewService creates a new session Service instance
func NewService(users repositories.UserRepository, revocations auth.RevocationRegistry, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		users:       users,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logout revokes the principal's token until the token itself expires.
func (s *Service) Logout(ctx context.Context, p *auth.Principal) error {
	if p == nil || p.TokenID == "" {
		return services.ErrUnauthorized
	}

	// An expired token is already rejected everywhere
	if !p.ExpiresAt.After(s.now()) {
		return nil
	}

	if err := s.revocations.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		s.logger.Error("failed to revoke token",
			zap.String("sub", p.Subject),
			zap.Error(err),
		)
		return services.ErrRevocationUnavailable.Wrap(err)
	}

	s.logger.Info("token revoked",
		zap.String("sub", p.Subject),
		zap.Time("expires_at", p.ExpiresAt),
	)
	return nil
}

// LogoutEverywhere invalidates every token issued to the principal.
func (s *Service) LogoutEverywhere(ctx context.Context, p *auth.Principal) (int64, error) {
	if p == nil {
		return 0, services.ErrUnauthorized
	}
	return s.InvalidateSessions(ctx, p.Subject)
}

// InvalidateSessions bumps the user's token version and returns the new one.
func (s *Service) InvalidateSessions(ctx context.Context, userID string) (int64, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return 0, services.ErrInvalidUserID.Wrap(err).WithDetail("id", userID)
	}

	version, err := s.users.IncrementTokenVersion(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrIdentityNotFound) {
			return 0, services.ErrUserNotFound.Wrap(err)
		}
		s.logger.Error("failed to bump token version",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return 0, services.ErrIdentityUnavailable.Wrap(err)
	}

	// a lookup already in flight may have read the old version
	if s.identities != nil {
		s.identities.Forget(userID)
	}

	s.logger.Info("sessions invalidated",
		zap.String("user_id", userID),
		zap.Int64("token_version", version),
	)
	return version, nil
}

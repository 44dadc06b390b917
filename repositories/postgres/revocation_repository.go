package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

// RevocationRepository stores revoked token ids in the revoked_tokens table
type RevocationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRevocationRepository creates a new revocation repository
func NewRevocationRepository(db *DB, logger *zap.Logger) repositories.RevocationRepository {
	return &RevocationRepository{
		db:     db,
		logger: logger,
	}
}

// IsRevoked reports whether tokenID is revoked and not yet past its expiry
func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token_id = $1 AND expires_at > now()
		)
	`

	var revoked bool
	if err := r.db.QueryRowContext(ctx, query, tokenID).Scan(&revoked); err != nil {
		return false, fmt.Errorf("failed to check revocation: %w", err)
	}
	return revoked, nil
}

// Revoke records tokenID until expiresAt. Revoking twice keeps the later expiry.
func (r *RevocationRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_tokens (token_id, expires_at, revoked_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token_id) DO UPDATE
		SET expires_at = GREATEST(revoked_tokens.expires_at, EXCLUDED.expires_at)
	`

	if _, err := r.db.ExecContext(ctx, query, tokenID, expiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	r.logger.Debug("token revoked", zap.Time("expires_at", expiresAt))
	return nil
}

// PurgeExpired deletes rows whose tokens have expired
func (r *RevocationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge result: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity
func (r *RevocationRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

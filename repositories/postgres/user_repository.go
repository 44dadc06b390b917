package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/models"
	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, role, token_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Role,
		user.TokenVersion,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("email", user.Email))
	return nil
}

// FindByID resolves the live identity for a token subject
func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", id, auth.ErrIdentityNotFound)
	}

	query := `
		SELECT id, email, role, token_version, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &models.User{}
	err = r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.TokenVersion,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, auth.ErrIdentityNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user.Identity(), nil
}

// IncrementTokenVersion invalidates every token issued before the call
func (r *UserRepository) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return 0, fmt.Errorf("user %q: %w", id, auth.ErrIdentityNotFound)
	}

	query := `
		UPDATE users
		SET token_version = token_version + 1, updated_at = now()
		WHERE id = $1
		RETURNING token_version
	`

	var version int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("user %s: %w", id, auth.ErrIdentityNotFound)
		}
		return 0, fmt.Errorf("failed to increment token version: %w", err)
	}

	r.logger.Info("token version incremented",
		zap.String("user_id", id),
		zap.Int64("token_version", version))
	return version, nil
}

package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/upb/authgate/internal/auth"
	"github.com/upb/authgate/models"
	"github.com/upb/authgate/repositories"
)

// IdentityStore is an in-process user repository for local runs and tests.
type IdentityStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// NewIdentityStore creates an empty store
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{users: make(map[string]*models.User)}
}

var _ repositories.UserRepository = (*IdentityStore)(nil)

// Seed parses "id:role" pairs and stores one user per pair.
func (s *IdentityStore) Seed(ctx context.Context, pairs []string) error {
	for _, pair := range pairs {
		rawID, rawRole, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("seed %q: expected id:role", pair)
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return fmt.Errorf("seed %q: %w", pair, err)
		}
		role, err := auth.ParseRole(rawRole)
		if err != nil {
			return fmt.Errorf("seed %q: %w", pair, err)
		}
		now := time.Now().UTC()
		user := &models.User{
			ID:        id,
			Email:     id.String() + "@seed.local",
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.Create(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a copy of user
func (s *IdentityStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := user.ID.String()
	if _, exists := s.users[key]; exists {
		return fmt.Errorf("user %s already exists", key)
	}
	cp := *user
	s.users[key] = &cp
	return nil
}

// FindByID returns the identity for id
func (s *IdentityStore) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, fmt.Errorf("user %s: %w", id, auth.ErrIdentityNotFound)
	}
	return user.Identity(), nil
}

// IncrementTokenVersion bumps the user's token version
func (s *IdentityStore) IncrementTokenVersion(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return 0, fmt.Errorf("user %s: %w", id, auth.ErrIdentityNotFound)
	}
	user.TokenVersion++
	user.UpdatedAt = time.Now().UTC()
	return user.TokenVersion, nil
}

// Delete removes a user; subsequent lookups report not found
func (s *IdentityStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

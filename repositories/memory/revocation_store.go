package memory

import (
	"context"
	"sync"
	"time"

	"github.com/upb/authgate/models"
	"github.com/upb/authgate/repositories"
)

// RevocationStore is an in-process revocation registry. Entries are never
// evicted before their token expires; only CleanupExpired removes them.
// Thread-safe implementation using sync.RWMutex
type RevocationStore struct {
	mu      sync.RWMutex
	entries map[string]models.RevokedToken
	now     func() time.Time
}

// NewRevocationStore creates an empty store. now may be nil.
func NewRevocationStore(now func() time.Time) *RevocationStore {
	if now == nil {
		now = time.Now
	}
	return &RevocationStore{
		entries: make(map[string]models.RevokedToken),
		now:     now,
	}
}

var _ repositories.RevocationRepository = (*RevocationStore)(nil)

// IsRevoked reports whether tokenID is revoked and unexpired
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[tokenID]
	return exists && !entry.IsExpired(s.now()), nil
}

// Revoke records tokenID until expiresAt, keeping the later expiry on repeats
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if current, exists := s.entries[tokenID]; exists {
		if current.ExpiresAt.Before(expiresAt) {
			current.ExpiresAt = expiresAt
			s.entries[tokenID] = current
		}
		return nil
	}
	s.entries[tokenID] = models.RevokedToken{
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
		RevokedAt: now,
	}
	return nil
}

// PurgeExpired removes entries whose tokens have expired
func (s *RevocationStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(s.CleanupExpired()), nil
}

// CleanupExpired removes all expired entries and returns how many were dropped
func (s *RevocationStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for tokenID, entry := range s.entries {
		if entry.IsExpired(now) {
			delete(s.entries, tokenID)
			removed++
		}
	}
	return removed
}

// Ping always succeeds
func (s *RevocationStore) Ping(context.Context) error {
	return nil
}

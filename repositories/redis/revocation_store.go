package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/upb/authgate/config"
	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

// revokeScript sets the marker only when it would extend the current TTL, so
// revoking twice never shortens the retention window.
var revokeScript = goredis.NewScript(`
local ttl = redis.call("PTTL", KEYS[1])
local want = tonumber(ARGV[1])
if ttl < want then
  redis.call("SET", KEYS[1], "1", "PX", want)
end
return 1
`)

// RevocationStore keeps revoked token ids as keys expiring with the token.
type RevocationStore struct {
	client    goredis.UniversalClient
	keyPrefix string
	now       func() time.Time
	logger    *zap.Logger
}

// NewClient creates a go-redis client from configuration.
func NewClient(cfg config.RedisConfig) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

// NewRevocationStore creates a revocation store over client.
func NewRevocationStore(client goredis.UniversalClient, keyPrefix string, logger *zap.Logger) *RevocationStore {
	return &RevocationStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
		logger:    logger,
	}
}

var _ repositories.RevocationRepository = (*RevocationStore)(nil)

// IsRevoked reports whether a live marker exists for tokenID.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Revoke marks tokenID until expiresAt. Already expired tokens are not stored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		s.logger.Debug("skipping revocation of expired token")
		return nil
	}
	millis := ttl.Milliseconds()
	if millis < 1 {
		millis = 1
	}
	if err := revokeScript.Run(ctx, s.client, []string{s.key(tokenID)}, millis).Err(); err != nil {
		return fmt.Errorf("redis revoke: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op; Redis expires keys on its own.
func (s *RevocationStore) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}

// Ping checks connectivity.
func (s *RevocationStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client.
func (s *RevocationStore) Close() error {
	return s.client.Close()
}

func (s *RevocationStore) key(tokenID string) string {
	return s.keyPrefix + tokenID
}

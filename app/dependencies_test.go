package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/authgate/config"
	"github.com/upb/authgate/internal/auth"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("memory backends wire a working gate", func(t *testing.T) {
		ctx := context.Background()
		userID := uuid.NewString()
		cfg := testConfig(t)
		cfg.Auth.SeedUsers = []string{userID + ":user"}

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(ctx)

		assert.Nil(t, deps.DB)
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Revocations)
		assert.NotNil(t, deps.Metrics)
		assert.NotNil(t, deps.AuthMiddleware)
		assert.NotNil(t, deps.Sessions)
		assert.NotNil(t, deps.ReadinessPinger())

		token := signToken(t, deps.Codec, userID, auth.RoleUser)
		p, err := deps.Gate.Authenticate(ctx, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, userID, p.Subject)

		require.NoError(t, deps.Sessions.Logout(ctx, p))
		_, err = deps.Gate.Authenticate(ctx, "Bearer "+token)
		assert.Equal(t, auth.KindTokenRevoked, auth.KindOf(err))
	})

	t.Run("redis revocation backend", func(t *testing.T) {
		ctx := context.Background()
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Auth.RevocationBackend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		require.NoError(t, deps.Revocations.Revoke(ctx, "tid", time.Now().Add(time.Minute)))
		assert.True(t, mr.Exists(cfg.Redis.KeyPrefix+"tid"))
		assert.NoError(t, deps.Close(ctx))
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(t)
		cfg.Auth.RevocationBackend = config.BackendRedis
		cfg.Redis.Addr = addr

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize repositories")
	})

	t.Run("bad seed", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Auth.SeedUsers = []string{"nobody:root"}

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("database connection failure", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Auth.IdentityBackend = config.BackendPostgres
		cfg.Database.Host = "invalid-host-that-does-not-exist"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})

	t.Run("metrics disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Observability.MetricsEnabled = false

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(context.Background())
		assert.Nil(t, deps.Metrics)
	})
}

func TestDependenciesClose(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Auth.PurgeInterval = 5 * time.Millisecond

	deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	deps.StartBackground(ctx)
	deps.StartBackground(ctx)

	assert.NoError(t, deps.Close(ctx))
	// second close is a no-op
	assert.NoError(t, deps.Close(ctx))
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:           "localhost",
			Port:           8080,
			RequestTimeout: 5 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "authgate",
			Database: "authgate_test",
			SSLMode:  "disable",
		},
		Redis: config.RedisConfig{KeyPrefix: "authgate:test:revoked:"},
		Auth: config.AuthConfig{
			SigningSecret:     "0123456789abcdef0123456789abcdef",
			Issuer:            "authgate-test",
			RevocationBackend: config.BackendMemory,
			IdentityBackend:   config.BackendMemory,
			RevocationTimeout: 500 * time.Millisecond,
			IdentityTimeout:   time.Second,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "error",
			LogFormat:      "json",
			MetricsEnabled: true,
		},
	}
}

func signToken(t *testing.T, codec *auth.Codec, sub string, role auth.Role) string {
	t.Helper()
	token, err := codec.Sign(auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

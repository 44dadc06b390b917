package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRevocationStore(t *testing.T) {
	ctx := context.Background()

	t.Run("revoke is idempotent", func(t *testing.T) {
		c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		store := NewRevocationStore(c.Now)

		require.NoError(t, store.Revoke(ctx, "tok", c.now.Add(time.Hour)))
		once, err := store.IsRevoked(ctx, "tok")
		require.NoError(t, err)

		require.NoError(t, store.Revoke(ctx, "tok", c.now.Add(time.Hour)))
		twice, err := store.IsRevoked(ctx, "tok")
		require.NoError(t, err)

		assert.True(t, once)
		assert.Equal(t, once, twice)
		assert.Equal(t, 1, store.size())
	})

	t.Run("shorter repeat keeps the later expiry", func(t *testing.T) {
		c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		store := NewRevocationStore(c.Now)

		require.NoError(t, store.Revoke(ctx, "tok", c.now.Add(time.Hour)))
		require.NoError(t, store.Revoke(ctx, "tok", c.now.Add(time.Minute)))
		c.Advance(10 * time.Minute)

		revoked, err := store.IsRevoked(ctx, "tok")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("expired entries read as not revoked and are purged", func(t *testing.T) {
		c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
		store := NewRevocationStore(c.Now)

		require.NoError(t, store.Revoke(ctx, "a", c.now.Add(time.Minute)))
		require.NoError(t, store.Revoke(ctx, "b", c.now.Add(time.Hour)))
		c.Advance(time.Minute)

		revoked, err := store.IsRevoked(ctx, "a")
		require.NoError(t, err)
		assert.False(t, revoked)

		n, err := store.PurgeExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Equal(t, 1, store.size())
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := NewRevocationStore(nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.IsRevoked(cctx, "tok")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, store.Revoke(cctx, "tok", time.Now().Add(time.Hour)), context.Canceled)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, NewRevocationStore(nil).Ping(ctx))
	})

	t.Run("concurrent use", func(t *testing.T) {
		store := NewRevocationStore(nil)
		exp := time.Now().Add(time.Hour)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = store.Revoke(ctx, "shared", exp)
			}()
			go func() {
				defer wg.Done()
				_, _ = store.IsRevoked(ctx, "shared")
			}()
		}
		wg.Wait()

		revoked, err := store.IsRevoked(ctx, "shared")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func (s *RevocationStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

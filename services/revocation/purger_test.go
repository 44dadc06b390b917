package revocation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/authgate/repositories/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (c *countingPurger) PurgeExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestPurger_Run(t *testing.T) {
	store := &countingPurger{}
	p := NewPurger(store, 5*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purger did not stop")
	}
}

func TestPurger_DisabledInterval(t *testing.T) {
	store := &countingPurger{}
	NewPurger(store, 0, zap.NewNop()).Run(context.Background())
	assert.Equal(t, int32(0), store.calls.Load())
}

func TestPurger_PurgeOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("memory store", func(t *testing.T) {
		now := time.Now()
		clock := func() time.Time { return now }
		store := memory.NewRevocationStore(clock)
		require.NoError(t, store.Revoke(ctx, "gone", now.Add(-time.Second)))
		require.NoError(t, store.Revoke(ctx, "live", now.Add(time.Hour)))

		removed := NewPurger(store, time.Minute, zap.NewNop()).PurgeOnce(ctx)
		assert.Equal(t, int64(1), removed)
	})

	t.Run("failure is logged not returned", func(t *testing.T) {
		store := &countingPurger{err: errors.New("db down")}
		removed := NewPurger(store, time.Minute, zap.NewNop()).PurgeOnce(ctx)
		assert.Equal(t, int64(0), removed)
	})
}

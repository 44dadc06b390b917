package revocation

import (
	"context"
	"time"

	"github.com/upb/authgate/repositories"
	"go.uber.org/zap"
)

// Purger periodically drops revocation entries whose tokens have expired.
type Purger struct {
	store    repositories.Purger
	interval time.Duration
	logger   *zap.Logger
}

// NewPurger creates a new Purger instance
func NewPurger(store repositories.Purger, interval time.Duration, logger *zap.Logger) *Purger {
	return &Purger{store: store, interval: interval, logger: logger}
}

// Run purges on every tick until ctx is cancelled. A non-positive interval disables it.
func (p *Purger) Run(ctx context.Context) {
	if p.interval <= 0 {
		p.logger.Info("revocation purge disabled")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce runs a single purge and returns the number of removed entries.
func (p *Purger) PurgeOnce(ctx context.Context) int64 {
	removed, err := p.store.PurgeExpired(ctx)
	if err != nil {
		p.logger.Warn("revocation purge failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		p.logger.Info("purged expired revocations", zap.Int64("removed", removed))
	}
	return removed
}

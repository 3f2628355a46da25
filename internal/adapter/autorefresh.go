package adapter

import (
	"context"
	"time"
)

// RunAutoRefresh syncs every interval until ctx is done. Sync errors are
// logged and the loop keeps going.
func (a *Adapter) RunAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	a.logger.Debug("adapter: auto-refresh started", "interval", interval)
	Every(ctx, interval, func(ctx context.Context) {
		if err := a.Sync(ctx); err != nil && ctx.Err() == nil {
			a.logger.Warn("adapter: auto-refresh sync failed", "error", err)
		}
	})
	a.logger.Debug("adapter: auto-refresh stopped")
}

// Every calls fn on each tick of interval until ctx is done. A tick that
// arrives while fn is still running is dropped by the ticker.
func Every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

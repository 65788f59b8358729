package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// reloader is the part of the board the refresher drives.
type reloader interface {
	Load(ctx context.Context) error
}

// runRefresher reloads the board every interval until ctx is done. A zero interval
// disables it. Failures are logged; the board keeps the error for the next view.
func runRefresher(ctx context.Context, interval time.Duration, b reloader) {
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
			start := time.Now()
			if err := b.Load(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				slog.Warn("refresh failed", "err", err)
				continue
			}
			slog.Debug("board refreshed", "duration_ms", time.Since(start).Milliseconds())
		}
	}
}

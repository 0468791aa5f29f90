package service

import (
	"context"
	"log/slog"
	"time"
)

// Pruner drops idle per-key state as of now and returns how much it dropped.
type Pruner func(now time.Time) int

// RunSweeper removes expired sessions from table every interval until ctx is
// done, then runs each pruner with the same tick. Lookups keep evicting
// lazily; the sweep only bounds how long abandoned state stays in memory.
// A non-positive interval returns at once.
func RunSweeper(ctx context.Context, table *SessionTable, interval time.Duration, logger *slog.Logger, pruners ...Pruner) {
	if interval <= 0 {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := table.Sweep(now); n > 0 {
				logger.Debug("swept expired sessions", "count", n, "remaining", table.Len())
			}
			for _, prune := range pruners {
				if n := prune(now); n > 0 {
					logger.Debug("pruned idle limiters", "count", n)
				}
			}
		}
	}
}

package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/running-machin/legal-advice-bot/internal/shared"
)

// DefaultSweepInterval is how often idle sessions are swept.
const DefaultSweepInterval = 5 * time.Minute

// RunTTLWorker periodically removes sessions idle for longer than ttl. It
// blocks until ctx is done and always returns nil.
func RunTTLWorker(ctx context.Context, repo HistoryStore, ttl, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

	for {
		select {
		case <-ticker.C:
			sweepExpired(ctx, repo, ttl)
		case <-ctx.Done():
			slog.Info("TTL worker shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

func sweepExpired(ctx context.Context, repo HistoryStore, ttl time.Duration) {
	var deleted int64
	err := shared.RetryOnBusy(ctx, busyRetries, busyBaseDelay, "cleanup_expired", func() error {
		n, err := repo.CleanupExpired(ctx, ttl)
		deleted = n
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("TTL worker: context canceled during cleanup", "error", err)
			return
		}
		slog.Error("TTL worker failed to cleanup expired sessions", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("TTL worker cleaned up idle sessions", "count", deleted)
	}
}

// Package shared provides small helpers used by more than one layer.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// IsSQLiteBusy reports whether err is one of SQLite's lock contention errors
// (SQLITE_BUSY or "database is locked").
func IsSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetryOnBusy runs fn up to attempts times, sleeping baseDelay, 2*baseDelay, ...
// between tries, as long as fn fails with a lock contention error.
// Any other error is returned immediately.
func RetryOnBusy(ctx context.Context, attempts int, baseDelay time.Duration, op string, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !IsSQLiteBusy(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("SQLite busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// Package store provides conversation history persistence keyed by session.
package store

import (
	"context"
	"time"

	"github.com/running-machin/legal-advice-bot/internal/domain"
)

// HistoryStore persists the bounded conversation history of each session.
// Implementations must be safe for concurrent use and must never hold more
// than domain.MaxHistory exchanges for a session.
type HistoryStore interface {
	// History returns the stored exchanges of a session, oldest first.
	// An unknown session has an empty history and no error.
	History(ctx context.Context, sessionID string) ([]domain.Exchange, error)

	// Append adds an exchange to the end of a session's history and evicts
	// the oldest exchanges beyond domain.MaxHistory.
	Append(ctx context.Context, sessionID string, e domain.Exchange) error

	// Clear removes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// CleanupExpired removes sessions idle for longer than ttl and returns
	// how many were removed.
	CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/running-machin/legal-advice-bot/internal/domain"
	"github.com/running-machin/legal-advice-bot/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	busyRetries   = 3
	busyBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements HistoryStore using SQLite. Rows idle for longer
// than ttl read as empty even before a sweep deletes them.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex // serializes read-modify-write of a history row
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens (and creates if needed) the database at dbPath. A
// non-positive ttl disables idle expiry on reads.
func NewSQLite(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Pragmas are applied to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, ttl: ttl, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		history_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// History returns the stored exchanges for a session.
func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]domain.Exchange, error) {
	row := s.db.QueryRowContext(ctx, `SELECT history_json, updated_at FROM sessions WHERE session_id = ?`, sessionID)

	var raw string
	var updatedAt int64
	err := row.Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	if s.expired(updatedAt) {
		return nil, nil
	}
	return decodeHistory(raw)
}

func (s *SQLiteStore) expired(updatedAt int64) bool {
	sess := domain.Session{UpdatedAt: time.Unix(updatedAt, 0)}
	return sess.Expired(s.now(), s.ttl)
}

// Append adds an exchange to the session's history inside a transaction.
func (s *SQLiteStore) Append(ctx context.Context, sessionID string, e domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return shared.RetryOnBusy(ctx, busyRetries, busyBaseDelay, "append_history", func() error {
		return s.appendOnce(ctx, sessionID, e)
	})
}

func (s *SQLiteStore) appendOnce(ctx context.Context, sessionID string, e domain.Exchange) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var raw string
	var updatedAt int64
	scanErr := tx.QueryRowContext(ctx, `SELECT history_json, updated_at FROM sessions WHERE session_id = ?`, sessionID).Scan(&raw, &updatedAt)
	if scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows) {
		return fmt.Errorf("read history: %w", scanErr)
	}

	var history []domain.Exchange
	if raw != "" && !s.expired(updatedAt) {
		if history, err = decodeHistory(raw); err != nil {
			return err
		}
	}
	history = domain.AppendExchange(history, e)

	encoded, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	now := s.now().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (session_id, history_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			history_json = excluded.history_json,
			updated_at = excluded.updated_at`,
		sessionID, string(encoded), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// Clear deletes the session row.
func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := shared.RetryOnBusy(ctx, busyRetries, busyBaseDelay, "clear_history", func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear history for %s: %w", sessionID, err)
	}
	return nil
}

// CleanupExpired removes sessions not updated within ttl.
func (s *SQLiteStore) CleanupExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	threshold := s.now().Add(-ttl).Unix()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func decodeHistory(raw string) ([]domain.Exchange, error) {
	var history []domain.Exchange
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return history, nil
}

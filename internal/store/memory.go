package store

import (
	"context"
	"sync"
	"time"

	"github.com/running-machin/legal-advice-bot/internal/domain"
)

// MemoryStore keeps histories in process memory. Sessions are lost on restart.
// Sessions idle for longer than ttl read as empty even before a sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemory creates an empty in-memory store. A non-positive ttl disables
// idle expiry.
func NewMemory(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// History returns a copy of the session's exchanges.
func (s *MemoryStore) History(_ context.Context, sessionID string) ([]domain.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || len(sess.History) == 0 || sess.Expired(s.now(), s.ttl) {
		return nil, nil
	}
	out := make([]domain.Exchange, len(sess.History))
	copy(out, sess.History)
	return out, nil
}

// Append adds e to the session, creating the session if needed.
func (s *MemoryStore) Append(_ context.Context, sessionID string, e domain.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.Expired(now, s.ttl) {
		sess = &domain.Session{ID: sessionID, CreatedAt: now}
		s.sessions[sessionID] = sess
	}
	sess.History = domain.AppendExchange(sess.History, e)
	sess.UpdatedAt = now
	return nil
}

// Clear drops the session.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// CleanupExpired drops sessions whose last append is older than ttl.
func (s *MemoryStore) CleanupExpired(_ context.Context, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for id, sess := range s.sessions {
		if sess.Expired(now, ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

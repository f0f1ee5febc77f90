// Package domain contains the core types of the legal assistant.
package domain

import (
	"time"
)

// Session is the stored state behind one client session token.
type Session struct {
	ID        string
	History   []Exchange
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the session has been idle for longer than ttl.
// A non-positive ttl never expires.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

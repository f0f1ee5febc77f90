// Package identity provides anonymous per-browser session identity.
package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionCookieName holds the opaque session token.
	SessionCookieName = "legal_session"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	newSessionKey
)

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// IsNewSession reports whether the session ID was issued on this request
// because the client sent no valid cookie.
func IsNewSession(ctx context.Context) bool {
	v, _ := ctx.Value(newSessionKey).(bool)
	return v
}

// WithSessionID returns a copy of ctx carrying id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func isValidSessionID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

func getOrCreateSessionID(w http.ResponseWriter, r *http.Request, ttl time.Duration, isDev bool) (string, bool) {
	id, issued := "", false
	if c, err := r.Cookie(SessionCookieName); err == nil && isValidSessionID(c.Value) {
		id = c.Value
	} else {
		id, issued = uuid.NewString(), true
	}

	// Re-issued on every request so the idle timeout slides.
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
	return id, issued
}

// Middleware attaches a session ID to every request, issuing a new cookie
// when the client has none or presents a malformed one.
func Middleware(ttl time.Duration, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, issued := getOrCreateSessionID(w, r, ttl, isDev)
			ctx := WithSessionID(r.Context(), sessionID)
			ctx = context.WithValue(ctx, newSessionKey, issued)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

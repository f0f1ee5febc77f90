package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, isDev bool, cookie *http.Cookie) (string, *http.Cookie) {
	t.Helper()
	id, c, _ := serveWithFlag(t, isDev, cookie)
	return id, c
}

func serveWithFlag(t *testing.T, isDev bool, cookie *http.Cookie) (string, *http.Cookie, bool) {
	t.Helper()

	var seen string
	var issued bool
	h := Middleware(time.Hour, isDev)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		issued = IsNewSession(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	return seen, cookies[0], issued
}

func TestMiddlewareIssuesSession(t *testing.T) {
	id, c := serve(t, false, nil)

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, SessionCookieName, c.Name)
	assert.Equal(t, id, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestMiddlewareReusesValidCookie(t *testing.T) {
	existing := uuid.NewString()

	id, c := serve(t, true, &http.Cookie{Name: SessionCookieName, Value: existing})

	assert.Equal(t, existing, id)
	assert.Equal(t, existing, c.Value)
	assert.False(t, c.Secure)
}

func TestMiddlewareReplacesMalformedCookie(t *testing.T) {
	id, _ := serve(t, true, &http.Cookie{Name: SessionCookieName, Value: "../../etc/passwd"})

	assert.NotEqual(t, "../../etc/passwd", id)
	assert.True(t, isValidSessionID(id))
}

func TestSessionIDFromEmptyContext(t *testing.T) {
	assert.Empty(t, SessionIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestMiddlewareFlagsIssuedSessions(t *testing.T) {
	_, c, issued := serveWithFlag(t, true, nil)
	assert.True(t, issued)

	_, _, issued = serveWithFlag(t, true, c)
	assert.False(t, issued)

	_, _, issued = serveWithFlag(t, true, &http.Cookie{Name: SessionCookieName, Value: "bogus"})
	assert.True(t, issued)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSExplicitOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := CORS([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("Origin", "http://other.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	fixed := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return fixed }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are independent")

	fixed = fixed.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refills per second at 60/min")
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	fixed := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(5 * time.Minute)
	rl.Allow("b")
	fixed = fixed.Add(6 * time.Minute)

	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.limiters, 1)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	h := rl.Middleware(func(r *http.Request) string { return r.Header.Get("X-Key") })(okHandler())

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", nil)
		req.Header.Set("X-Key", key)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("k"))
	assert.Equal(t, http.StatusTooManyRequests, send("k"))

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.Header.Set("X-Key", "k")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusOK, send(""))
}

func TestRetryAfterFollowsRefillRate(t *testing.T) {
	assert.Equal(t, "2", NewRateLimiter(30, 10).retryAfter())
	assert.Equal(t, "1", NewRateLimiter(60, 10).retryAfter())
	assert.Equal(t, "1", NewRateLimiter(600, 10).retryAfter())
	assert.Equal(t, "60", NewRateLimiter(1, 1).retryAfter())
}

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps a token bucket per key. Buckets idle for longer than
// idleAfter are evicted by Sweep.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	now       func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per key with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters:  make(map[string]*visitor),
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		idleAfter: 10 * time.Minute,
		now:       time.Now,
	}
}

// Allow reports whether a request for key may proceed.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	now := r.now()
	v, ok := r.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = v
	}
	v.lastSeen = now
	r.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Sweep drops buckets that have not been used recently and returns how
// many were removed.
func (r *RateLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleAfter)
	removed := 0
	for key, v := range r.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
			removed++
		}
	}
	return removed
}

// retryAfter is the whole number of seconds until one token refills.
func (r *RateLimiter) retryAfter() string {
	secs := math.Ceil(1 / float64(r.limit))
	return strconv.Itoa(int(math.Max(secs, 1)))
}

// Middleware rejects requests over the limit with 429. keyFn selects the
// bucket; requests with an empty key are not limited.
func (r *RateLimiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if key := keyFn(req); key != "" && !r.Allow(key) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", r.retryAfter())
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}` + "\n"))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

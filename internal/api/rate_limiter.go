package api

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// ErrCodeRateLimited is the error code for throttled requests.
const ErrCodeRateLimited = "RATE_LIMITED"

// RateLimiter applies a per-client token bucket. Authenticated requests are
// keyed by user id, anonymous ones by client IP.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Allow reports whether the client identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiterFor(key).Allow()
}

// RateLimitMiddleware rejects clients that exceed their budget with a 429.
// Must run after AuthMiddleware on protected routes so requests are keyed by
// user id rather than a possibly shared client IP.
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if claims := ClaimsFromContext(r.Context()); claims != nil {
				key = claims.UserID
			}

			if !rl.Allow(key) {
				respondError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "rate limit exceeded", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

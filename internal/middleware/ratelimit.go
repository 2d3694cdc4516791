package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-client rate limiting. Requests are keyed by the
// client_id cookie when present, falling back to the caller's IP.
type RateLimiter struct {
	clients map[string]*client
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
	maxIdle time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter.
// r is requests per second, b is burst size.
func NewRateLimiter(r float64, b int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(r),
		burst:   b,
		maxIdle: 3 * time.Minute,
	}

	go rl.cleanupLoop()

	return rl
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, exists := rl.clients[key]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.clients[key] = &client{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	c.lastSeen = time.Now()
	return c.limiter
}

// cleanupLoop drops clients that have been idle past maxIdle.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		for key, c := range rl.clients {
			if time.Since(c.lastSeen) > rl.maxIdle {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit is middleware that rate limits requests per client.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter := rl.limiterFor(limitKey(r))

		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LimitAuth is middleware for the login and register endpoints.
// Uses 1 request per second with burst of 5.
func LimitAuth(next http.Handler) http.Handler {
	limiter := NewRateLimiter(1, 5)
	return limiter.Limit(next)
}

// LimitAPI is middleware for the JSON endpoints.
// Uses 10 requests per second with burst of 20.
func LimitAPI(next http.Handler) http.Handler {
	limiter := NewRateLimiter(10, 20)
	return limiter.Limit(next)
}

// limitKey picks the key a request is limited under.
func limitKey(r *http.Request) string {
	if cookie, err := r.Cookie(ClientCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Only the first X-Forwarded-For entry is the original client; the rest
	// can be appended by anyone on the path.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

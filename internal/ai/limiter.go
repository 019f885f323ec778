package ai

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a per-visitor chat request rate. It is constructed
// once in bootstrap and injected; there is no package-level state.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiter allows requestsPerMinute sustained with the given burst per
// visitor id.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 20
	}
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		visitors: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:    burst,
	}
}

// Allow reports whether the visitor may issue a request now.
func (l *RateLimiter) Allow(visitorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.visitors[visitorID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors[visitorID] = lim
	}
	return lim.Allow()
}

// Reset drops all per-visitor buckets.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visitors = make(map[string]*rate.Limiter)
}

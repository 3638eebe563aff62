// Package middleware provides HTTP middleware for the run tracker API.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"run-tracker/internal/shared/clock"
	apperrors "run-tracker/internal/shared/errors"
)

// RateLimiter implements a sliding window rate limiter keyed by client IP.
type RateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	limit       int
	window      time.Duration
	clock       clock.Clock
	cleanupTick time.Duration
	cleanupStop chan struct{}
}

// NewRateLimiter creates a rate limiter allowing limit requests per minute.
func NewRateLimiter(limit int) *RateLimiter {
	return NewRateLimiterWithClock(limit, clock.SystemClock{})
}

// NewRateLimiterWithClock creates a rate limiter that reads time from c.
func NewRateLimiterWithClock(limit int, c clock.Clock) *RateLimiter {
	rl := &RateLimiter{
		requests:    make(map[string][]time.Time),
		limit:       limit,
		window:      time.Minute,
		clock:       c,
		cleanupTick: 5 * time.Minute,
		cleanupStop: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup periodically removes expired entries.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.prune()
		case <-rl.cleanupStop:
			return
		}
	}
}

func (rl *RateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.clock.Now().Add(-rl.window)
	for key, times := range rl.requests {
		valid := inWindow(times, windowStart)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func inWindow(times []time.Time, windowStart time.Time) []time.Time {
	var valid []time.Time
	for _, t := range times {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	return valid
}

// Allow records a request for key and reports whether it fits the window.
// When denied, retryAfter is the number of seconds until a slot frees up.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	valid := inWindow(rl.requests[key], now.Add(-rl.window))

	if len(valid) >= rl.limit {
		retryAfter := int((rl.window - now.Sub(valid[0])).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		rl.requests[key] = valid
		return false, retryAfter
	}

	rl.requests[key] = append(valid, now)
	return true, 0
}

// tracked returns the number of keys currently held.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

// Stop stops the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.cleanupStop)
}

// getClientIP extracts the client IP, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	// [2001:db8::1]:port
	if len(addr) > 0 && addr[0] == '[' {
		if end := strings.IndexByte(addr, ']'); end != -1 {
			return addr[1:end]
		}
	}
	if lastColon := strings.LastIndexByte(addr, ':'); lastColon != -1 {
		return addr[:lastColon]
	}
	return addr
}

// RateLimitMiddleware enforces limiter per client IP and answers 429 with
// Retry-After when the window is full.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed, retryAfter := limiter.Allow(getClientIP(r)); !allowed {
				apperrors.WriteError(w, apperrors.NewRateLimitError(retryAfter))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

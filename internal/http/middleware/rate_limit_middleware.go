package middleware

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/productapp/catalog-backend/internal/http/response"
	"github.com/productapp/catalog-backend/internal/observability"
)

type fixedWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter applies a per-client-IP fixed window. State is in-process, so
// limits apply per instance.
type RateLimiter struct {
	mu      sync.Mutex
	store   map[string]*fixedWindow
	cleanup time.Time
	limit   int
	window  time.Duration
	scope   string
}

func NewRateLimiter(limit int, window time.Duration, scope string) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{
		store:   make(map[string]*fixedWindow),
		cleanup: time.Now().Add(window),
		limit:   limit,
		window:  window,
		scope:   scope,
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.allow(clientIPKey(r))
			if !allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "rejected")
				observability.RecordRateLimitRetryAfter(r.Context(), rl.scope, retryAfter)
				w.Header().Set("Retry-After", retryAfterHeader(retryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.cleanup) {
		for k, v := range rl.store {
			if now.Sub(v.windowStart) > 2*rl.window {
				delete(rl.store, k)
			}
		}
		rl.cleanup = now.Add(rl.window)
	}

	entry, ok := rl.store[key]
	if !ok || now.Sub(entry.windowStart) >= rl.window {
		rl.store[key] = &fixedWindow{count: 1, windowStart: now}
		return true, 0
	}
	if entry.count >= rl.limit {
		retryAfter := rl.window - now.Sub(entry.windowStart)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}
	entry.count++
	return true, 0
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func retryAfterHeader(d time.Duration) string {
	if d <= 0 {
		return "1"
	}
	seconds := int(d.Round(time.Second).Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("%d", seconds)
}

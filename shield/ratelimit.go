package shield

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig defines the fixed-window limit for a single endpoint,
// keyed as "METHOD /path".
type RateLimitConfig struct {
	MaxRequests   int
	WindowSeconds int
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter provides per-IP, per-endpoint fixed-window rate limiting.
// Endpoints without a rule pass through. Expired buckets are garbage
// collected by StartGC.
type RateLimiter struct {
	rules   map[string]RateLimitConfig
	buckets sync.Map
}

// NewRateLimiter creates a rate limiter with a static rule table.
func NewRateLimiter(rules map[string]RateLimitConfig) *RateLimiter {
	if rules == nil {
		rules = make(map[string]RateLimitConfig)
	}
	return &RateLimiter{rules: rules}
}

// StartGC launches a background goroutine that drops expired buckets every
// 5 minutes. It stops when done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}) {
	tick := time.NewTicker(5 * time.Minute)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				rl.gc()
			}
		}
	}()
}

func (rl *RateLimiter) gc() {
	now := time.Now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		if now.After(b.resetAt) {
			rl.buckets.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) allow(ip, endpoint string) bool {
	cfg, ok := rl.rules[endpoint]
	if !ok || cfg.MaxRequests <= 0 {
		return true
	}

	key := ip + ":" + endpoint
	now := time.Now()

	val, loaded := rl.buckets.LoadOrStore(key, &bucket{
		count:   1,
		resetAt: now.Add(time.Duration(cfg.WindowSeconds) * time.Second),
	})
	if !loaded {
		return true
	}

	b := val.(*bucket)
	if now.After(b.resetAt) {
		b.count = 1
		b.resetAt = now.Add(time.Duration(cfg.WindowSeconds) * time.Second)
		return true
	}

	b.count++
	return b.count <= cfg.MaxRequests
}

// Middleware enforces the rate limits with a 429 JSON response.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.Method + " " + r.URL.Path
		ip := ExtractIP(r)

		if rl.allow(ip, endpoint) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip, "endpoint", endpoint)

		w.Header().Set("Retry-After", "60")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

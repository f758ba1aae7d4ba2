package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RateLimiter is a fixed-window per-client rate limiter backed by Redis.
// When Redis is unreachable it fails open so an outage never blocks traffic.
type RateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
	logger *slog.Logger
}

// NewRateLimiter creates a rate limiter allowing max requests per window.
func NewRateLimiter(client *redis.Client, window time.Duration, max int, l *slog.Logger) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 100
	}
	var evaler redisEvaler
	if client != nil {
		evaler = client
	}
	return &RateLimiter{
		client: evaler,
		window: window,
		max:    max,
		prefix: "api:rl:",
		logger: l,
	}
}

// Allow reports whether the given key is under its request budget.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	count, err := l.client.Eval(ctx, rateLimitScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("rate limiter unavailable, allowing request", slog.String("error", err.Error()))
		}
		return true
	}
	return count <= l.max
}

// Middleware limits requests per client IP and responds with 429 when the
// budget is exhausted.
func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"success": false,
					"message": "Too many requests, please try again later",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the originating client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

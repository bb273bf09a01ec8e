package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// RateLimiter enforces a fixed-window per-IP request quota backed by redis so
// the limit holds across API replicas.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	logger *logging.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window per IP.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &RateLimiter{redis: client, limit: limit, window: window, logger: logger}
}

// Allow increments the window counter for ip and reports whether the request
// is within quota. Redis failures fail open; throttling is not worth an
// outage.
func (rl *RateLimiter) Allow(ctx context.Context, ip string) bool {
	key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().Unix()/int64(rl.window.Seconds()))

	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		rl.logger.Error("rate limit check failed", "error", err, "ip", ip)
		return true
	}
	if count == 1 {
		rl.redis.Expire(ctx, key, rl.window)
	}
	return int(count) <= rl.limit
}

// RateLimit returns an HTTP middleware that rejects requests exceeding the
// configured quota with 429 Too Many Requests.
func RateLimit(client *redis.Client, perMinute int, logger *logging.Logger) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(client, perMinute, time.Minute, logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// Prefer X-Real-Ip set by chi's RealIP middleware.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(r.Context(), ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit:api:"

// RateLimiter is a per-client sliding window kept in a Redis sorted set.
// It is mounted on the whole /api tree.
type RateLimiter struct {
	client  redis.Cmdable
	maxReqs int
	window  time.Duration
}

// NewRateLimiter allows maxReqs requests per windowSec seconds per client IP.
func NewRateLimiter(client redis.Cmdable, maxReqs, windowSec int) *RateLimiter {
	return &RateLimiter{
		client:  client,
		maxReqs: maxReqs,
		window:  time.Duration(windowSec) * time.Second,
	}
}

// Middleware enforces the limit. Redis failures let the request through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		allowed, err := rl.allow(r.Context(), rateLimitKeyPrefix+ip)
		if err != nil {
			slog.Warn("rate limiter: redis error, failing open", "error", err, "ip", ip)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"status":"error","message":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-rl.window).UnixMilli()

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: fmt.Sprintf("%d", now.UnixNano())})
	pipe.Expire(ctx, key, rl.window+time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return countCmd.Val() < int64(rl.maxReqs), nil
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/cache"
)

// RateLimit enforces a fixed-window request limit per client address using a
// Redis counter. When Redis is down the limiter fails open: migration traffic
// is more valuable than the limit.
type RateLimit struct {
	cache    cache.Cache
	requests int
	window   time.Duration
}

func NewRateLimit(c cache.Cache, requests int, window time.Duration) *RateLimit {
	return &RateLimit{cache: c, requests: requests, window: window}
}

func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		key := cache.RateLimitKey(client)

		count, err := rl.cache.IncrWithExpiry(r.Context(), key, rl.window)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(rl.requests) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMITED", "Too many requests", map[string]any{
					"limit":  rl.requests,
					"window": rl.window.String(),
				})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr strips the port so all connections from one host share a bucket.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

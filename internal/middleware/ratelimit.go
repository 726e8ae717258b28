package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
	"github.com/Bidon15/summonpredict/internal/pkg/response"
)

// Counter is a windowed counter store. database.Redis implements it.
type Counter interface {
	IncrWithExpire(ctx context.Context, key string, expiration time.Duration) (int64, error)
}

// RateLimitConfig defines rate limiting parameters.
type RateLimitConfig struct {
	Requests int64
	Window   time.Duration
}

// RateLimit returns a fixed-window rate limiting middleware keyed by client
// IP. Counter failures let the request through.
func RateLimit(counter Counter, cfg RateLimitConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:ip:%s", clientIP(r))

			count, err := counter.IncrWithExpire(r.Context(), key, cfg.Window)
			if err != nil {
				logger.Warn("rate limit counter failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			remaining := max(cfg.Requests-count, 0)
			resetTime := time.Now().Add(cfg.Window).Unix()

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(cfg.Requests, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

			if count > cfg.Requests {
				w.Header().Set("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
				response.Error(w, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the request's remote IP without port. chi's RealIP
// middleware has already applied X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

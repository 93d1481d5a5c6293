package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/aferreira-dev/socialio-backend/api/responses"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

// RateLimit applies a fixed-window limit per authenticated user, falling back
// to the client address for anonymous requests. A limiter outage fails open;
// throttling must not take the API down with it.
func RateLimit(cfg config.RateLimitConfig, limiter *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.Requests <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := UserIDFromContext(r.Context())
			if scope == "" {
				scope = "ip:" + clientAddr(r)
			}

			allowed, _, err := limiter.FixedWindowAllow(r.Context(), scope, int64(cfg.Requests), cfg.Window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "rate limiter unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

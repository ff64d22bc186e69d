package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"prepcoach/pkg/auth"
	pkgerrors "prepcoach/pkg/errors"
)

// RateLimitByIP limits requests per client address
func RateLimitByIP(limiter auth.RateLimiter, limit int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r, limiter, clientIP(r), logger) {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limit, "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser limits requests per authenticated caller. Anonymous requests pass.
func RateLimitByUser(limiter auth.RateLimiter, limit int, errs *pkgerrors.ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err == nil && !allow(r, limiter, user.UserID, logger) {
				errs.Handle(w, r, pkgerrors.NewRateLimitError(limit, "minute"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow fails open when the limiter store errors
func allow(r *http.Request, limiter auth.RateLimiter, key string, logger *zap.Logger) bool {
	ok, err := limiter.Allow(r.Context(), key)
	if err != nil {
		logger.Error("Rate limiter error", zap.Error(err), zap.String("key", key))
		return true
	}
	return ok
}

// clientIP prefers the address set by chi's RealIP middleware
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

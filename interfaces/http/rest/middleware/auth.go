// Package middleware holds the HTTP middleware chain: bearer authentication,
// role checks, rate limits and the access log.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"prepcoach/pkg/auth"
	pkgerrors "prepcoach/pkg/errors"
)

// Authenticator validates bearer tokens and stores the caller in the request context
type Authenticator struct {
	validator *auth.JWTValidator
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
}

// NewAuthenticator creates the authentication middleware
func NewAuthenticator(validator *auth.JWTValidator, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *Authenticator {
	return &Authenticator{validator: validator, errors: errs, logger: logger}
}

// Required rejects requests without a valid token
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return a.handler(next, true)
}

// Optional lets anonymous requests through. A token that is present must still be valid.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.handler(next, false)
}

func (a *Authenticator) handler(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			if required {
				a.errors.Handle(w, r, pkgerrors.NewAuthenticationError("missing authentication token"))
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.validator.ValidateToken(token)
		if err != nil {
			a.logger.Debug("Invalid token",
				zap.Error(err),
				zap.String("path", r.URL.Path),
			)
			a.errors.Handle(w, r, pkgerrors.NewAuthenticationError(tokenMessage(err)))
			return
		}

		ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
			UserID: claims.UserID(),
			Email:  claims.Email,
			Roles:  claims.Roles,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated callers lacking role with UNAUTHORIZED
func RequireRole(role string, errs *pkgerrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				errs.Handle(w, r, pkgerrors.NewAuthenticationError(""))
				return
			}
			if !user.HasRole(role) {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(role+" role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	default:
		return "invalid token"
	}
}

// extractToken reads the bearer token from the Authorization header or the auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

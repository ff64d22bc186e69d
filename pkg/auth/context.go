package auth

import (
	"context"
	"errors"
	"slices"
)

// RoleAdmin grants access to catalogue and visibility management
const RoleAdmin = "admin"

// UserContext represents the authenticated caller
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// IsAdmin reports whether the caller holds the admin role
func (u *UserContext) IsAdmin() bool {
	return u != nil && slices.Contains(u.Roles, RoleAdmin)
}

// HasRole reports whether the caller holds the role
func (u *UserContext) HasRole(role string) bool {
	return u != nil && slices.Contains(u.Roles, role)
}

type contextKey string

const userContextKey contextKey = "user"

// ErrNoUser is returned when the context carries no authenticated user
var ErrNoUser = errors.New("no authenticated user in context")

// SetUserInContext stores the caller in the context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the caller stored by the auth middleware
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil || user.UserID == "" {
		return nil, ErrNoUser
	}
	return user, nil
}

package ports

import pkgerrors "prepcoach/pkg/errors"

// Actor is the authenticated caller a command or query runs on behalf of
type Actor struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin"`
}

// RequireUser fails with AUTHENTICATION when there is no caller
func (a Actor) RequireUser() error {
	if a.UserID == "" {
		return pkgerrors.NewAuthenticationError("")
	}
	return nil
}

// RequireAdmin fails with AUTHENTICATION or UNAUTHORIZED unless the caller is an admin
func (a Actor) RequireAdmin() error {
	if err := a.RequireUser(); err != nil {
		return err
	}
	if !a.IsAdmin {
		return pkgerrors.NewUnauthorizedError("admin role required")
	}
	return nil
}

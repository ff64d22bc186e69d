package commands

import (
	"prepcoach/application/ports"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// ConsumeIterationCommand records usage against the caller's plan allowance
type ConsumeIterationCommand struct {
	Actor ports.Actor
	Count int `json:"count"`
}

// Validate checks the command
func (c ConsumeIterationCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.Count <= 0 {
		return pkgerrors.NewValidationError("count must be positive")
	}
	return nil
}

// SetBYOKCommand stores the caller's own provider key
type SetBYOKCommand struct {
	Actor    ports.Actor
	Provider string `json:"provider" validate:"required"`
	APIKey   string `json:"api_key" validate:"required"`
}

// Validate checks the command
func (c SetBYOKCommand) Validate() error {
	return c.Actor.RequireUser()
}

// RemoveBYOKCommand deletes the caller's provider key
type RemoveBYOKCommand struct {
	Actor ports.Actor
}

// Validate checks the command
func (c RemoveBYOKCommand) Validate() error {
	return c.Actor.RequireUser()
}

// CreateCheckoutCommand starts a hosted checkout for a paid plan
type CreateCheckoutCommand struct {
	Actor ports.Actor
	Plan  valueobjects.PlanTier `json:"plan" validate:"required,oneof=pro premium"`
}

// Validate checks the command
func (c CreateCheckoutCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if !c.Plan.IsValid() || c.Plan == valueobjects.PlanFree {
		return pkgerrors.NewValidationError("plan must be pro or premium")
	}
	return nil
}

// CreatePortalCommand opens the billing self-service portal
type CreatePortalCommand struct {
	Actor ports.Actor
}

// Validate checks the command
func (c CreatePortalCommand) Validate() error {
	return c.Actor.RequireUser()
}

// RedirectResult carries a hosted page URL
type RedirectResult struct {
	URL string `json:"url"`
}

// HandleWebhookCommand applies a signed billing provider notification
type HandleWebhookCommand struct {
	Payload   []byte
	Signature string
}

// Validate checks the command
func (c HandleWebhookCommand) Validate() error {
	if len(c.Payload) == 0 || c.Signature == "" {
		return pkgerrors.NewValidationError("webhook payload and signature are required")
	}
	return nil
}

// WebhookResult reports whether the notification changed anything
type WebhookResult struct {
	EventType string `json:"event_type"`
	Handled   bool   `json:"handled"`
}

package commands

import (
	"prepcoach/application/ports"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
)

// VisibilityUpdate is one requested visibility change
type VisibilityUpdate struct {
	EntityType valueobjects.EntityType `json:"entity_type" validate:"required"`
	EntityID   string                  `json:"entity_id" validate:"required"`
	IsPublic   bool                    `json:"is_public"`
	ParentType valueobjects.EntityType `json:"parent_type,omitempty"`
	ParentID   string                  `json:"parent_id,omitempty"`
}

// SetVisibilityCommand changes the visibility of one entity
type SetVisibilityCommand struct {
	Actor  ports.Actor
	Update VisibilityUpdate
}

// Validate checks the command. Field validation happens in the handler
// so that non-admin callers are always rejected as UNAUTHORIZED.
func (c SetVisibilityCommand) Validate() error {
	return c.Actor.RequireAdmin()
}

// BatchSetVisibilityCommand changes the visibility of many entities at once
type BatchSetVisibilityCommand struct {
	Actor   ports.Actor
	Updates []VisibilityUpdate
}

// Validate checks the command
func (c BatchSetVisibilityCommand) Validate() error {
	return c.Actor.RequireAdmin()
}

// VisibilityResult reports the settings written by a visibility command
type VisibilityResult struct {
	Updated  int                          `json:"updated"`
	Settings []entities.VisibilitySetting `json:"settings"`
}

package commands

import (
	"prepcoach/application/ports"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// StartJourneyCommand creates the caller's progress record for a journey
type StartJourneyCommand struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID
}

// Validate checks the command
func (c StartJourneyCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.JourneyID.IsZero() {
		return pkgerrors.NewValidationError("journey id is required")
	}
	return nil
}

// StartNodeCommand moves an available node to in-progress
type StartNodeCommand struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID
	NodeID    valueobjects.NodeID
}

// Validate checks the command
func (c StartNodeCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.JourneyID.IsZero() || c.NodeID.IsZero() {
		return pkgerrors.NewValidationError("journey id and node id are required")
	}
	return nil
}

// CompleteNodeCommand marks a node completed and unlocks its dependents
type CompleteNodeCommand struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID
	NodeID    valueobjects.NodeID
}

// Validate checks the command
func (c CompleteNodeCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.JourneyID.IsZero() || c.NodeID.IsZero() {
		return pkgerrors.NewValidationError("journey id and node id are required")
	}
	return nil
}

// CompleteNodeResult is returned by CompleteNodeCommand
type CompleteNodeResult struct {
	Progress      aggregates.ProgressSnapshot `json:"progress"`
	Unlocked      []valueobjects.NodeID       `json:"unlocked"`
	SyncedParents []SyncedMilestone           `json:"synced_parents,omitempty"`
}

// SyncedMilestone is a parent node completed because its sub-journey crossed the threshold
type SyncedMilestone struct {
	JourneyID valueobjects.JourneyID `json:"journey_id"`
	NodeID    valueobjects.NodeID    `json:"node_id"`
}

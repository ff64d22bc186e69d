package commands

import (
	"prepcoach/application/ports"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// CreateJourneyCommand creates an empty journey catalogue entry
type CreateJourneyCommand struct {
	Actor       ports.Actor
	JourneyID   string                   `json:"journey_id,omitempty"`
	Title       string                   `json:"title" validate:"required,max=200"`
	Description string                   `json:"description" validate:"max=5000"`
	Kind        valueobjects.JourneyKind `json:"kind" validate:"required,oneof=roadmap journey"`
}

// Validate checks the command
func (c CreateJourneyCommand) Validate() error {
	if err := c.Actor.RequireAdmin(); err != nil {
		return err
	}
	if !c.Kind.IsValid() {
		return pkgerrors.NewValidationError("kind must be roadmap or journey")
	}
	return nil
}

// AddNodeCommand appends a node to a journey
type AddNodeCommand struct {
	Actor        ports.Actor
	JourneyID    valueobjects.JourneyID `json:"journey_id"`
	NodeID       string                 `json:"node_id,omitempty"`
	Title        string                 `json:"title" validate:"required,max=200"`
	Description  string                 `json:"description" validate:"max=5000"`
	Type         valueobjects.NodeType  `json:"type" validate:"required,oneof=milestone topic objective"`
	Order        int                    `json:"order" validate:"min=0"`
	SubJourneyID string                 `json:"sub_journey_id,omitempty"`
}

// Validate checks the command
func (c AddNodeCommand) Validate() error {
	if err := c.Actor.RequireAdmin(); err != nil {
		return err
	}
	if c.JourneyID.IsZero() {
		return pkgerrors.NewValidationError("journey id is required")
	}
	return nil
}

// ConnectNodesCommand adds an edge between two nodes of a journey
type ConnectNodesCommand struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID `json:"journey_id"`
	Source    string                 `json:"source" validate:"required"`
	Target    string                 `json:"target" validate:"required"`
	Type      valueobjects.EdgeType  `json:"type" validate:"required,oneof=sequential related"`
}

// Validate checks the command
func (c ConnectNodesCommand) Validate() error {
	if err := c.Actor.RequireAdmin(); err != nil {
		return err
	}
	if c.JourneyID.IsZero() || c.Source == "" || c.Target == "" {
		return pkgerrors.NewValidationError("journey id, source and target are required")
	}
	return nil
}

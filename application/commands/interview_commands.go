package commands

import (
	"time"

	"prepcoach/application/ports"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// CreateInterviewCommand creates an interview and its preparation plan
type CreateInterviewCommand struct {
	Actor          ports.Actor
	JobTitle       string     `json:"job_title" validate:"required,max=200"`
	Company        string     `json:"company" validate:"max=200"`
	JobDescription string     `json:"job_description" validate:"max=20000"`
	InterviewDate  *time.Time `json:"interview_date,omitempty"`
}

// Validate checks the command
func (c CreateInterviewCommand) Validate() error {
	return c.Actor.RequireUser()
}

// UpdateInterviewProgressCommand sets the preparation percentage
type UpdateInterviewProgressCommand struct {
	Actor       ports.Actor
	InterviewID string
	Progress    int `json:"progress"`
}

// Validate checks the command
func (c UpdateInterviewProgressCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.InterviewID == "" {
		return pkgerrors.NewValidationError("interview id is required")
	}
	return nil
}

// UpdateInterviewStatusCommand sets the interview status explicitly
type UpdateInterviewStatusCommand struct {
	Actor       ports.Actor
	InterviewID string
	Status      valueobjects.InterviewStatus `json:"status"`
}

// Validate checks the command
func (c UpdateInterviewStatusCommand) Validate() error {
	if err := c.Actor.RequireUser(); err != nil {
		return err
	}
	if c.InterviewID == "" {
		return pkgerrors.NewValidationError("interview id is required")
	}
	if !c.Status.IsValid() {
		return pkgerrors.NewValidationError("status must be upcoming, active or completed")
	}
	return nil
}

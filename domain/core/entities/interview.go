package entities

import (
	"strings"
	"time"

	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
)

// PrepSection groups topics and practice questions of a preparation plan
type PrepSection struct {
	Title     string   `json:"title" dynamodbav:"title"`
	Topics    []string `json:"topics" dynamodbav:"topics"`
	Questions []string `json:"questions" dynamodbav:"questions"`
}

// InterviewDetails is what a user provides when creating an interview
type InterviewDetails struct {
	JobTitle       string
	Company        string
	JobDescription string
	InterviewDate  *time.Time
}

// Interview is a user's preparation for one job interview
type Interview struct {
	ID             string                       `json:"id" dynamodbav:"interview_id"`
	UserID         string                       `json:"user_id" dynamodbav:"user_id"`
	JobTitle       string                       `json:"job_title" dynamodbav:"job_title"`
	Company        string                       `json:"company" dynamodbav:"company"`
	JobDescription string                       `json:"job_description" dynamodbav:"job_description"`
	InterviewDate  *time.Time                   `json:"interview_date,omitempty" dynamodbav:"interview_date,omitempty"`
	Content        []PrepSection                `json:"content" dynamodbav:"content"`
	Status         valueobjects.InterviewStatus `json:"status" dynamodbav:"status"`
	Progress       int                          `json:"progress" dynamodbav:"progress"`
	CreatedAt      time.Time                    `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at" dynamodbav:"updated_at"`
	Version        int                          `json:"-" dynamodbav:"version"`

	events []events.DomainEvent
}

// NewInterview creates an upcoming interview with its preparation plan
func NewInterview(userID string, details InterviewDetails, content []PrepSection, now time.Time) (*Interview, error) {
	if userID == "" {
		return nil, pkgerrors.NewAuthenticationError("")
	}
	title := strings.TrimSpace(details.JobTitle)
	if title == "" {
		return nil, pkgerrors.NewValidationError("job title is required")
	}

	iv := &Interview{
		ID:             valueobjects.NewID(),
		UserID:         userID,
		JobTitle:       title,
		Company:        strings.TrimSpace(details.Company),
		JobDescription: strings.TrimSpace(details.JobDescription),
		InterviewDate:  details.InterviewDate,
		Content:        content,
		Status:         valueobjects.InterviewStatusUpcoming,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	iv.events = append(iv.events, events.NewInterviewCreated(iv.ID, userID, iv.JobTitle, iv.Company, now))
	return iv, nil
}

// UpdateProgress clamps the percentage to [0,100] and derives the status from it
func (iv *Interview) UpdateProgress(percent int, now time.Time) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	old := iv.Status
	iv.Progress = percent
	iv.Status = valueobjects.InterviewStatusForProgress(percent)
	iv.UpdatedAt = now

	if old != iv.Status {
		iv.events = append(iv.events, events.NewInterviewStatusChanged(
			iv.ID, iv.UserID, string(old), string(iv.Status), iv.Progress, now, iv.Version+1))
	}
}

// UpdateStatus sets the status explicitly. Completing pins progress at 100
// and returning to upcoming resets it to 0.
func (iv *Interview) UpdateStatus(status valueobjects.InterviewStatus, now time.Time) error {
	if !status.IsValid() {
		return pkgerrors.NewValidationError("invalid interview status " + string(status))
	}
	if status == iv.Status {
		return nil
	}

	old := iv.Status
	iv.Status = status
	switch status {
	case valueobjects.InterviewStatusCompleted:
		iv.Progress = 100
	case valueobjects.InterviewStatusUpcoming:
		iv.Progress = 0
	case valueobjects.InterviewStatusActive:
		if iv.Progress < 1 {
			iv.Progress = 1
		} else if iv.Progress > 99 {
			iv.Progress = 99
		}
	}
	iv.UpdatedAt = now

	iv.events = append(iv.events, events.NewInterviewStatusChanged(
		iv.ID, iv.UserID, string(old), string(status), iv.Progress, now, iv.Version+1))
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (iv *Interview) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(iv.events))
	copy(out, iv.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (iv *Interview) MarkEventsAsCommitted() {
	iv.events = nil
}

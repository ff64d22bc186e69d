package queries

import (
	"prepcoach/application/ports"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/pkg/common"
	pkgerrors "prepcoach/pkg/errors"
)

// GetJourneyQuery loads one journey. Non-admins get hidden nodes filtered
// out and hidden journeys reported as NOT_FOUND.
type GetJourneyQuery struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID
}

// Validate validates the query
func (q GetJourneyQuery) Validate() error {
	if q.JourneyID.IsZero() {
		return pkgerrors.NewValidationError("journey id is required")
	}
	return nil
}

// ListJourneysQuery lists journeys visible to the caller
type ListJourneysQuery struct {
	Actor ports.Actor
	Kind  valueobjects.JourneyKind
}

// Validate validates the query
func (q ListJourneysQuery) Validate() error {
	if q.Kind != "" && !q.Kind.IsValid() {
		return pkgerrors.NewValidationError("kind must be roadmap or journey")
	}
	return nil
}

// GetProgressQuery loads the caller's progress on a journey
type GetProgressQuery struct {
	Actor     ports.Actor
	JourneyID valueobjects.JourneyID
}

// Validate validates the query
func (q GetProgressQuery) Validate() error {
	if err := q.Actor.RequireUser(); err != nil {
		return err
	}
	if q.JourneyID.IsZero() {
		return pkgerrors.NewValidationError("journey id is required")
	}
	return nil
}

// ListProgressQuery lists the caller's progress records
type ListProgressQuery struct {
	Actor ports.Actor
}

// Validate validates the query
func (q ListProgressQuery) Validate() error {
	return q.Actor.RequireUser()
}

// GetUsageQuery reports the caller's iteration allowance
type GetUsageQuery struct {
	Actor ports.Actor
}

// Validate validates the query
func (q GetUsageQuery) Validate() error {
	return q.Actor.RequireUser()
}

// GetAccountQuery returns the caller's account
type GetAccountQuery struct {
	Actor ports.Actor
}

// Validate validates the query
func (q GetAccountQuery) Validate() error {
	return q.Actor.RequireUser()
}

// GetPricingQuery lists the plan tiers
type GetPricingQuery struct{}

// Validate validates the query
func (q GetPricingQuery) Validate() error { return nil }

// GetVisibilityQuery returns the stored setting of an entity (admin)
type GetVisibilityQuery struct {
	Actor      ports.Actor
	EntityType valueobjects.EntityType
	EntityID   string
}

// Validate validates the query
func (q GetVisibilityQuery) Validate() error {
	if err := q.Actor.RequireAdmin(); err != nil {
		return err
	}
	return validateEntity(q.EntityType, q.EntityID)
}

// ListVisibilityQuery lists the settings of one entity type (admin)
type ListVisibilityQuery struct {
	Actor      ports.Actor
	EntityType valueobjects.EntityType
}

// Validate validates the query
func (q ListVisibilityQuery) Validate() error {
	if err := q.Actor.RequireAdmin(); err != nil {
		return err
	}
	if !q.EntityType.IsValid() {
		return pkgerrors.NewValidationError("entity type must be journey, milestone or objective")
	}
	return nil
}

// EffectiveVisibilityQuery resolves visibility through the parent chain
type EffectiveVisibilityQuery struct {
	EntityType valueobjects.EntityType
	EntityID   string
}

// Validate validates the query
func (q EffectiveVisibilityQuery) Validate() error {
	return validateEntity(q.EntityType, q.EntityID)
}

// ListAuditLogQuery lists the audit trail of an entity (admin)
type ListAuditLogQuery struct {
	Actor      ports.Actor
	EntityType valueobjects.EntityType
	EntityID   string
}

// Validate validates the query
func (q ListAuditLogQuery) Validate() error {
	if err := q.Actor.RequireAdmin(); err != nil {
		return err
	}
	return validateEntity(q.EntityType, q.EntityID)
}

// GetInterviewQuery loads one of the caller's interviews
type GetInterviewQuery struct {
	Actor       ports.Actor
	InterviewID string
}

// Validate validates the query
func (q GetInterviewQuery) Validate() error {
	if err := q.Actor.RequireUser(); err != nil {
		return err
	}
	if q.InterviewID == "" {
		return pkgerrors.NewValidationError("interview id is required")
	}
	return nil
}

// ListInterviewsQuery pages through the caller's interviews
type ListInterviewsQuery struct {
	Actor      ports.Actor
	Status     valueobjects.InterviewStatus
	Pagination common.PaginationParams
}

// Validate validates the query
func (q ListInterviewsQuery) Validate() error {
	if err := q.Actor.RequireUser(); err != nil {
		return err
	}
	if q.Status != "" && !q.Status.IsValid() {
		return pkgerrors.NewValidationError("status must be upcoming, active or completed")
	}
	return nil
}

// SearchRoadmapQuery fuzzy-matches node titles
type SearchRoadmapQuery struct {
	Actor     ports.Actor
	Query     string
	JourneyID valueobjects.JourneyID
	Limit     int
}

// Validate validates the query
func (q SearchRoadmapQuery) Validate() error {
	if q.Query == "" {
		return pkgerrors.NewValidationError("search query is required")
	}
	if q.Limit < 0 {
		return pkgerrors.NewValidationError("limit must not be negative")
	}
	return nil
}

func validateEntity(entityType valueobjects.EntityType, entityID string) error {
	if !entityType.IsValid() {
		return pkgerrors.NewValidationError("entity type must be journey, milestone or objective")
	}
	if entityID == "" {
		return pkgerrors.NewValidationError("entity id is required")
	}
	return nil
}

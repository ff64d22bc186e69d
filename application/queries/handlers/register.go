package handlers

import (
	"prepcoach/application/queries"
	"prepcoach/application/queries/bus"
)

// Set groups every query handler for registration on the bus
type Set struct {
	Journeys   *JourneyQueryHandler
	Visibility *VisibilityQueryHandler
	Accounts   *AccountQueryHandler
}

// Register wires every query type to its handler
func (s *Set) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetJourneyQuery{}, bus.Adapt(s.Journeys.HandleGetJourney)},
		{queries.ListJourneysQuery{}, bus.Adapt(s.Journeys.HandleListJourneys)},
		{queries.GetProgressQuery{}, bus.Adapt(s.Journeys.HandleGetProgress)},
		{queries.ListProgressQuery{}, bus.Adapt(s.Journeys.HandleListProgress)},
		{queries.SearchRoadmapQuery{}, bus.Adapt(s.Journeys.HandleSearchRoadmap)},
		{queries.GetVisibilityQuery{}, bus.Adapt(s.Visibility.HandleGetVisibility)},
		{queries.ListVisibilityQuery{}, bus.Adapt(s.Visibility.HandleListVisibility)},
		{queries.EffectiveVisibilityQuery{}, bus.Adapt(s.Visibility.HandleEffectiveVisibility)},
		{queries.ListAuditLogQuery{}, bus.Adapt(s.Visibility.HandleListAuditLog)},
		{queries.GetAccountQuery{}, bus.Adapt(s.Accounts.HandleGetAccount)},
		{queries.GetUsageQuery{}, bus.Adapt(s.Accounts.HandleGetUsage)},
		{queries.GetPricingQuery{}, bus.Adapt(s.Accounts.HandleGetPricing)},
		{queries.GetInterviewQuery{}, bus.Adapt(s.Accounts.HandleGetInterview)},
		{queries.ListInterviewsQuery{}, bus.Adapt(s.Accounts.HandleListInterviews)},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

package handlers

import (
	"context"

	"prepcoach/application/ports"
	"prepcoach/application/queries"
	"prepcoach/application/services"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// JourneyQueryHandler serves journey catalogue and progress reads
type JourneyQueryHandler struct {
	journeys   services.JourneyReader
	progress   ports.ProgressRepository
	visibility *services.VisibilityResolver
	search     *services.RoadmapSearch
}

// NewJourneyQueryHandler creates a new journey query handler
func NewJourneyQueryHandler(
	journeys services.JourneyReader,
	progress ports.ProgressRepository,
	visibility *services.VisibilityResolver,
	search *services.RoadmapSearch,
) *JourneyQueryHandler {
	return &JourneyQueryHandler{
		journeys:   journeys,
		progress:   progress,
		visibility: visibility,
		search:     search,
	}
}

// HandleGetJourney returns a journey with its graph
func (h *JourneyQueryHandler) HandleGetJourney(ctx context.Context, q queries.GetJourneyQuery) (aggregates.JourneySnapshot, error) {
	journey, err := h.journeys.Get(ctx, q.JourneyID)
	if err != nil {
		return aggregates.JourneySnapshot{}, err
	}
	if q.Actor.IsAdmin {
		return journey.Snapshot(), nil
	}

	public, err := h.visibility.IsPublic(ctx, valueobjects.EntityTypeJourney, journey.ID().String())
	if err != nil {
		return aggregates.JourneySnapshot{}, err
	}
	if !public {
		return aggregates.JourneySnapshot{}, pkgerrors.NewNotFoundError("journey")
	}
	return h.visibility.FilterJourney(ctx, journey)
}

// HandleListJourneys lists the journeys the caller may see
func (h *JourneyQueryHandler) HandleListJourneys(ctx context.Context, q queries.ListJourneysQuery) (*queries.ListJourneysResult, error) {
	journeys, err := h.journeys.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &queries.ListJourneysResult{Journeys: []queries.JourneySummary{}}
	for _, j := range journeys {
		if q.Kind != "" && j.Kind() != q.Kind {
			continue
		}
		public, err := h.visibility.IsPublic(ctx, valueobjects.EntityTypeJourney, j.ID().String())
		if err != nil {
			return nil, err
		}
		if !public && !q.Actor.IsAdmin {
			continue
		}
		result.Journeys = append(result.Journeys, queries.JourneySummary{
			ID:          j.ID().String(),
			Title:       j.Title(),
			Description: j.Description(),
			Kind:        string(j.Kind()),
			NodeCount:   len(j.Nodes()),
			IsPublic:    public,
		})
	}
	return result, nil
}

// HandleGetProgress returns the caller's progress on a journey
func (h *JourneyQueryHandler) HandleGetProgress(ctx context.Context, q queries.GetProgressQuery) (aggregates.ProgressSnapshot, error) {
	progress, err := h.progress.Get(ctx, q.Actor.UserID, q.JourneyID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			notStarted := pkgerrors.NewNotFoundError("progress")
			notStarted.Message = "journey not started"
			return aggregates.ProgressSnapshot{}, notStarted
		}
		return aggregates.ProgressSnapshot{}, err
	}
	if q.Actor.IsAdmin {
		return progress.Snapshot(), nil
	}
	return h.visibleProgress(ctx, progress)
}

// HandleListProgress lists the caller's progress records. Records of hidden
// journeys are left out for non-admins.
func (h *JourneyQueryHandler) HandleListProgress(ctx context.Context, q queries.ListProgressQuery) (*queries.ListProgressResult, error) {
	records, err := h.progress.ListByUser(ctx, q.Actor.UserID)
	if err != nil {
		return nil, err
	}

	result := &queries.ListProgressResult{Progress: make([]aggregates.ProgressSnapshot, 0, len(records))}
	for _, p := range records {
		if q.Actor.IsAdmin {
			result.Progress = append(result.Progress, p.Snapshot())
			continue
		}
		snap, err := h.visibleProgress(ctx, p)
		if pkgerrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Progress = append(result.Progress, snap)
	}
	return result, nil
}

func (h *JourneyQueryHandler) visibleProgress(ctx context.Context, progress *aggregates.UserJourneyProgress) (aggregates.ProgressSnapshot, error) {
	journey, err := h.journeys.Get(ctx, progress.JourneyID())
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	hidden, err := h.visibility.CheckAccess(ctx, journey, "")
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	return services.FilterProgress(progress.Snapshot(), hidden), nil
}

// HandleSearchRoadmap runs the command palette search
func (h *JourneyQueryHandler) HandleSearchRoadmap(ctx context.Context, q queries.SearchRoadmapQuery) ([]services.SearchHit, error) {
	return h.search.Search(ctx, q.Query, q.JourneyID, q.Limit, q.Actor.IsAdmin)
}

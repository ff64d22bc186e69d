package handlers

import (
	"context"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
)

// ProgressHandler handles journey progress commands
type ProgressHandler struct {
	service    *services.ProgressService
	journeys   services.JourneyReader
	visibility *services.VisibilityResolver
}

// NewProgressHandler creates a new progress command handler
func NewProgressHandler(service *services.ProgressService, journeys services.JourneyReader, visibility *services.VisibilityResolver) *ProgressHandler {
	return &ProgressHandler{service: service, journeys: journeys, visibility: visibility}
}

// authorize applies visibility for non-admins and returns the nodes to keep
// out of the response
func (h *ProgressHandler) authorize(ctx context.Context, actor ports.Actor, journeyID valueobjects.JourneyID, nodeID valueobjects.NodeID) (map[valueobjects.NodeID]bool, error) {
	if actor.IsAdmin {
		return nil, nil
	}
	journey, err := h.journeys.Get(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	return h.visibility.CheckAccess(ctx, journey, nodeID)
}

// HandleStartJourney starts a journey for the caller. Starting twice returns the existing record.
func (h *ProgressHandler) HandleStartJourney(ctx context.Context, cmd commands.StartJourneyCommand) (aggregates.ProgressSnapshot, error) {
	if err := cmd.Validate(); err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	hidden, err := h.authorize(ctx, cmd.Actor, cmd.JourneyID, "")
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	progress, err := h.service.StartJourney(ctx, cmd.Actor.UserID, cmd.JourneyID)
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	return services.FilterProgress(progress.Snapshot(), hidden), nil
}

// HandleStartNode marks a node in progress
func (h *ProgressHandler) HandleStartNode(ctx context.Context, cmd commands.StartNodeCommand) (aggregates.ProgressSnapshot, error) {
	if err := cmd.Validate(); err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	hidden, err := h.authorize(ctx, cmd.Actor, cmd.JourneyID, cmd.NodeID)
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	progress, err := h.service.StartNode(ctx, cmd.Actor.UserID, cmd.JourneyID, cmd.NodeID)
	if err != nil {
		return aggregates.ProgressSnapshot{}, err
	}
	return services.FilterProgress(progress.Snapshot(), hidden), nil
}

// HandleCompleteNode completes a node and reports what it unlocked
func (h *ProgressHandler) HandleCompleteNode(ctx context.Context, cmd commands.CompleteNodeCommand) (*commands.CompleteNodeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	hidden, err := h.authorize(ctx, cmd.Actor, cmd.JourneyID, cmd.NodeID)
	if err != nil {
		return nil, err
	}

	outcome, err := h.service.CompleteNode(ctx, cmd.Actor.UserID, cmd.JourneyID, cmd.NodeID)
	if err != nil {
		return nil, err
	}

	result := &commands.CompleteNodeResult{
		Progress: services.FilterProgress(outcome.Progress.Snapshot(), hidden),
		Unlocked: []valueobjects.NodeID{},
	}
	for _, id := range outcome.Unlocked {
		if !hidden[id] {
			result.Unlocked = append(result.Unlocked, id)
		}
	}
	for _, s := range outcome.Synced {
		if !cmd.Actor.IsAdmin {
			visible, err := h.parentVisible(ctx, s.JourneyID, s.NodeID)
			if err != nil {
				return nil, err
			}
			if !visible {
				continue
			}
		}
		result.SyncedParents = append(result.SyncedParents, commands.SyncedMilestone{
			JourneyID: s.JourneyID,
			NodeID:    s.NodeID,
		})
	}
	return result, nil
}

// parentVisible reports whether a synced parent milestone may be named to a non-admin
func (h *ProgressHandler) parentVisible(ctx context.Context, journeyID valueobjects.JourneyID, nodeID valueobjects.NodeID) (bool, error) {
	public, err := h.visibility.IsPublic(ctx, valueobjects.EntityTypeJourney, journeyID.String())
	if err != nil || !public {
		return false, err
	}
	return h.visibility.IsPublic(ctx, valueobjects.EntityTypeMilestone, nodeID.String())
}

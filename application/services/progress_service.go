package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
)

// ProgressService runs journey progress use cases, including the
// propagation of sub-journey completion into parent journeys.
type ProgressService struct {
	journeys   JourneyReader
	parents    ports.JourneyRepository
	progress   ports.ProgressRepository
	dispatcher *EventDispatcher
	cfg        *config.DomainConfig
	logger     *zap.Logger
}

// NewProgressService creates a progress service
func NewProgressService(
	journeys JourneyReader,
	parents ports.JourneyRepository,
	progress ports.ProgressRepository,
	dispatcher *EventDispatcher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *ProgressService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ProgressService{
		journeys:   journeys,
		parents:    parents,
		progress:   progress,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// SyncedMilestone identifies a parent node completed by the sync
type SyncedMilestone struct {
	JourneyID valueobjects.JourneyID
	NodeID    valueobjects.NodeID
}

// CompletionOutcome is the result of completing a node
type CompletionOutcome struct {
	Progress *aggregates.UserJourneyProgress
	Unlocked []valueobjects.NodeID
	Synced   []SyncedMilestone
}

// StartJourney returns the user's progress on a journey, creating it on first use
func (s *ProgressService) StartJourney(ctx context.Context, userID string, journeyID valueobjects.JourneyID) (*aggregates.UserJourneyProgress, error) {
	if userID == "" {
		return nil, pkgerrors.NewAuthenticationError("")
	}

	journey, err := s.journeys.Get(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	return s.getOrStart(ctx, userID, journey)
}

func (s *ProgressService) getOrStart(ctx context.Context, userID string, journey *aggregates.Journey) (*aggregates.UserJourneyProgress, error) {
	existing, err := s.progress.Get(ctx, userID, journey.ID())
	if err == nil {
		return existing, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	progress, err := aggregates.NewUserJourneyProgress(userID, journey)
	if err != nil {
		return nil, err
	}
	if err := s.progress.Save(ctx, progress); err != nil {
		if pkgerrors.IsConflict(err) {
			// Started concurrently by another request
			return s.progress.Get(ctx, userID, journey.ID())
		}
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, userID, progress)

	s.logger.Info("Journey started",
		zap.String("user_id", userID),
		zap.String("journey_id", journey.ID().String()),
	)
	return progress, nil
}

// StartNode marks an available node as in progress
func (s *ProgressService) StartNode(ctx context.Context, userID string, journeyID valueobjects.JourneyID, nodeID valueobjects.NodeID) (*aggregates.UserJourneyProgress, error) {
	journey, progress, err := s.load(ctx, userID, journeyID)
	if err != nil {
		return nil, err
	}

	if err := progress.StartNode(journey, nodeID); err != nil {
		return nil, err
	}
	if len(progress.GetUncommittedEvents()) == 0 {
		return progress, nil
	}
	if err := s.progress.Save(ctx, progress); err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, userID, progress)
	return progress, nil
}

// CompleteNode completes a node, persists the newly unlocked nodes and then
// propagates into parent journeys once the sync threshold is reached.
func (s *ProgressService) CompleteNode(ctx context.Context, userID string, journeyID valueobjects.JourneyID, nodeID valueobjects.NodeID) (*CompletionOutcome, error) {
	journey, progress, err := s.load(ctx, userID, journeyID)
	if err != nil {
		return nil, err
	}

	unlocked, err := progress.CompleteNode(journey, nodeID)
	if err != nil {
		return nil, err
	}

	outcome := &CompletionOutcome{Progress: progress, Unlocked: unlocked}
	if len(progress.GetUncommittedEvents()) == 0 {
		// Already completed
		return outcome, nil
	}

	if err := s.progress.Save(ctx, progress); err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, userID, progress)

	s.logger.Debug("Node completed",
		zap.String("user_id", userID),
		zap.String("journey_id", journeyID.String()),
		zap.String("node_id", nodeID.String()),
		zap.Int("unlocked", len(unlocked)),
		zap.Int("overall", progress.OverallProgress()),
	)

	outcome.Synced = s.syncParents(ctx, userID, journeyID, progress.OverallProgress(), 1)
	return outcome, nil
}

// syncParents completes the parent milestones referencing a sub-journey whose
// progress reached the threshold. Failures are logged: the child completion is
// already persisted and is not rolled back.
func (s *ProgressService) syncParents(ctx context.Context, userID string, childID valueobjects.JourneyID, childOverall, depth int) []SyncedMilestone {
	if childOverall < s.cfg.ParentSyncThreshold || depth > s.cfg.MaxSubJourneyDepth {
		return nil
	}

	parents, err := s.parents.FindParents(ctx, childID)
	if err != nil {
		s.logger.Warn("Failed to find parent journeys", zap.String("journey_id", childID.String()), zap.Error(err))
		return nil
	}

	var synced []SyncedMilestone
	for _, parent := range parents {
		if parent.ID() == childID {
			continue
		}
		milestones := parent.ParentMilestones(childID)
		if len(milestones) == 0 {
			continue
		}

		parentProgress, err := s.getOrStart(ctx, userID, parent)
		if err != nil {
			s.logger.Warn("Failed to start parent journey", zap.String("journey_id", parent.ID().String()), zap.Error(err))
			continue
		}

		var completed []valueobjects.NodeID
		for _, node := range milestones {
			if parentProgress.Status(node.ID) == valueobjects.NodeStatusCompleted {
				continue
			}
			if _, err := parentProgress.CompleteNode(parent, node.ID); err != nil {
				s.logger.Warn("Failed to complete parent milestone",
					zap.String("journey_id", parent.ID().String()),
					zap.String("node_id", node.ID.String()),
					zap.Error(err),
				)
				continue
			}
			completed = append(completed, node.ID)
		}
		if len(completed) == 0 {
			continue
		}

		if err := s.progress.Save(ctx, parentProgress); err != nil {
			s.logger.Warn("Failed to save parent progress", zap.String("journey_id", parent.ID().String()), zap.Error(err))
			continue
		}
		s.dispatcher.Dispatch(ctx, userID, parentProgress)

		now := time.Now()
		for _, nodeID := range completed {
			s.dispatcher.Publish(ctx, userID, events.NewParentMilestoneSynced(
				userID, childID.String(), parent.ID().String(), nodeID.String(), now))
			synced = append(synced, SyncedMilestone{JourneyID: parent.ID(), NodeID: nodeID})
		}

		synced = append(synced, s.syncParents(ctx, userID, parent.ID(), parentProgress.OverallProgress(), depth+1)...)
	}
	return synced
}

func (s *ProgressService) load(ctx context.Context, userID string, journeyID valueobjects.JourneyID) (*aggregates.Journey, *aggregates.UserJourneyProgress, error) {
	if userID == "" {
		return nil, nil, pkgerrors.NewAuthenticationError("")
	}

	journey, err := s.journeys.Get(ctx, journeyID)
	if err != nil {
		return nil, nil, err
	}

	progress, err := s.progress.Get(ctx, userID, journeyID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			notStarted := pkgerrors.NewNotFoundError("progress")
			notStarted.Message = "journey not started"
			return nil, nil, notStarted
		}
		return nil, nil, fmt.Errorf("failed to load progress: %w", err)
	}
	return journey, progress, nil
}

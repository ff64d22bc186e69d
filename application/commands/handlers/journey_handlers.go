package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
)

// JourneyHandler handles the admin commands that edit journey catalogues
type JourneyHandler struct {
	repo       ports.JourneyRepository
	reader     services.JourneyReader
	dispatcher *services.EventDispatcher
	cfg        *config.DomainConfig
	logger     *zap.Logger
}

// NewJourneyHandler creates a new journey command handler
func NewJourneyHandler(
	repo ports.JourneyRepository,
	reader services.JourneyReader,
	dispatcher *services.EventDispatcher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *JourneyHandler {
	return &JourneyHandler{
		repo:       repo,
		reader:     reader,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
	}
}

// HandleCreateJourney creates an empty journey
func (h *JourneyHandler) HandleCreateJourney(ctx context.Context, cmd commands.CreateJourneyCommand) (aggregates.JourneySnapshot, error) {
	if err := cmd.Validate(); err != nil {
		return aggregates.JourneySnapshot{}, err
	}

	var (
		journey *aggregates.Journey
		err     error
	)
	if cmd.JourneyID != "" {
		journey, err = aggregates.NewJourneyWithID(valueobjects.JourneyID(cmd.JourneyID), cmd.Title, cmd.Description, cmd.Kind, h.cfg)
	} else {
		journey, err = aggregates.NewJourney(cmd.Title, cmd.Description, cmd.Kind, h.cfg)
	}
	if err != nil {
		return aggregates.JourneySnapshot{}, err
	}

	if err := h.repo.Save(ctx, journey); err != nil {
		return aggregates.JourneySnapshot{}, fmt.Errorf("failed to save journey: %w", err)
	}
	h.dispatcher.Dispatch(ctx, "", journey)

	h.logger.Info("Journey created",
		zap.String("journey_id", journey.ID().String()),
		zap.String("actor", cmd.Actor.UserID),
	)
	return journey.Snapshot(), nil
}

// HandleAddNode appends a node to a journey
func (h *JourneyHandler) HandleAddNode(ctx context.Context, cmd commands.AddNodeCommand) (aggregates.JourneyNode, error) {
	if err := cmd.Validate(); err != nil {
		return aggregates.JourneyNode{}, err
	}

	journey, err := h.repo.GetByID(ctx, cmd.JourneyID)
	if err != nil {
		return aggregates.JourneyNode{}, err
	}

	node := aggregates.JourneyNode{
		ID:           valueobjects.NodeID(cmd.NodeID),
		Title:        cmd.Title,
		Description:  cmd.Description,
		Type:         cmd.Type,
		Order:        cmd.Order,
		SubJourneyID: valueobjects.JourneyID(cmd.SubJourneyID),
	}
	if err := journey.AddNode(node); err != nil {
		return aggregates.JourneyNode{}, err
	}

	if err := h.save(ctx, journey); err != nil {
		return aggregates.JourneyNode{}, err
	}

	nodes := journey.Nodes()
	return nodes[len(nodes)-1], nil
}

// HandleConnectNodes adds an edge to a journey
func (h *JourneyHandler) HandleConnectNodes(ctx context.Context, cmd commands.ConnectNodesCommand) (aggregates.Edge, error) {
	if err := cmd.Validate(); err != nil {
		return aggregates.Edge{}, err
	}

	journey, err := h.repo.GetByID(ctx, cmd.JourneyID)
	if err != nil {
		return aggregates.Edge{}, err
	}

	edge, err := journey.ConnectNodes(valueobjects.NodeID(cmd.Source), valueobjects.NodeID(cmd.Target), cmd.Type)
	if err != nil {
		return aggregates.Edge{}, err
	}

	if err := h.save(ctx, journey); err != nil {
		return aggregates.Edge{}, err
	}
	return edge, nil
}

func (h *JourneyHandler) save(ctx context.Context, journey *aggregates.Journey) error {
	if err := h.repo.Save(ctx, journey); err != nil {
		return fmt.Errorf("failed to save journey: %w", err)
	}
	h.reader.Invalidate(ctx, journey.ID())
	h.dispatcher.Dispatch(ctx, "", journey)
	return nil
}

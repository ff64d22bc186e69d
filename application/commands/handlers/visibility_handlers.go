package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/validators"
	"prepcoach/domain/events"
)

// VisibilityHandler handles admin visibility writes. Every setting is stored
// together with its audit entry.
type VisibilityHandler struct {
	repo       ports.VisibilityRepository
	validator  *validators.InputValidator
	dispatcher *services.EventDispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewVisibilityHandler creates a new visibility command handler
func NewVisibilityHandler(
	repo ports.VisibilityRepository,
	validator *validators.InputValidator,
	dispatcher *services.EventDispatcher,
	logger *zap.Logger,
) *VisibilityHandler {
	return &VisibilityHandler{
		repo:       repo,
		validator:  validator,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleSetVisibility writes a single setting
func (h *VisibilityHandler) HandleSetVisibility(ctx context.Context, cmd commands.SetVisibilityCommand) (*commands.VisibilityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.apply(ctx, cmd.Actor.UserID, []commands.VisibilityUpdate{cmd.Update})
}

// HandleBatchSetVisibility writes many settings in one persistence call
func (h *VisibilityHandler) HandleBatchSetVisibility(ctx context.Context, cmd commands.BatchSetVisibilityCommand) (*commands.VisibilityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return h.apply(ctx, cmd.Actor.UserID, cmd.Updates)
}

func (h *VisibilityHandler) apply(ctx context.Context, actorID string, updates []commands.VisibilityUpdate) (*commands.VisibilityResult, error) {
	if len(updates) == 0 {
		return &commands.VisibilityResult{Settings: []entities.VisibilitySetting{}}, nil
	}
	if err := h.validator.ValidateBatchSize(len(updates)); err != nil {
		return nil, err
	}
	for _, u := range updates {
		if err := h.validator.ValidateVisibilityUpdate(u.EntityType, u.EntityID, u.ParentType, u.ParentID); err != nil {
			return nil, err
		}
	}

	now := h.now()
	settings := make([]entities.VisibilitySetting, 0, len(updates))
	entries := make([]entities.AuditLogEntry, 0, len(updates))
	changes := make([]events.DomainEvent, 0, len(updates))

	for _, u := range updates {
		before, err := h.repo.Get(ctx, u.EntityType, u.EntityID)
		if err != nil {
			return nil, fmt.Errorf("failed to read visibility: %w", err)
		}

		setting := entities.VisibilitySetting{
			EntityType: u.EntityType,
			EntityID:   u.EntityID,
			IsPublic:   u.IsPublic,
			ParentType: u.ParentType,
			ParentID:   u.ParentID,
			UpdatedBy:  actorID,
			UpdatedAt:  now,
		}
		settings = append(settings, setting)
		entries = append(entries, entities.NewVisibilityAuditEntry(actorID, before, setting))
		changes = append(changes, events.NewVisibilityChanged(string(u.EntityType), u.EntityID, u.IsPublic, actorID, now))
	}

	if err := h.repo.SaveAudited(ctx, settings, entries); err != nil {
		return nil, fmt.Errorf("failed to save visibility: %w", err)
	}
	h.dispatcher.Publish(ctx, "", changes...)

	h.logger.Info("Visibility updated",
		zap.String("actor", actorID),
		zap.Int("count", len(settings)),
	)
	return &commands.VisibilityResult{Updated: len(settings), Settings: settings}, nil
}

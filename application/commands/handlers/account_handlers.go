package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/validators"
	"prepcoach/pkg/utils"
)

// UsageHandler handles iteration usage and BYOK commands
type UsageHandler struct {
	users     *services.UserService
	sealer    ports.KeySealer
	validator *validators.InputValidator
	logger    *zap.Logger
}

// NewUsageHandler creates a new usage command handler
func NewUsageHandler(
	users *services.UserService,
	sealer ports.KeySealer,
	validator *validators.InputValidator,
	logger *zap.Logger,
) *UsageHandler {
	return &UsageHandler{
		users:     users,
		sealer:    sealer,
		validator: validator,
		logger:    logger,
	}
}

// HandleConsumeIteration records usage, failing with a quota error when the allowance is spent
func (h *UsageHandler) HandleConsumeIteration(ctx context.Context, cmd commands.ConsumeIterationCommand) (entities.Usage, error) {
	if err := cmd.Validate(); err != nil {
		return entities.Usage{}, err
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return entities.Usage{}, err
	}

	now := h.users.Now()
	if err := user.ConsumeIterations(cmd.Count, now); err != nil {
		return entities.Usage{}, err
	}
	if err := h.users.Save(ctx, user); err != nil {
		return entities.Usage{}, err
	}
	return user.Usage(now), nil
}

// HandleSetBYOK seals and stores the caller's provider key
func (h *UsageHandler) HandleSetBYOK(ctx context.Context, cmd commands.SetBYOKCommand) (*entities.BYOKCredential, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.validator.ValidateBYOK(cmd.Provider, cmd.APIKey); err != nil {
		return nil, err
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}

	sealed, err := h.sealer.Seal(cmd.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to seal key: %w", err)
	}
	user.SetBYOK(cmd.Provider, sealed, utils.MaskSecret(cmd.APIKey), h.users.Now())

	if err := h.users.Save(ctx, user); err != nil {
		return nil, err
	}

	h.logger.Info("BYOK key stored",
		zap.String("user_id", user.ID),
		zap.String("provider", cmd.Provider),
	)
	return user.BYOK, nil
}

// HandleRemoveBYOK deletes the caller's provider key
func (h *UsageHandler) HandleRemoveBYOK(ctx context.Context, cmd commands.RemoveBYOKCommand) (entities.Usage, error) {
	if err := cmd.Validate(); err != nil {
		return entities.Usage{}, err
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return entities.Usage{}, err
	}
	now := h.users.Now()
	if user.HasBYOK() {
		user.RemoveBYOK(now)
		if err := h.users.Save(ctx, user); err != nil {
			return entities.Usage{}, err
		}
	}
	return user.Usage(now), nil
}

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
)

// InterviewHandler handles interview preparation commands
type InterviewHandler struct {
	repo       ports.InterviewRepository
	users      *services.UserService
	planner    *services.PrepPlanGenerator
	validator  *validators.InputValidator
	dispatcher *services.EventDispatcher
	logger     *zap.Logger
}

// NewInterviewHandler creates a new interview command handler
func NewInterviewHandler(
	repo ports.InterviewRepository,
	users *services.UserService,
	planner *services.PrepPlanGenerator,
	validator *validators.InputValidator,
	dispatcher *services.EventDispatcher,
	logger *zap.Logger,
) *InterviewHandler {
	return &InterviewHandler{
		repo:       repo,
		users:      users,
		planner:    planner,
		validator:  validator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleCreateInterview consumes one iteration and stores a new interview with its plan
func (h *InterviewHandler) HandleCreateInterview(ctx context.Context, cmd commands.CreateInterviewCommand) (*entities.Interview, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.validator.ValidateInterviewDetails(cmd.JobTitle, cmd.JobDescription); err != nil {
		return nil, err
	}

	details := entities.InterviewDetails{
		JobTitle:       cmd.JobTitle,
		Company:        cmd.Company,
		JobDescription: cmd.JobDescription,
		InterviewDate:  cmd.InterviewDate,
	}
	now := h.users.Now()
	interview, err := entities.NewInterview(cmd.Actor.UserID, details, h.planner.Generate(details), now)
	if err != nil {
		return nil, err
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if err := user.ConsumeIterations(1, now); err != nil {
		return nil, err
	}
	if err := h.users.Save(ctx, user); err != nil {
		return nil, err
	}

	if err := h.repo.Save(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to save interview: %w", err)
	}
	h.dispatcher.Dispatch(ctx, interview.UserID, interview)

	h.logger.Info("Interview created",
		zap.String("interview_id", interview.ID),
		zap.String("user_id", interview.UserID),
	)
	return interview, nil
}

// HandleUpdateProgress sets the preparation percentage; the status follows it
func (h *InterviewHandler) HandleUpdateProgress(ctx context.Context, cmd commands.UpdateInterviewProgressCommand) (*entities.Interview, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	interview, err := h.repo.Get(ctx, cmd.Actor.UserID, cmd.InterviewID)
	if err != nil {
		return nil, err
	}

	interview.UpdateProgress(cmd.Progress, h.users.Now())
	return interview, h.save(ctx, interview)
}

// HandleUpdateStatus sets the status explicitly
func (h *InterviewHandler) HandleUpdateStatus(ctx context.Context, cmd commands.UpdateInterviewStatusCommand) (*entities.Interview, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	interview, err := h.repo.Get(ctx, cmd.Actor.UserID, cmd.InterviewID)
	if err != nil {
		return nil, err
	}

	if err := interview.UpdateStatus(cmd.Status, h.users.Now()); err != nil {
		return nil, err
	}
	return interview, h.save(ctx, interview)
}

func (h *InterviewHandler) save(ctx context.Context, interview *entities.Interview) error {
	if err := h.repo.Save(ctx, interview); err != nil {
		return fmt.Errorf("failed to save interview: %w", err)
	}
	h.dispatcher.Dispatch(ctx, interview.UserID, interview)
	return nil
}

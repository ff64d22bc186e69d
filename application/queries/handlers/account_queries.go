package handlers

import (
	"context"

	"prepcoach/application/ports"
	"prepcoach/application/queries"
	"prepcoach/application/services"
	"prepcoach/domain/config"
	"prepcoach/domain/core/entities"
	"prepcoach/pkg/common"
)

// AccountQueryHandler serves account, usage, pricing and interview reads
type AccountQueryHandler struct {
	users      *services.UserService
	interviews ports.InterviewRepository
}

// NewAccountQueryHandler creates a new account query handler
func NewAccountQueryHandler(users *services.UserService, interviews ports.InterviewRepository) *AccountQueryHandler {
	return &AccountQueryHandler{users: users, interviews: interviews}
}

// HandleGetAccount returns the caller's account
func (h *AccountQueryHandler) HandleGetAccount(ctx context.Context, q queries.GetAccountQuery) (*entities.User, error) {
	return h.users.GetOrCreate(ctx, q.Actor)
}

// HandleGetUsage reports the caller's allowance
func (h *AccountQueryHandler) HandleGetUsage(ctx context.Context, q queries.GetUsageQuery) (entities.Usage, error) {
	user, err := h.users.GetOrCreate(ctx, q.Actor)
	if err != nil {
		return entities.Usage{}, err
	}
	return user.Usage(h.users.Now()), nil
}

// HandleGetPricing lists the plan tiers
func (h *AccountQueryHandler) HandleGetPricing(ctx context.Context, q queries.GetPricingQuery) ([]config.PricingTier, error) {
	return config.PricingTiers(), nil
}

// HandleGetInterview returns one of the caller's interviews
func (h *AccountQueryHandler) HandleGetInterview(ctx context.Context, q queries.GetInterviewQuery) (*entities.Interview, error) {
	return h.interviews.Get(ctx, q.Actor.UserID, q.InterviewID)
}

// HandleListInterviews returns a page of the caller's interviews, optionally filtered by status
func (h *AccountQueryHandler) HandleListInterviews(ctx context.Context, q queries.ListInterviewsQuery) (*queries.ListInterviewsResult, error) {
	all, err := h.interviews.ListByUser(ctx, q.Actor.UserID)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Interview, 0, len(all))
	for _, iv := range all {
		if q.Status == "" || iv.Status == q.Status {
			filtered = append(filtered, iv)
		}
	}

	page := q.Pagination
	if page.Page <= 0 || page.PageSize <= 0 {
		page = common.DefaultPaginationParams()
	}
	start, end := page.Window(len(filtered))
	return &queries.ListInterviewsResult{
		Interviews: filtered[start:end],
		Pagination: common.BuildPaginationMeta(page.Page, page.PageSize, len(filtered)),
	}, nil
}

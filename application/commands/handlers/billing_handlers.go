package handlers

import (
	"context"

	"go.uber.org/zap"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/application/services"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// BillingURLs are the pages the billing provider redirects back to
type BillingURLs struct {
	CheckoutSuccess string
	CheckoutCancel  string
	PortalReturn    string
}

// BillingHandler handles checkout, portal and webhook commands
type BillingHandler struct {
	users    *services.UserService
	repo     ports.UserRepository
	provider ports.BillingProvider
	prices   map[valueobjects.PlanTier]string
	urls     BillingURLs
	logger   *zap.Logger
}

// NewBillingHandler creates a new billing command handler. prices maps paid
// plans to provider price identifiers.
func NewBillingHandler(
	users *services.UserService,
	repo ports.UserRepository,
	provider ports.BillingProvider,
	prices map[valueobjects.PlanTier]string,
	urls BillingURLs,
	logger *zap.Logger,
) *BillingHandler {
	return &BillingHandler{
		users:    users,
		repo:     repo,
		provider: provider,
		prices:   prices,
		urls:     urls,
		logger:   logger,
	}
}

// HandleCreateCheckout returns a hosted checkout URL for a paid plan,
// creating the provider customer on first use.
func (h *BillingHandler) HandleCreateCheckout(ctx context.Context, cmd commands.CreateCheckoutCommand) (*commands.RedirectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	priceID, ok := h.prices[cmd.Plan]
	if !ok || priceID == "" {
		return nil, pkgerrors.NewValidationError("plan is not available for purchase")
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}

	if user.StripeCustomerID == "" {
		customerID, err := h.provider.CreateCustomer(ctx, user.Email, user.ID)
		if err != nil {
			return nil, err
		}
		user.AttachCustomer(customerID, h.users.Now())
		if err := h.users.Save(ctx, user); err != nil {
			return nil, err
		}
	}

	url, err := h.provider.CreateCheckoutSession(ctx, ports.CheckoutRequest{
		CustomerID: user.StripeCustomerID,
		PriceID:    priceID,
		UserID:     user.ID,
		Plan:       string(cmd.Plan),
		SuccessURL: h.urls.CheckoutSuccess,
		CancelURL:  h.urls.CheckoutCancel,
	})
	if err != nil {
		return nil, err
	}
	return &commands.RedirectResult{URL: url}, nil
}

// HandleCreatePortal returns the self-service portal URL
func (h *BillingHandler) HandleCreatePortal(ctx context.Context, cmd commands.CreatePortalCommand) (*commands.RedirectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	user, err := h.users.GetOrCreate(ctx, cmd.Actor)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, pkgerrors.NewNotFoundError("billing customer")
	}

	url, err := h.provider.CreatePortalSession(ctx, user.StripeCustomerID, h.urls.PortalReturn)
	if err != nil {
		return nil, err
	}
	return &commands.RedirectResult{URL: url}, nil
}

// HandleWebhook verifies and applies a provider notification. Unknown event
// types are acknowledged without changes.
func (h *BillingHandler) HandleWebhook(ctx context.Context, cmd commands.HandleWebhookCommand) (*commands.WebhookResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	evt, err := h.provider.ParseWebhook(cmd.Payload, cmd.Signature)
	if err != nil {
		return nil, err
	}
	result := &commands.WebhookResult{EventType: evt.Type}

	switch evt.Type {
	case ports.BillingEventCheckoutCompleted, ports.BillingEventSubscriptionUpdated, ports.BillingEventSubscriptionDeleted:
	default:
		return result, nil
	}

	user, err := h.findUser(ctx, evt)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			h.logger.Warn("Billing event for unknown user",
				zap.String("event_type", evt.Type),
				zap.String("customer_id", evt.CustomerID),
			)
			return result, nil
		}
		return nil, err
	}

	cancels := evt.Type == ports.BillingEventSubscriptionDeleted || inactiveStatus(evt.SubscriptionStatus)
	if cancels && replacedSubscription(user, evt) {
		h.logger.Info("Ignoring cancellation of a replaced subscription",
			zap.String("user_id", user.ID),
			zap.String("subscription_id", evt.SubscriptionID),
		)
		return result, nil
	}

	now := h.users.Now()
	switch evt.Type {
	case ports.BillingEventSubscriptionDeleted:
		user.CancelSubscription(now)
	default:
		if evt.CustomerID != "" && user.StripeCustomerID == "" {
			user.AttachCustomer(evt.CustomerID, now)
		}
		if inactiveStatus(evt.SubscriptionStatus) {
			user.CancelSubscription(now)
			break
		}
		plan := h.planFor(evt)
		if plan == "" {
			h.logger.Warn("Billing event without a known plan",
				zap.String("event_type", evt.Type),
				zap.String("price_id", evt.PriceID),
			)
			return result, nil
		}
		status := evt.SubscriptionStatus
		if status == "" {
			status = "active"
		}
		if err := user.ApplySubscription(plan, evt.SubscriptionID, status, now); err != nil {
			return nil, err
		}
	}

	if err := h.users.Save(ctx, user); err != nil {
		return nil, err
	}

	h.logger.Info("Billing event applied",
		zap.String("event_type", evt.Type),
		zap.String("user_id", user.ID),
		zap.String("plan", string(user.Plan)),
	)
	result.Handled = true
	return result, nil
}

func (h *BillingHandler) findUser(ctx context.Context, evt ports.BillingEvent) (*entities.User, error) {
	if evt.UserID != "" {
		return h.repo.GetByID(ctx, evt.UserID)
	}
	if evt.CustomerID == "" {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return h.repo.GetByCustomerID(ctx, evt.CustomerID)
}

func (h *BillingHandler) planFor(evt ports.BillingEvent) valueobjects.PlanTier {
	if evt.PriceID != "" {
		for plan, price := range h.prices {
			if price == evt.PriceID {
				return plan
			}
		}
	}
	if plan := valueobjects.PlanTier(evt.Plan); plan.IsValid() {
		return plan
	}
	return ""
}

// replacedSubscription reports whether evt concerns a subscription other
// than the one the user is currently on
func replacedSubscription(user *entities.User, evt ports.BillingEvent) bool {
	return evt.SubscriptionID != "" && user.SubscriptionID != "" && evt.SubscriptionID != user.SubscriptionID
}

func inactiveStatus(status string) bool {
	switch status {
	case "canceled", "unpaid", "incomplete_expired":
		return true
	}
	return false
}

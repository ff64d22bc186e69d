// Package billing talks to Stripe for checkout, the customer portal and webhooks.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	pkgerrors "prepcoach/pkg/errors"
)

const serviceName = "stripe"

// Gateway is the Stripe API surface the provider calls
type Gateway interface {
	NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
}

type apiGateway struct {
	api *client.API
}

// NewGateway creates a gateway on the Stripe API with the given secret key
func NewGateway(secretKey string) Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &apiGateway{api: api}
}

func (g *apiGateway) NewCustomer(params *stripe.CustomerParams) (*stripe.Customer, error) {
	return g.api.Customers.New(params)
}

func (g *apiGateway) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return g.api.CheckoutSessions.New(params)
}

func (g *apiGateway) NewPortalSession(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
	return g.api.BillingPortalSessions.New(params)
}

// BreakerConfig tunes the circuit breaker around provider calls
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig trips at 80% failures over at least five calls
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// StripeProvider implements ports.BillingProvider
type StripeProvider struct {
	gateway       Gateway
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker
	logger        *zap.Logger
}

// NewStripeProvider wraps gateway calls in a circuit breaker
func NewStripeProvider(gateway Gateway, webhookSecret string, cfg BreakerConfig, logger *zap.Logger) *StripeProvider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &StripeProvider{
		gateway:       gateway,
		webhookSecret: webhookSecret,
		breaker:       breaker,
		logger:        logger,
	}
}

// CreateCustomer registers the user with Stripe and returns the customer id
func (p *StripeProvider) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	params.AddMetadata("user_id", userID)

	out, err := p.call(func() (interface{}, error) { return p.gateway.NewCustomer(params) })
	if err != nil {
		return "", err
	}
	return out.(*stripe.Customer).ID, nil
}

// CreateCheckoutSession opens a subscription checkout and returns its URL
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req ports.CheckoutRequest) (string, error) {
	metadata := map[string]string{"user_id": req.UserID, "plan": req.Plan}
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(req.CustomerID),
		ClientReferenceID: stripe.String(req.UserID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	out, err := p.call(func() (interface{}, error) { return p.gateway.NewCheckoutSession(params) })
	if err != nil {
		return "", err
	}
	return out.(*stripe.CheckoutSession).URL, nil
}

// CreatePortalSession returns the customer portal URL
func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	out, err := p.call(func() (interface{}, error) { return p.gateway.NewPortalSession(params) })
	if err != nil {
		return "", err
	}
	return out.(*stripe.BillingPortalSession).URL, nil
}

// ParseWebhook verifies the signature and reduces the event to a BillingEvent.
// Event types the service does not handle come back with only Type set.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (ports.BillingEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return ports.BillingEvent{}, pkgerrors.NewValidationError("invalid webhook signature").WithCause(err)
	}

	evt := ports.BillingEvent{Type: string(event.Type)}
	switch evt.Type {
	case ports.BillingEventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return evt, pkgerrors.NewValidationError("malformed checkout session").WithCause(err)
		}
		if session.Customer != nil {
			evt.CustomerID = session.Customer.ID
		}
		if session.Subscription != nil {
			evt.SubscriptionID = session.Subscription.ID
		}
		evt.SubscriptionStatus = "active"
		evt.UserID = session.ClientReferenceID
		if evt.UserID == "" {
			evt.UserID = session.Metadata["user_id"]
		}
		evt.Plan = session.Metadata["plan"]

	case ports.BillingEventSubscriptionUpdated, ports.BillingEventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return evt, pkgerrors.NewValidationError("malformed subscription").WithCause(err)
		}
		evt.SubscriptionID = sub.ID
		evt.SubscriptionStatus = string(sub.Status)
		if sub.Customer != nil {
			evt.CustomerID = sub.Customer.ID
		}
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			evt.PriceID = sub.Items.Data[0].Price.ID
		}
		evt.UserID = sub.Metadata["user_id"]
		evt.Plan = sub.Metadata["plan"]
	}
	return evt, nil
}

func (p *StripeProvider) call(fn func() (interface{}, error)) (interface{}, error) {
	out, err := p.breaker.Execute(fn)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		p.logger.Warn("Billing provider unavailable", zap.Error(err))
	}
	return nil, pkgerrors.NewExternalError(serviceName, err)
}

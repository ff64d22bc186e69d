package ports

import (
	"context"
	"time"

	"prepcoach/domain/events"
)

// EventPublisher publishes domain events to the event bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// Notifier pushes realtime messages to a user's open connections
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

// Cache stores serialized values with a time to live
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// KeySealer encrypts secrets at rest
type KeySealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// CheckoutRequest describes a hosted checkout for one plan
type CheckoutRequest struct {
	CustomerID string
	PriceID    string
	UserID     string
	Plan       string
	SuccessURL string
	CancelURL  string
}

// BillingEvent is a provider webhook reduced to what the domain needs
type BillingEvent struct {
	Type               string
	CustomerID         string
	SubscriptionID     string
	SubscriptionStatus string
	PriceID            string
	UserID             string
	Plan               string
}

// Billing webhook event types
const (
	BillingEventCheckoutCompleted   = "checkout.session.completed"
	BillingEventSubscriptionUpdated = "customer.subscription.updated"
	BillingEventSubscriptionDeleted = "customer.subscription.deleted"
)

// BillingProvider is the hosted payment provider
type BillingProvider interface {
	CreateCustomer(ctx context.Context, email, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (BillingEvent, error)
}

// Locker grants exclusive leases on a named resource across processes
type Locker interface {
	Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (Lease, error)
}

// Lease is a held lock
type Lease interface {
	Release(ctx context.Context) error
}

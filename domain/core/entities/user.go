package entities

import (
	"time"

	"prepcoach/domain/config"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
	"prepcoach/pkg/utils"
)

// BYOKCredential is a user-supplied provider key. Only the sealed form is stored.
type BYOKCredential struct {
	Provider  string    `json:"provider" dynamodbav:"provider"`
	SealedKey string    `json:"-" dynamodbav:"sealed_key"`
	KeyHint   string    `json:"key_hint" dynamodbav:"key_hint"`
	AddedAt   time.Time `json:"added_at" dynamodbav:"added_at"`
}

// User is an account with its plan, usage counters and billing linkage
type User struct {
	ID                 string                `json:"id" dynamodbav:"user_id"`
	Email              string                `json:"email" dynamodbav:"email"`
	Plan               valueobjects.PlanTier `json:"plan" dynamodbav:"plan"`
	IterationsUsed     int                   `json:"iterations_used" dynamodbav:"iterations_used"`
	IterationLimit     int                   `json:"iteration_limit" dynamodbav:"iteration_limit"`
	UsageResetAt       time.Time             `json:"usage_reset_at" dynamodbav:"usage_reset_at"`
	BYOK               *BYOKCredential       `json:"byok,omitempty" dynamodbav:"byok,omitempty"`
	StripeCustomerID   string                `json:"-" dynamodbav:"stripe_customer_id,omitempty"`
	SubscriptionID     string                `json:"-" dynamodbav:"subscription_id,omitempty"`
	SubscriptionStatus string                `json:"subscription_status,omitempty" dynamodbav:"subscription_status,omitempty"`
	CreatedAt          time.Time             `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at" dynamodbav:"updated_at"`
	Version            int                   `json:"-" dynamodbav:"version"`

	events []events.DomainEvent
}

// Usage summarizes a user's iteration allowance
type Usage struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	BYOK      bool      `json:"byok"`
}

// NewUser creates a free-plan user whose usage period starts now
func NewUser(id, email string, now time.Time) (*User, error) {
	if id == "" {
		return nil, pkgerrors.NewAuthenticationError("")
	}
	return &User{
		ID:             id,
		Email:          email,
		Plan:           valueobjects.PlanFree,
		IterationLimit: config.IterationLimitFor(string(valueobjects.PlanFree)),
		UsageResetAt:   utils.NextMonthStart(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasBYOK reports whether the user has their own provider key
func (u *User) HasBYOK() bool {
	return u.BYOK != nil
}

// ResetUsageIfDue zeroes the counter once the period has passed
func (u *User) ResetUsageIfDue(now time.Time) bool {
	if now.Before(u.UsageResetAt) {
		return false
	}
	u.IterationsUsed = 0
	u.UsageResetAt = utils.NextMonthStart(now)
	u.UpdatedAt = now
	return true
}

// ConsumeIterations records n iterations of usage. BYOK users are never
// blocked by the plan limit but their usage is still counted.
func (u *User) ConsumeIterations(n int, now time.Time) error {
	if n <= 0 {
		return pkgerrors.NewValidationError("iteration count must be positive")
	}

	u.ResetUsageIfDue(now)

	if !u.HasBYOK() && u.IterationsUsed+n > u.IterationLimit {
		return pkgerrors.NewQuotaExceededError(u.IterationLimit)
	}

	u.IterationsUsed += n
	u.UpdatedAt = now
	u.addEvent(events.NewIterationConsumed(u.ID, n, u.IterationsUsed, u.HasBYOK(), now, u.Version+1))
	return nil
}

// Usage returns the allowance as seen at now, accounting for a due reset
func (u *User) Usage(now time.Time) Usage {
	used := u.IterationsUsed
	resetAt := u.UsageResetAt
	if !now.Before(resetAt) {
		used = 0
		resetAt = utils.NextMonthStart(now)
	}

	remaining := u.IterationLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{
		Used:      used,
		Limit:     u.IterationLimit,
		Remaining: remaining,
		ResetAt:   resetAt,
		BYOK:      u.HasBYOK(),
	}
}

// SetBYOK stores a sealed provider key and its display hint
func (u *User) SetBYOK(provider, sealedKey, hint string, now time.Time) {
	u.BYOK = &BYOKCredential{
		Provider:  provider,
		SealedKey: sealedKey,
		KeyHint:   hint,
		AddedAt:   now,
	}
	u.UpdatedAt = now
}

// RemoveBYOK forgets the user's provider key
func (u *User) RemoveBYOK(now time.Time) {
	u.BYOK = nil
	u.UpdatedAt = now
}

// AttachCustomer links the billing customer
func (u *User) AttachCustomer(customerID string, now time.Time) {
	u.StripeCustomerID = customerID
	u.UpdatedAt = now
}

// ApplySubscription switches the plan according to an active subscription
func (u *User) ApplySubscription(plan valueobjects.PlanTier, subscriptionID, status string, now time.Time) error {
	if !plan.IsValid() {
		return pkgerrors.NewValidationError("unknown plan " + string(plan))
	}
	old := u.Plan
	u.Plan = plan
	u.IterationLimit = config.IterationLimitFor(string(plan))
	u.SubscriptionID = subscriptionID
	u.SubscriptionStatus = status
	u.UpdatedAt = now
	if old != plan {
		u.addEvent(events.NewPlanChanged(u.ID, string(old), string(plan), now, u.Version+1))
	}
	return nil
}

// CancelSubscription drops the user back to the free plan
func (u *User) CancelSubscription(now time.Time) {
	old := u.Plan
	u.Plan = valueobjects.PlanFree
	u.IterationLimit = config.IterationLimitFor(string(valueobjects.PlanFree))
	u.SubscriptionID = ""
	u.SubscriptionStatus = "canceled"
	u.UpdatedAt = now
	if old != u.Plan {
		u.addEvent(events.NewPlanChanged(u.ID, string(old), string(u.Plan), now, u.Version+1))
	}
}

// GetUncommittedEvents returns all uncommitted domain events
func (u *User) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(u.events))
	copy(out, u.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (u *User) MarkEventsAsCommitted() {
	u.events = nil
}

func (u *User) addEvent(e events.DomainEvent) {
	u.events = append(u.events, e)
}

package handlers

import (
	"io"
	"net/http"

	"prepcoach/application/commands"
	"prepcoach/application/queries"
	pkgerrors "prepcoach/pkg/errors"
)

const maxWebhookBytes = 64 << 10

// AccountHandler serves the account, usage and billing endpoints
type AccountHandler struct {
	Base
}

// NewAccountHandler creates an account handler
func NewAccountHandler(base Base) *AccountHandler {
	return &AccountHandler{Base: base}
}

// GetAccount handles GET /me
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetAccountQuery{Actor: actorFrom(r)})
}

// GetUsage handles GET /me/usage
func (h *AccountHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetUsageQuery{Actor: actorFrom(r)})
}

// ConsumeIteration handles POST /me/usage
func (h *AccountHandler) ConsumeIteration(w http.ResponseWriter, r *http.Request) {
	cmd := commands.ConsumeIterationCommand{Count: 1}
	if r.ContentLength != 0 && !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	h.send(w, r, http.StatusOK, cmd)
}

// SetBYOK handles PUT /me/byok
func (h *AccountHandler) SetBYOK(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetBYOKCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	h.send(w, r, http.StatusOK, cmd)
}

// RemoveBYOK handles DELETE /me/byok
func (h *AccountHandler) RemoveBYOK(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.RemoveBYOKCommand{Actor: actorFrom(r)})
}

// GetPricing handles GET /pricing
func (h *AccountHandler) GetPricing(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetPricingQuery{})
}

// CreateCheckout handles POST /billing/checkout
func (h *AccountHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateCheckoutCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Actor = actorFrom(r)
	h.send(w, r, http.StatusOK, cmd)
}

// CreatePortal handles POST /billing/portal
func (h *AccountHandler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, http.StatusOK, commands.CreatePortalCommand{Actor: actorFrom(r)})
}

// Webhook handles POST /billing/webhook. The raw body is needed for signature verification.
func (h *AccountHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("unreadable webhook body").WithCause(err))
		return
	}
	h.send(w, r, http.StatusOK, commands.HandleWebhookCommand{
		Payload:   payload,
		Signature: r.Header.Get("Stripe-Signature"),
	})
}

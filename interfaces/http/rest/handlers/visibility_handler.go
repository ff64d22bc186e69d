package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepcoach/application/commands"
	"prepcoach/application/queries"
	"prepcoach/domain/core/valueobjects"
)

// VisibilityHandler serves the admin visibility endpoints
type VisibilityHandler struct {
	Base
}

// NewVisibilityHandler creates a visibility handler
func NewVisibilityHandler(base Base) *VisibilityHandler {
	return &VisibilityHandler{Base: base}
}

type batchVisibilityRequest struct {
	Updates []commands.VisibilityUpdate `json:"updates" validate:"dive"`
}

func entityType(r *http.Request) valueobjects.EntityType {
	return valueobjects.EntityType(chi.URLParam(r, "entityType"))
}

// SetVisibility handles PUT /admin/visibility
func (h *VisibilityHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var update commands.VisibilityUpdate
	if !h.decode(w, r, &update) {
		return
	}
	h.send(w, r, http.StatusOK, commands.SetVisibilityCommand{Actor: actorFrom(r), Update: update})
}

// BatchSetVisibility handles POST /admin/visibility/batch
func (h *VisibilityHandler) BatchSetVisibility(w http.ResponseWriter, r *http.Request) {
	var req batchVisibilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.send(w, r, http.StatusOK, commands.BatchSetVisibilityCommand{Actor: actorFrom(r), Updates: req.Updates})
}

// GetVisibility handles GET /admin/visibility/{entityType}/{entityID}
func (h *VisibilityHandler) GetVisibility(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetVisibilityQuery{
		Actor:      actorFrom(r),
		EntityType: entityType(r),
		EntityID:   chi.URLParam(r, "entityID"),
	})
}

// ListVisibility handles GET /admin/visibility/{entityType}
func (h *VisibilityHandler) ListVisibility(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListVisibilityQuery{Actor: actorFrom(r), EntityType: entityType(r)})
}

// ListAuditLog handles GET /admin/audit/{entityType}/{entityID}
func (h *VisibilityHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListAuditLogQuery{
		Actor:      actorFrom(r),
		EntityType: entityType(r),
		EntityID:   chi.URLParam(r, "entityID"),
	})
}

// EffectiveVisibility handles GET /visibility/{entityType}/{entityID}
func (h *VisibilityHandler) EffectiveVisibility(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.EffectiveVisibilityQuery{
		EntityType: entityType(r),
		EntityID:   chi.URLParam(r, "entityID"),
	})
}

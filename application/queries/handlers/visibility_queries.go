package handlers

import (
	"context"

	"prepcoach/application/ports"
	"prepcoach/application/queries"
	"prepcoach/application/services"
	"prepcoach/domain/core/entities"
)

// VisibilityQueryHandler serves visibility settings and the audit log
type VisibilityQueryHandler struct {
	repo     ports.VisibilityRepository
	audit    ports.AuditLogRepository
	resolver *services.VisibilityResolver
}

// NewVisibilityQueryHandler creates a new visibility query handler
func NewVisibilityQueryHandler(repo ports.VisibilityRepository, audit ports.AuditLogRepository, resolver *services.VisibilityResolver) *VisibilityQueryHandler {
	return &VisibilityQueryHandler{repo: repo, audit: audit, resolver: resolver}
}

// HandleGetVisibility returns the stored setting, or the public default when none exists
func (h *VisibilityQueryHandler) HandleGetVisibility(ctx context.Context, q queries.GetVisibilityQuery) (entities.VisibilitySetting, error) {
	setting, err := h.repo.Get(ctx, q.EntityType, q.EntityID)
	if err != nil {
		return entities.VisibilitySetting{}, err
	}
	if setting == nil {
		return entities.VisibilitySetting{EntityType: q.EntityType, EntityID: q.EntityID, IsPublic: true}, nil
	}
	return *setting, nil
}

// HandleListVisibility lists settings of one entity type
func (h *VisibilityQueryHandler) HandleListVisibility(ctx context.Context, q queries.ListVisibilityQuery) ([]entities.VisibilitySetting, error) {
	return h.repo.List(ctx, q.EntityType)
}

// HandleEffectiveVisibility resolves visibility through the parent chain
func (h *VisibilityQueryHandler) HandleEffectiveVisibility(ctx context.Context, q queries.EffectiveVisibilityQuery) (services.EffectiveVisibility, error) {
	return h.resolver.Effective(ctx, q.EntityType, q.EntityID)
}

// HandleListAuditLog lists the audit trail of an entity
func (h *VisibilityQueryHandler) HandleListAuditLog(ctx context.Context, q queries.ListAuditLogQuery) ([]entities.AuditLogEntry, error) {
	return h.audit.ListByEntity(ctx, q.EntityType, q.EntityID)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// VisibilityRepository keeps visibility settings and their audit log in memory
type VisibilityRepository struct {
	mu       sync.RWMutex
	settings map[string]entities.VisibilitySetting
	audit    *AuditLogRepository
}

// NewVisibilityRepository creates an empty repository with an empty audit log
func NewVisibilityRepository() *VisibilityRepository {
	return &VisibilityRepository{
		settings: make(map[string]entities.VisibilitySetting),
		audit:    &AuditLogRepository{},
	}
}

// AuditLog returns the audit log written by SaveAudited
func (r *VisibilityRepository) AuditLog() *AuditLogRepository {
	return r.audit
}

// Get returns the setting of an entity, or nil when none was ever written
func (r *VisibilityRepository) Get(ctx context.Context, entityType valueobjects.EntityType, entityID string) (*entities.VisibilitySetting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[entities.VisibilityKey(entityType, entityID)]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// List returns all settings of one entity type ordered by entity id
func (r *VisibilityRepository) List(ctx context.Context, entityType valueobjects.EntityType) ([]entities.VisibilitySetting, error) {
	r.mu.RLock()
	out := []entities.VisibilitySetting{}
	for _, s := range r.settings {
		if s.EntityType == entityType {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// SaveBatch upserts all settings
func (r *VisibilityRepository) SaveBatch(ctx context.Context, settings []entities.VisibilitySetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range settings {
		r.settings[entities.VisibilityKey(s.EntityType, s.EntityID)] = s
	}
	return nil
}

// SaveAudited upserts settings and appends their entries while holding both locks
func (r *VisibilityRepository) SaveAudited(ctx context.Context, settings []entities.VisibilitySetting, entries []entities.AuditLogEntry) error {
	if len(settings) != len(entries) {
		return pkgerrors.NewInternalError(fmt.Sprintf("%d settings with %d audit entries", len(settings), len(entries)))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit.mu.Lock()
	defer r.audit.mu.Unlock()

	for _, s := range settings {
		r.settings[entities.VisibilityKey(s.EntityType, s.EntityID)] = s
	}
	r.audit.entries = append(r.audit.entries, entries...)
	return nil
}

// AuditLogRepository keeps the audit trail in memory. Entries are written
// through VisibilityRepository.SaveAudited.
type AuditLogRepository struct {
	mu      sync.RWMutex
	entries []entities.AuditLogEntry
}

// ListByEntity returns the entries of one entity, newest first
func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType valueobjects.EntityType, entityID string) ([]entities.AuditLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entities.AuditLogEntry{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ConnectionRepository tracks WebSocket connections in memory
type ConnectionRepository struct {
	mu    sync.RWMutex
	conns map[string]map[string]bool
}

// NewConnectionRepository creates an empty registry
func NewConnectionRepository() *ConnectionRepository {
	return &ConnectionRepository{conns: make(map[string]map[string]bool)}
}

// Save registers a connection for a user
func (r *ConnectionRepository) Save(ctx context.Context, userID, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conns[userID] == nil {
		r.conns[userID] = make(map[string]bool)
	}
	r.conns[userID][connectionID] = true
	return nil
}

// ListByUser returns a user's connection ids in sorted order
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.conns[userID]))
	for id := range r.conns[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Delete forgets a connection
func (r *ConnectionRepository) Delete(ctx context.Context, userID, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns[userID], connectionID)
	return nil
}

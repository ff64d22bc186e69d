package entities

import (
	"time"

	"prepcoach/domain/core/valueobjects"
)

// VisibilitySetting is the admin-controlled public flag of one entity
type VisibilitySetting struct {
	EntityType valueobjects.EntityType `json:"entity_type" dynamodbav:"entity_type"`
	EntityID   string                  `json:"entity_id" dynamodbav:"entity_id"`
	IsPublic   bool                    `json:"is_public" dynamodbav:"is_public"`
	ParentType valueobjects.EntityType `json:"parent_type,omitempty" dynamodbav:"parent_type,omitempty"`
	ParentID   string                  `json:"parent_id,omitempty" dynamodbav:"parent_id,omitempty"`
	UpdatedBy  string                  `json:"updated_by" dynamodbav:"updated_by"`
	UpdatedAt  time.Time               `json:"updated_at" dynamodbav:"updated_at"`
}

// HasParent reports whether the setting references a parent entity
func (s VisibilitySetting) HasParent() bool {
	return s.ParentType != "" && s.ParentID != ""
}

// VisibilityKey identifies the entity a setting applies to
func VisibilityKey(entityType valueobjects.EntityType, entityID string) string {
	return string(entityType) + "#" + entityID
}

// AuditLogEntry records one visibility change made by an admin
type AuditLogEntry struct {
	ID         string                  `json:"id" dynamodbav:"audit_id"`
	ActorID    string                  `json:"actor_id" dynamodbav:"actor_id"`
	Action     string                  `json:"action" dynamodbav:"action"`
	EntityType valueobjects.EntityType `json:"entity_type" dynamodbav:"entity_type"`
	EntityID   string                  `json:"entity_id" dynamodbav:"entity_id"`
	Before     *bool                   `json:"before,omitempty" dynamodbav:"before,omitempty"`
	After      bool                    `json:"after" dynamodbav:"after"`
	Timestamp  time.Time               `json:"timestamp" dynamodbav:"timestamp"`
}

// AuditActionSetVisibility is the action recorded for visibility writes
const AuditActionSetVisibility = "visibility.set"

// NewVisibilityAuditEntry builds the audit record for a visibility write
func NewVisibilityAuditEntry(actorID string, before *VisibilitySetting, after VisibilitySetting) AuditLogEntry {
	entry := AuditLogEntry{
		ID:         valueobjects.NewID(),
		ActorID:    actorID,
		Action:     AuditActionSetVisibility,
		EntityType: after.EntityType,
		EntityID:   after.EntityID,
		After:      after.IsPublic,
		Timestamp:  after.UpdatedAt,
	}
	if before != nil {
		prev := before.IsPublic
		entry.Before = &prev
	}
	return entry
}

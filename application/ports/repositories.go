package ports

import (
	"context"

	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
)

// JourneyRepository persists journey catalogues.
// Lookups of missing journeys return a NOT_FOUND AppError.
type JourneyRepository interface {
	Save(ctx context.Context, journey *aggregates.Journey) error
	GetByID(ctx context.Context, id valueobjects.JourneyID) (*aggregates.Journey, error)
	List(ctx context.Context) ([]*aggregates.Journey, error)
	// FindParents returns journeys with at least one node whose sub-journey is id
	FindParents(ctx context.Context, id valueobjects.JourneyID) ([]*aggregates.Journey, error)
}

// ProgressRepository persists per-user journey progress.
// Save is an optimistic write: a stale version yields a CONFLICT AppError.
type ProgressRepository interface {
	Save(ctx context.Context, progress *aggregates.UserJourneyProgress) error
	Get(ctx context.Context, userID string, journeyID valueobjects.JourneyID) (*aggregates.UserJourneyProgress, error)
	ListByUser(ctx context.Context, userID string) ([]*aggregates.UserJourneyProgress, error)
}

// UserRepository persists accounts
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByCustomerID(ctx context.Context, customerID string) (*entities.User, error)
}

// InterviewRepository persists interview preparations, always scoped to their owner
type InterviewRepository interface {
	Save(ctx context.Context, interview *entities.Interview) error
	Get(ctx context.Context, userID, id string) (*entities.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]*entities.Interview, error)
}

// VisibilityRepository persists admin visibility settings
type VisibilityRepository interface {
	Get(ctx context.Context, entityType valueobjects.EntityType, entityID string) (*entities.VisibilitySetting, error)
	List(ctx context.Context, entityType valueobjects.EntityType) ([]entities.VisibilitySetting, error)
	SaveBatch(ctx context.Context, settings []entities.VisibilitySetting) error
	// SaveAudited stores settings together with their audit entries, entries[i]
	// recording settings[i]. A setting is never stored without its entry.
	SaveAudited(ctx context.Context, settings []entities.VisibilitySetting, entries []entities.AuditLogEntry) error
}

// AuditLogRepository persists the admin audit trail
type AuditLogRepository interface {
	ListByEntity(ctx context.Context, entityType valueobjects.EntityType, entityID string) ([]entities.AuditLogEntry, error)
}

// ConnectionRepository tracks open WebSocket connections per user
type ConnectionRepository interface {
	Save(ctx context.Context, userID, connectionID string) error
	ListByUser(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, userID, connectionID string) error
}

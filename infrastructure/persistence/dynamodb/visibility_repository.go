package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

type visibilityItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityKind string `dynamodbav:"EntityType"`
	entities.VisibilitySetting
}

// VisibilityRepository stores one item per entity under a partition per entity type
type VisibilityRepository struct {
	table *Table
}

// NewVisibilityRepository creates a visibility repository on table
func NewVisibilityRepository(table *Table) *VisibilityRepository {
	return &VisibilityRepository{table: table}
}

// Get returns the setting of an entity, or nil when none was ever written
func (r *VisibilityRepository) Get(ctx context.Context, entityType valueobjects.EntityType, entityID string) (*entities.VisibilitySetting, error) {
	av, err := r.table.getItem(ctx, visibilityPK(string(entityType)), entityID, "visibility")
	if err != nil || av == nil {
		return nil, err
	}
	var item visibilityItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal visibility").WithCause(err)
	}
	return &item.VisibilitySetting, nil
}

// List returns all settings of one entity type ordered by entity id
func (r *VisibilityRepository) List(ctx context.Context, entityType valueobjects.EntityType) ([]entities.VisibilitySetting, error) {
	items, err := r.table.query(ctx, expression.Key("PK").Equal(expression.Value(visibilityPK(string(entityType)))), false, false, "visibility")
	if err != nil {
		return nil, err
	}

	out := make([]entities.VisibilitySetting, 0, len(items))
	for _, av := range items {
		var item visibilityItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, pkgerrors.NewInternalError("failed to unmarshal visibility").WithCause(err)
		}
		out = append(out, item.VisibilitySetting)
	}
	return out, nil
}

// SaveBatch upserts all settings with batched writes and no audit entries
func (r *VisibilityRepository) SaveBatch(ctx context.Context, settings []entities.VisibilitySetting) error {
	// BatchWriteItem rejects two puts of the same key in one request, last write wins
	index := make(map[string]int, len(settings))
	var deduped []entities.VisibilitySetting
	for _, s := range settings {
		k := entities.VisibilityKey(s.EntityType, s.EntityID)
		if i, ok := index[k]; ok {
			deduped[i] = s
			continue
		}
		index[k] = len(deduped)
		deduped = append(deduped, s)
	}

	items := make([]map[string]types.AttributeValue, 0, len(deduped))
	for _, s := range deduped {
		av, err := marshalVisibility(s)
		if err != nil {
			return err
		}
		items = append(items, av)
	}
	return r.table.batchPut(ctx, items, "visibility")
}

func marshalVisibility(s entities.VisibilitySetting) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(visibilityItem{
		PK:                visibilityPK(string(s.EntityType)),
		SK:                s.EntityID,
		EntityKind:        "VISIBILITY",
		VisibilitySetting: s,
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal visibility").WithCause(err)
	}
	return av, nil
}

type auditItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityKind string `dynamodbav:"EntityType"`
	entities.AuditLogEntry
}

func marshalAudit(e entities.AuditLogEntry) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(auditItem{
		PK:            auditPK(string(e.EntityType), e.EntityID),
		SK:            e.Timestamp.UTC().Format(time.RFC3339Nano) + "#" + e.ID,
		EntityKind:    "AUDIT",
		AuditLogEntry: e,
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to marshal audit entry").WithCause(err)
	}
	return av, nil
}

// maxTransactItems is the TransactWriteItems limit per request
const maxTransactItems = 100

// SaveAudited writes each setting in the same transaction as its audit entry.
// Updates are packed into transactions of up to 100 items, so a failure can
// leave earlier transactions committed but never a setting without its entry.
func (r *VisibilityRepository) SaveAudited(ctx context.Context, settings []entities.VisibilitySetting, entries []entities.AuditLogEntry) error {
	if len(settings) != len(entries) {
		return pkgerrors.NewInternalError(fmt.Sprintf("%d settings with %d audit entries", len(settings), len(entries)))
	}

	// a transaction may touch each item once, so only the last write of a key puts the setting
	last := make(map[string]int, len(settings))
	for i, s := range settings {
		last[entities.VisibilityKey(s.EntityType, s.EntityID)] = i
	}

	var (
		chunks [][]types.TransactWriteItem
		chunk  []types.TransactWriteItem
	)
	for i, s := range settings {
		var group []types.TransactWriteItem
		if last[entities.VisibilityKey(s.EntityType, s.EntityID)] == i {
			av, err := marshalVisibility(s)
			if err != nil {
				return err
			}
			group = append(group, r.transactPut(av))
		}
		av, err := marshalAudit(entries[i])
		if err != nil {
			return err
		}
		group = append(group, r.transactPut(av))

		if len(chunk)+len(group) > maxTransactItems {
			chunks = append(chunks, chunk)
			chunk = nil
		}
		chunk = append(chunk, group...)
	}
	if len(chunk) > 0 {
		chunks = append(chunks, chunk)
	}

	for n, items := range chunks {
		if _, err := r.table.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return pkgerrors.NewDatabaseError(fmt.Sprintf("transact write visibility (%d of %d)", n+1, len(chunks)), err)
		}
	}
	return nil
}

func (r *VisibilityRepository) transactPut(item map[string]types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName: aws.String(r.table.Name),
		Item:      item,
	}}
}

// AuditLogRepository reads audit entries sorted by timestamp within the entity
// partition. Entries are written by VisibilityRepository.SaveAudited.
type AuditLogRepository struct {
	table *Table
}

// NewAuditLogRepository creates an audit log repository on table
func NewAuditLogRepository(table *Table) *AuditLogRepository {
	return &AuditLogRepository{table: table}
}

// ListByEntity returns the entries of one entity, newest first
func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType valueobjects.EntityType, entityID string) ([]entities.AuditLogEntry, error) {
	items, err := r.table.query(ctx, expression.Key("PK").Equal(expression.Value(auditPK(string(entityType), entityID))), false, true, "audit log")
	if err != nil {
		return nil, err
	}

	out := make([]entities.AuditLogEntry, 0, len(items))
	for _, av := range items {
		var item auditItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, pkgerrors.NewInternalError("failed to unmarshal audit entry").WithCause(err)
		}
		out = append(out, item.AuditLogEntry)
	}
	return out, nil
}

type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"user_id"`
	ConnectionID string `dynamodbav:"connection_id"`
	ConnectedAt  string `dynamodbav:"connected_at"`
	TTL          int64  `dynamodbav:"TTL"`
}

// connectionTTL bounds how long a connection item survives a missed disconnect
const connectionTTL = 2 * time.Hour

// ConnectionRepository tracks WebSocket connections under the user's partition
type ConnectionRepository struct {
	table *Table
	now   func() time.Time
}

// NewConnectionRepository creates a connection repository on table
func NewConnectionRepository(table *Table) *ConnectionRepository {
	return &ConnectionRepository{table: table, now: time.Now}
}

// Save registers a connection for a user
func (r *ConnectionRepository) Save(ctx context.Context, userID, connectionID string) error {
	now := r.now().UTC()
	av, err := attributevalue.MarshalMap(connectionItem{
		PK:           userPK(userID),
		SK:           connectionSK(connectionID),
		EntityType:   "CONNECTION",
		UserID:       userID,
		ConnectionID: connectionID,
		ConnectedAt:  now.Format(time.RFC3339),
		TTL:          now.Add(connectionTTL).Unix(),
	})
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal connection").WithCause(err)
	}

	if _, err := r.table.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table.Name),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("put connection", err)
	}
	return nil
}

// ListByUser returns a user's connection ids
func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	items, err := r.table.query(ctx, expression.KeyAnd(
		expression.Key("PK").Equal(expression.Value(userPK(userID))),
		expression.KeyBeginsWith(expression.Key("SK"), connectionSK("")),
	), false, false, "connections")
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, av := range items {
		var item connectionItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, pkgerrors.NewInternalError("failed to unmarshal connection").WithCause(err)
		}
		out = append(out, item.ConnectionID)
	}
	return out, nil
}

// Delete forgets a connection
func (r *ConnectionRepository) Delete(ctx context.Context, userID, connectionID string) error {
	if _, err := r.table.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table.Name),
		Key:       key(userPK(userID), connectionSK(connectionID)),
	}); err != nil {
		return pkgerrors.NewDatabaseError("delete connection", err)
	}
	return nil
}

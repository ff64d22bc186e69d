package dynamodb

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

const (
	journeyEntity  = "JOURNEY"
	progressEntity = "PROGRESS"
	parentRefSK    = "PARENT#"
)

// journeyItem is the DynamoDB item for a journey
type journeyItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	aggregates.JourneySnapshot
}

// parentRefItem records that a parent journey has a milestone pointing at a sub-journey
type parentRefItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ParentID   string `dynamodbav:"parent_id"`
}

// JourneyRepository stores journeys as single snapshot items
type JourneyRepository struct {
	table *Table
	cfg   *config.DomainConfig
}

// NewJourneyRepository creates a journey repository on table
func NewJourneyRepository(table *Table, cfg *config.DomainConfig) *JourneyRepository {
	return &JourneyRepository{table: table, cfg: cfg}
}

// Save writes the journey snapshot guarded by its version, then records parent references
func (r *JourneyRepository) Save(ctx context.Context, journey *aggregates.Journey) error {
	snap := journey.Snapshot()
	snap.Version = journey.Version() + 1

	item := journeyItem{
		PK:              journeyPK(snap.ID.String()),
		SK:              "METADATA",
		GSI1PK:          journeyEntity,
		GSI1SK:          strings.ToLower(snap.Title) + "#" + snap.ID.String(),
		EntityType:      journeyEntity,
		JourneySnapshot: snap,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal journey").WithCause(err)
	}

	if err := r.table.putVersioned(ctx, av, journey.Version(), "journey"); err != nil {
		return err
	}
	journey.CommitVersion(snap.Version)

	var refs []map[string]types.AttributeValue
	for _, childID := range journey.SubJourneyIDs() {
		ref, err := attributevalue.MarshalMap(parentRefItem{
			PK:         subJourneyPK(childID.String()),
			SK:         parentRefSK + snap.ID.String(),
			EntityType: "PARENT_REF",
			ParentID:   snap.ID.String(),
		})
		if err != nil {
			return pkgerrors.NewInternalError("failed to marshal parent reference").WithCause(err)
		}
		refs = append(refs, ref)
	}
	if err := r.table.batchPut(ctx, refs, "parent reference"); err != nil {
		return err
	}

	r.table.Logger.Debug("Saved journey",
		zap.String("journeyID", snap.ID.String()),
		zap.Int("version", snap.Version),
		zap.Int("nodeCount", len(snap.Nodes)),
		zap.Int("edgeCount", len(snap.Edges)),
	)
	return nil
}

// GetByID returns a journey or NOT_FOUND
func (r *JourneyRepository) GetByID(ctx context.Context, id valueobjects.JourneyID) (*aggregates.Journey, error) {
	av, err := r.table.getItem(ctx, journeyPK(id.String()), "METADATA", "journey")
	if err != nil {
		return nil, err
	}
	if av == nil {
		return nil, pkgerrors.NewNotFoundError("journey")
	}
	return r.decode(av)
}

// List returns every journey ordered by title
func (r *JourneyRepository) List(ctx context.Context) ([]*aggregates.Journey, error) {
	items, err := r.table.query(ctx, expression.Key("GSI1PK").Equal(expression.Value(journeyEntity)), true, false, "journeys")
	if err != nil {
		return nil, err
	}

	out := make([]*aggregates.Journey, 0, len(items))
	for _, av := range items {
		j, err := r.decode(av)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title() == out[j].Title() {
			return out[i].ID() < out[j].ID()
		}
		return out[i].Title() < out[j].Title()
	})
	return out, nil
}

// FindParents follows the parent references of a sub-journey. References whose
// parent no longer points at the sub-journey are skipped.
func (r *JourneyRepository) FindParents(ctx context.Context, id valueobjects.JourneyID) ([]*aggregates.Journey, error) {
	items, err := r.table.query(ctx, expression.KeyAnd(
		expression.Key("PK").Equal(expression.Value(subJourneyPK(id.String()))),
		expression.KeyBeginsWith(expression.Key("SK"), parentRefSK),
	), false, false, "parent references")
	if err != nil {
		return nil, err
	}

	var parents []*aggregates.Journey
	for _, av := range items {
		var ref parentRefItem
		if err := attributevalue.UnmarshalMap(av, &ref); err != nil {
			return nil, pkgerrors.NewInternalError("failed to unmarshal parent reference").WithCause(err)
		}
		parent, err := r.GetByID(ctx, valueobjects.JourneyID(ref.ParentID))
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if len(parent.ParentMilestones(id)) > 0 {
			parents = append(parents, parent)
		}
	}
	return parents, nil
}

func (r *JourneyRepository) decode(av map[string]types.AttributeValue) (*aggregates.Journey, error) {
	var item journeyItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal journey").WithCause(err)
	}
	return aggregates.ReconstructJourney(item.JourneySnapshot, r.cfg)
}

// progressItem is the DynamoDB item for one user's journey progress
type progressItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	aggregates.ProgressSnapshot
}

// ProgressRepository stores progress under the owning user's partition
type ProgressRepository struct {
	table *Table
}

// NewProgressRepository creates a progress repository on table
func NewProgressRepository(table *Table) *ProgressRepository {
	return &ProgressRepository{table: table}
}

// Save writes progress guarded by its version
func (r *ProgressRepository) Save(ctx context.Context, progress *aggregates.UserJourneyProgress) error {
	snap := progress.Snapshot()
	snap.Version = progress.Version() + 1

	av, err := attributevalue.MarshalMap(progressItem{
		PK:               userPK(snap.UserID),
		SK:               progressSK(snap.JourneyID.String()),
		EntityType:       progressEntity,
		ProgressSnapshot: snap,
	})
	if err != nil {
		return pkgerrors.NewInternalError("failed to marshal progress").WithCause(err)
	}

	if err := r.table.putVersioned(ctx, av, progress.Version(), "progress"); err != nil {
		return err
	}
	progress.CommitVersion(snap.Version)
	return nil
}

// Get returns a user's progress on a journey or NOT_FOUND
func (r *ProgressRepository) Get(ctx context.Context, userID string, journeyID valueobjects.JourneyID) (*aggregates.UserJourneyProgress, error) {
	av, err := r.table.getItem(ctx, userPK(userID), progressSK(journeyID.String()), "progress")
	if err != nil {
		return nil, err
	}
	if av == nil {
		return nil, pkgerrors.NewNotFoundError("progress")
	}
	return decodeProgress(av)
}

// ListByUser returns all of a user's progress records, most recently updated first
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]*aggregates.UserJourneyProgress, error) {
	items, err := r.table.query(ctx, expression.KeyAnd(
		expression.Key("PK").Equal(expression.Value(userPK(userID))),
		expression.KeyBeginsWith(expression.Key("SK"), progressSK("")),
	), false, false, "progress")
	if err != nil {
		return nil, err
	}

	out := make([]*aggregates.UserJourneyProgress, 0, len(items))
	for _, av := range items {
		p, err := decodeProgress(av)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Snapshot().UpdatedAt.After(out[j].Snapshot().UpdatedAt)
	})
	return out, nil
}

func decodeProgress(av map[string]types.AttributeValue) (*aggregates.UserJourneyProgress, error) {
	var item progressItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, pkgerrors.NewInternalError("failed to unmarshal progress").WithCause(err)
	}
	return aggregates.ReconstructProgress(item.ProgressSnapshot)
}

package services

import (
	"context"

	"prepcoach/application/ports"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// VisibilityResolver evaluates effective visibility through parent references
type VisibilityResolver struct {
	repo ports.VisibilityRepository
	cfg  *config.DomainConfig
}

// NewVisibilityResolver creates a resolver
func NewVisibilityResolver(repo ports.VisibilityRepository, cfg *config.DomainConfig) *VisibilityResolver {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &VisibilityResolver{repo: repo, cfg: cfg}
}

// EffectiveVisibility is an entity's own flag plus the outcome of its ancestor chain
type EffectiveVisibility struct {
	EntityType valueobjects.EntityType `json:"entity_type"`
	EntityID   string                  `json:"entity_id"`
	IsPublic   bool                    `json:"is_public"`
	HiddenBy   string                  `json:"hidden_by,omitempty"`
	Chain      []string                `json:"chain"`
}

// Effective reports whether an entity and all of its ancestors are public.
// Entities without a setting are public. The walk stops at the configured
// depth or when a parent reference loops back.
func (r *VisibilityResolver) Effective(ctx context.Context, entityType valueobjects.EntityType, entityID string) (EffectiveVisibility, error) {
	result := EffectiveVisibility{EntityType: entityType, EntityID: entityID, IsPublic: true}
	seen := make(map[string]bool)

	curType, curID := entityType, entityID
	for depth := 0; depth < r.cfg.MaxVisibilityChainDepth; depth++ {
		key := entities.VisibilityKey(curType, curID)
		if seen[key] {
			break
		}
		seen[key] = true
		result.Chain = append(result.Chain, key)

		setting, err := r.repo.Get(ctx, curType, curID)
		if err != nil {
			return result, err
		}
		if setting == nil {
			break
		}
		if !setting.IsPublic {
			result.IsPublic = false
			result.HiddenBy = key
			break
		}
		if !setting.HasParent() {
			break
		}
		curType, curID = setting.ParentType, setting.ParentID
	}
	return result, nil
}

// IsPublic is Effective reduced to its flag
func (r *VisibilityResolver) IsPublic(ctx context.Context, entityType valueobjects.EntityType, entityID string) (bool, error) {
	ev, err := r.Effective(ctx, entityType, entityID)
	if err != nil {
		return false, err
	}
	return ev.IsPublic, nil
}

// HiddenNodes returns the milestone and objective nodes of journey whose
// effective visibility is private
func (r *VisibilityResolver) HiddenNodes(ctx context.Context, journey *aggregates.Journey) (map[valueobjects.NodeID]bool, error) {
	hidden := make(map[valueobjects.NodeID]bool)
	for _, n := range journey.Nodes() {
		entityType, ok := nodeEntityType(n.Type)
		if !ok {
			continue
		}
		public, err := r.IsPublic(ctx, entityType, n.ID.String())
		if err != nil {
			return nil, err
		}
		if !public {
			hidden[n.ID] = true
		}
	}
	return hidden, nil
}

// FilterJourney hides the milestone and objective nodes whose effective
// visibility is private, together with the edges touching them.
func (r *VisibilityResolver) FilterJourney(ctx context.Context, journey *aggregates.Journey) (aggregates.JourneySnapshot, error) {
	snap := journey.Snapshot()
	hidden, err := r.HiddenNodes(ctx, journey)
	if err != nil {
		return snap, err
	}
	if len(hidden) == 0 {
		return snap, nil
	}

	nodes := make([]aggregates.JourneyNode, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if !hidden[n.ID] {
			nodes = append(nodes, n)
		}
	}
	edges := make([]aggregates.Edge, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		if hidden[e.Source] || hidden[e.Target] {
			continue
		}
		edges = append(edges, e)
	}
	snap.Nodes = nodes
	snap.Edges = edges
	return snap, nil
}

// CheckAccess is the non-admin gate for acting on a journey. A private
// journey, or a private node when nodeID is set, is reported as NOT_FOUND.
// The returned set lists the journey's hidden nodes.
func (r *VisibilityResolver) CheckAccess(ctx context.Context, journey *aggregates.Journey, nodeID valueobjects.NodeID) (map[valueobjects.NodeID]bool, error) {
	public, err := r.IsPublic(ctx, valueobjects.EntityTypeJourney, journey.ID().String())
	if err != nil {
		return nil, err
	}
	if !public {
		return nil, pkgerrors.NewNotFoundError("journey")
	}

	hidden, err := r.HiddenNodes(ctx, journey)
	if err != nil {
		return nil, err
	}
	if nodeID != "" && hidden[nodeID] {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return hidden, nil
}

// FilterProgress drops hidden nodes from a progress snapshot. Counters and
// the overall percentage still describe the whole journey.
func FilterProgress(snap aggregates.ProgressSnapshot, hidden map[valueobjects.NodeID]bool) aggregates.ProgressSnapshot {
	if len(hidden) == 0 {
		return snap
	}
	nodes := make(map[valueobjects.NodeID]aggregates.NodeProgress, len(snap.Nodes))
	for id, n := range snap.Nodes {
		if !hidden[id] {
			nodes[id] = n
		}
	}
	snap.Nodes = nodes
	return snap
}

func nodeEntityType(t valueobjects.NodeType) (valueobjects.EntityType, bool) {
	switch t {
	case valueobjects.NodeTypeMilestone:
		return valueobjects.EntityTypeMilestone, true
	case valueobjects.NodeTypeObjective:
		return valueobjects.EntityTypeObjective, true
	}
	return "", false
}

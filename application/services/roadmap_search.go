package services

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"

	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// SearchHit is one node matched by the command palette
type SearchHit struct {
	JourneyID    valueobjects.JourneyID `json:"journey_id"`
	JourneyTitle string                 `json:"journey_title"`
	NodeID       valueobjects.NodeID    `json:"node_id"`
	Title        string                 `json:"title"`
	Type         valueobjects.NodeType  `json:"type"`
	Score        int                    `json:"score"`
}

// searchEntry is a node flattened with its journey for matching
type searchEntry struct {
	journey aggregates.JourneySnapshot
	node    aggregates.JourneyNode
}

type searchSource []searchEntry

func (s searchSource) String(i int) string { return s[i].node.Title }
func (s searchSource) Len() int            { return len(s) }

// RoadmapSearch fuzzy-matches node titles across the journeys a caller may see
type RoadmapSearch struct {
	journeys   JourneyReader
	visibility *VisibilityResolver
	cfg        *config.DomainConfig
}

// NewRoadmapSearch creates the command palette search
func NewRoadmapSearch(journeys JourneyReader, visibility *VisibilityResolver, cfg *config.DomainConfig) *RoadmapSearch {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &RoadmapSearch{journeys: journeys, visibility: visibility, cfg: cfg}
}

// Search ranks node titles by match score. An empty journeyID searches every
// journey; non-admins only see public journeys and nodes.
func (s *RoadmapSearch) Search(ctx context.Context, query string, journeyID valueobjects.JourneyID, limit int, admin bool) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, pkgerrors.NewValidationError("search query is required")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultSearchLimit
	}
	if limit > s.cfg.MaxSearchLimit {
		limit = s.cfg.MaxSearchLimit
	}

	var journeys []*aggregates.Journey
	if journeyID.IsZero() {
		all, err := s.journeys.List(ctx)
		if err != nil {
			return nil, err
		}
		journeys = all
	} else {
		j, err := s.journeys.Get(ctx, journeyID)
		if err != nil {
			return nil, err
		}
		journeys = []*aggregates.Journey{j}
	}

	var source searchSource
	for _, j := range journeys {
		snap := j.Snapshot()
		if !admin {
			public, err := s.visibility.IsPublic(ctx, valueobjects.EntityTypeJourney, j.ID().String())
			if err != nil {
				return nil, err
			}
			if !public {
				continue
			}
			if snap, err = s.visibility.FilterJourney(ctx, j); err != nil {
				return nil, err
			}
		}
		for _, n := range snap.Nodes {
			source = append(source, searchEntry{journey: snap, node: n})
		}
	}

	matches := fuzzy.FindFrom(query, source)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		e := source[m.Index]
		hits = append(hits, SearchHit{
			JourneyID:    e.journey.ID,
			JourneyTitle: e.journey.Title,
			NodeID:       e.node.ID,
			Title:        e.node.Title,
			Type:         e.node.Type,
			Score:        m.Score,
		})
	}
	return hits, nil
}

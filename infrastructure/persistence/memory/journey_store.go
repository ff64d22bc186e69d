// Package memory holds process-local repositories used for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// JourneyRepository keeps journey snapshots in memory
type JourneyRepository struct {
	mu       sync.RWMutex
	journeys map[valueobjects.JourneyID]aggregates.JourneySnapshot
	cfg      *config.DomainConfig
}

// NewJourneyRepository creates an empty repository
func NewJourneyRepository(cfg *config.DomainConfig) *JourneyRepository {
	return &JourneyRepository{
		journeys: make(map[valueobjects.JourneyID]aggregates.JourneySnapshot),
		cfg:      cfg,
	}
}

// Save stores a journey with an optimistic version check
func (r *JourneyRepository) Save(ctx context.Context, journey *aggregates.Journey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.journeys[journey.ID()]
	if err := checkVersion(exists, stored.Version, journey.Version(), "journey"); err != nil {
		return err
	}

	snap := journey.Snapshot()
	snap.Version = journey.Version() + 1
	r.journeys[journey.ID()] = snap
	journey.CommitVersion(snap.Version)
	return nil
}

// GetByID returns a journey or NOT_FOUND
func (r *JourneyRepository) GetByID(ctx context.Context, id valueobjects.JourneyID) (*aggregates.Journey, error) {
	r.mu.RLock()
	snap, ok := r.journeys[id]
	r.mu.RUnlock()

	if !ok {
		return nil, pkgerrors.NewNotFoundError("journey")
	}
	return aggregates.ReconstructJourney(snap, r.cfg)
}

// List returns every journey ordered by title
func (r *JourneyRepository) List(ctx context.Context) ([]*aggregates.Journey, error) {
	r.mu.RLock()
	snaps := make([]aggregates.JourneySnapshot, 0, len(r.journeys))
	for _, s := range r.journeys {
		snaps = append(snaps, s)
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].Title == snaps[j].Title {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].Title < snaps[j].Title
	})

	out := make([]*aggregates.Journey, 0, len(snaps))
	for _, s := range snaps {
		j, err := aggregates.ReconstructJourney(s, r.cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// FindParents returns journeys with a node whose sub-journey is id
func (r *JourneyRepository) FindParents(ctx context.Context, id valueobjects.JourneyID) ([]*aggregates.Journey, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var parents []*aggregates.Journey
	for _, j := range all {
		if len(j.ParentMilestones(id)) > 0 {
			parents = append(parents, j)
		}
	}
	return parents, nil
}

// ProgressRepository keeps progress snapshots in memory
type ProgressRepository struct {
	mu      sync.RWMutex
	records map[string]aggregates.ProgressSnapshot
}

// NewProgressRepository creates an empty repository
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{records: make(map[string]aggregates.ProgressSnapshot)}
}

// Save stores progress with an optimistic version check
func (r *ProgressRepository) Save(ctx context.Context, progress *aggregates.UserJourneyProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.records[progress.ID()]
	if err := checkVersion(exists, stored.Version, progress.Version(), "progress"); err != nil {
		return err
	}

	snap := progress.Snapshot()
	snap.Version = progress.Version() + 1
	r.records[progress.ID()] = snap
	progress.CommitVersion(snap.Version)
	return nil
}

// Get returns a user's progress on a journey or NOT_FOUND
func (r *ProgressRepository) Get(ctx context.Context, userID string, journeyID valueobjects.JourneyID) (*aggregates.UserJourneyProgress, error) {
	r.mu.RLock()
	snap, ok := r.records[aggregates.ProgressID(userID, journeyID)]
	r.mu.RUnlock()

	if !ok {
		return nil, pkgerrors.NewNotFoundError("progress")
	}
	return aggregates.ReconstructProgress(snap)
}

// ListByUser returns all of a user's progress records, most recently updated first
func (r *ProgressRepository) ListByUser(ctx context.Context, userID string) ([]*aggregates.UserJourneyProgress, error) {
	r.mu.RLock()
	var snaps []aggregates.ProgressSnapshot
	for _, s := range r.records {
		if s.UserID == userID {
			snaps = append(snaps, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].UpdatedAt.After(snaps[j].UpdatedAt) })

	out := make([]*aggregates.UserJourneyProgress, 0, len(snaps))
	for _, s := range snaps {
		p, err := aggregates.ReconstructProgress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func checkVersion(exists bool, stored, expected int, resource string) error {
	switch {
	case expected == 0 && exists:
		return pkgerrors.NewConflictError(resource + " already exists")
	case expected > 0 && (!exists || stored != expected):
		return pkgerrors.NewConflictError(resource + " was modified concurrently")
	}
	return nil
}

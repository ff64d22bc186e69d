// Package seed loads journey catalogues from YAML and applies them to storage.
//
// A catalogue file looks like:
//
//	journeys:
//	  - id: go-backend
//	    title: Go Backend Engineer
//	    kind: roadmap
//	    public: true
//	    nodes:
//	      - {id: basics, title: Language basics, type: milestone, sub_journey_id: go-basics}
//	      - {id: http, title: HTTP services, type: milestone}
//	    edges:
//	      - {source: basics, target: http, type: sequential}
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"prepcoach/application/ports"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// Catalogue is the root of a seed file
type Catalogue struct {
	Journeys []JourneySpec `yaml:"journeys"`
}

// JourneySpec describes one journey. Public is optional; when absent no
// visibility setting is written and the journey stays public by default.
type JourneySpec struct {
	ID          valueobjects.JourneyID   `yaml:"id"`
	Title       string                   `yaml:"title"`
	Description string                   `yaml:"description"`
	Kind        valueobjects.JourneyKind `yaml:"kind"`
	Public      *bool                    `yaml:"public"`
	Nodes       []aggregates.JourneyNode `yaml:"nodes"`
	Edges       []aggregates.Edge        `yaml:"edges"`
}

// Parse decodes a catalogue, rejecting unknown fields
func Parse(r io.Reader) (*Catalogue, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalogue
	if err := dec.Decode(&c); err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid catalogue: %v", err))
	}
	for i, j := range c.Journeys {
		if j.ID.IsZero() {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("journey %d has no id", i))
		}
		if j.Kind == "" {
			c.Journeys[i].Kind = valueobjects.JourneyKindJourney
		}
	}
	return &c, nil
}

// ParseFile reads and decodes a catalogue file
func ParseFile(path string) (*Catalogue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Result counts what Apply changed
type Result struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Settings int `json:"visibility_settings"`
}

// lockTTL bounds how long a crashed seeder blocks the next one
const lockTTL = 5 * time.Minute

// Seeder applies catalogues. Applying the same catalogue twice changes nothing.
type Seeder struct {
	journeys   ports.JourneyRepository
	visibility ports.VisibilityRepository
	locker     ports.Locker
	cfg        *config.DomainConfig
	logger     *zap.Logger
}

// NewSeeder creates a seeder
func NewSeeder(journeys ports.JourneyRepository, visibility ports.VisibilityRepository, cfg *config.DomainConfig, logger *zap.Logger) *Seeder {
	return &Seeder{journeys: journeys, visibility: visibility, cfg: cfg, logger: logger}
}

// WithLocker makes Apply hold the catalogue lock while it writes
func (s *Seeder) WithLocker(l ports.Locker) *Seeder {
	s.locker = l
	return s
}

// Apply creates missing journeys and adds missing nodes and edges to existing ones.
// Existing nodes are never modified or removed.
func (s *Seeder) Apply(ctx context.Context, c *Catalogue, actorID string) (Result, error) {
	if s.locker != nil {
		lease, err := s.locker.Acquire(ctx, "catalogue", actorID, lockTTL)
		if err != nil {
			return Result{}, err
		}
		defer func() {
			if rerr := lease.Release(context.WithoutCancel(ctx)); rerr != nil {
				s.logger.Warn("Failed to release catalogue lock", zap.Error(rerr))
			}
		}()
	}
	return s.apply(ctx, c, actorID)
}

func (s *Seeder) apply(ctx context.Context, c *Catalogue, actorID string) (Result, error) {
	var res Result
	var settings []entities.VisibilitySetting

	for _, spec := range c.Journeys {
		journey, created, err := s.load(ctx, spec)
		if err != nil {
			return res, err
		}

		added := 0
		for _, n := range spec.Nodes {
			if journey.HasNode(n.ID) {
				continue
			}
			if err := journey.AddNode(n); err != nil {
				return res, fmt.Errorf("journey %s node %s: %w", spec.ID, n.ID, err)
			}
			added++
		}

		existing := make(map[[2]valueobjects.NodeID]bool)
		for _, e := range journey.Edges() {
			existing[[2]valueobjects.NodeID{e.Source, e.Target}] = true
		}
		connected := 0
		for _, e := range spec.Edges {
			if existing[[2]valueobjects.NodeID{e.Source, e.Target}] {
				continue
			}
			edgeType := e.Type
			if edgeType == "" {
				edgeType = valueobjects.EdgeTypeSequential
			}
			if _, err := journey.ConnectNodes(e.Source, e.Target, edgeType); err != nil {
				return res, fmt.Errorf("journey %s edge %s->%s: %w", spec.ID, e.Source, e.Target, err)
			}
			connected++
		}

		if created || added > 0 || connected > 0 {
			if err := s.journeys.Save(ctx, journey); err != nil {
				return res, err
			}
			journey.MarkEventsAsCommitted()
			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}
		res.Nodes += added
		res.Edges += connected

		if spec.Public != nil {
			settings = append(settings, entities.VisibilitySetting{
				EntityType: valueobjects.EntityTypeJourney,
				EntityID:   spec.ID.String(),
				IsPublic:   *spec.Public,
				UpdatedBy:  actorID,
				UpdatedAt:  journey.Snapshot().UpdatedAt,
			})
		}
	}

	if len(settings) > 0 && s.visibility != nil {
		if err := s.visibility.SaveBatch(ctx, settings); err != nil {
			return res, err
		}
		res.Settings = len(settings)
	}

	s.logger.Info("Catalogue applied",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("nodes", res.Nodes),
		zap.Int("edges", res.Edges),
	)
	return res, nil
}

func (s *Seeder) load(ctx context.Context, spec JourneySpec) (*aggregates.Journey, bool, error) {
	journey, err := s.journeys.GetByID(ctx, spec.ID)
	if err == nil {
		return journey, false, nil
	}
	if !pkgerrors.IsNotFound(err) {
		return nil, false, err
	}
	journey, err = aggregates.NewJourneyWithID(spec.ID, spec.Title, spec.Description, spec.Kind, s.cfg)
	if err != nil {
		return nil, false, fmt.Errorf("journey %s: %w", spec.ID, err)
	}
	return journey, true, nil
}

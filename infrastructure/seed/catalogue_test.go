package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/config"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/persistence/memory"
	pkgerrors "prepcoach/pkg/errors"
)

const catalogue = `
journeys:
  - id: go-basics
    title: Go Basics
    public: false
    nodes:
      - {id: syntax, title: Syntax, type: topic}
      - {id: types, title: Types, type: topic}
    edges:
      - {source: syntax, target: types}
  - id: go-backend
    title: Go Backend Engineer
    kind: roadmap
    nodes:
      - {id: basics, title: Language basics, type: milestone, sub_journey_id: go-basics}
      - {id: http, title: HTTP services, type: milestone}
    edges:
      - {source: basics, target: http, type: sequential}
`

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	journeys := memory.NewJourneyRepository(cfg)
	visibility := memory.NewVisibilityRepository()
	seeder := NewSeeder(journeys, visibility, cfg, zap.NewNop())

	c, err := Parse(strings.NewReader(catalogue))
	require.NoError(t, err)
	assert.Equal(t, valueobjects.JourneyKindJourney, c.Journeys[0].Kind)

	res, err := seeder.Apply(ctx, c, "ops")
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Nodes: 4, Edges: 2, Settings: 1}, res)

	backend, err := journeys.GetByID(ctx, "go-backend")
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.NodeID{"basics"}, backend.Prerequisites("http"))

	parents, err := journeys.FindParents(ctx, "go-basics")
	require.NoError(t, err)
	require.Len(t, parents, 1)

	setting, err := visibility.Get(ctx, valueobjects.EntityTypeJourney, "go-basics")
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.False(t, setting.IsPublic)

	res, err = seeder.Apply(ctx, c, "ops")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created+res.Updated+res.Nodes+res.Edges)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("journeys:\n  - id: x\n    colour: red\n"))
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = Parse(strings.NewReader("journeys:\n  - title: no id\n"))
	assert.True(t, pkgerrors.IsValidation(err))
}

type fakeLocker struct {
	held     bool
	acquired int
	released int
}

type fakeLease struct{ l *fakeLocker }

func (f *fakeLocker) Acquire(ctx context.Context, resource, owner string, ttl time.Duration) (ports.Lease, error) {
	if f.held {
		return nil, pkgerrors.NewConflictError("lock " + resource + " is held by another owner")
	}
	f.held = true
	f.acquired++
	return fakeLease{f}, nil
}

func (l fakeLease) Release(ctx context.Context) error {
	l.l.held = false
	l.l.released++
	return nil
}

func TestApplyHoldsCatalogueLock(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()
	journeys := memory.NewJourneyRepository(cfg)
	locker := &fakeLocker{}
	seeder := NewSeeder(journeys, memory.NewVisibilityRepository(), cfg, zap.NewNop()).WithLocker(locker)

	c, err := Parse(strings.NewReader(catalogue))
	require.NoError(t, err)

	_, err = seeder.Apply(ctx, c, "ops")
	require.NoError(t, err)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, 1, locker.released)

	locker.held = true
	_, err = seeder.Apply(ctx, c, "ops")
	assert.True(t, pkgerrors.IsConflict(err))
	assert.Equal(t, 1, locker.released)
}

package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	"prepcoach/infrastructure/persistence/memory"
	pkgerrors "prepcoach/pkg/errors"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

type progressFixture struct {
	cfg       *config.DomainConfig
	journeys  *memory.JourneyRepository
	progress  *memory.ProgressRepository
	publisher *recordingPublisher
	service   *ProgressService
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()

	cfg := config.DefaultDomainConfig()
	f := &progressFixture{
		cfg:       cfg,
		journeys:  memory.NewJourneyRepository(cfg),
		progress:  memory.NewProgressRepository(),
		publisher: &recordingPublisher{},
	}
	logger := zap.NewNop()
	dispatcher := NewEventDispatcher(f.publisher, nil, logger)
	reader := NewCachedJourneyReader(f.journeys, nil, cfg, logger)
	f.service = NewProgressService(reader, f.journeys, f.progress, dispatcher, cfg, logger)
	return f
}

// addJourney stores a journey. Nodes are "id" or "id=subJourneyID"; edges are "a>b".
func (f *progressFixture) addJourney(t *testing.T, id string, nodes []string, sequential ...string) *aggregates.Journey {
	t.Helper()

	j, err := aggregates.NewJourneyWithID(valueobjects.JourneyID(id), id, "", valueobjects.JourneyKindJourney, f.cfg)
	require.NoError(t, err)

	for _, spec := range nodes {
		nodeID, sub, _ := strings.Cut(spec, "=")
		nodeType := valueobjects.NodeTypeTopic
		if sub != "" {
			nodeType = valueobjects.NodeTypeMilestone
		}
		require.NoError(t, j.AddNode(aggregates.JourneyNode{
			ID:           valueobjects.NodeID(nodeID),
			Title:        nodeID,
			Type:         nodeType,
			SubJourneyID: valueobjects.JourneyID(sub),
		}))
	}
	for _, e := range sequential {
		src, dst, _ := strings.Cut(e, ">")
		_, err := j.ConnectNodes(valueobjects.NodeID(src), valueobjects.NodeID(dst), valueobjects.EdgeTypeSequential)
		require.NoError(t, err)
	}
	require.NoError(t, f.journeys.Save(context.Background(), j))
	return j
}

func TestCompleteNodeRequiresStartedJourney(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "basics", []string{"a", "b"}, "a>b")

	_, err := f.service.CompleteNode(context.Background(), "user-1", "basics", "a")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, "journey not started", pkgerrors.GetAppError(err).Message)

	_, err = f.service.CompleteNode(context.Background(), "", "basics", "a")
	assert.True(t, pkgerrors.IsAuthentication(err))
}

func TestStartJourneyIsIdempotent(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "basics", []string{"a", "b"}, "a>b")
	ctx := context.Background()

	first, err := f.service.StartJourney(ctx, "user-1", "basics")
	require.NoError(t, err)
	second, err := f.service.StartJourney(ctx, "user-1", "basics")
	require.NoError(t, err)

	assert.Equal(t, first.Version(), second.Version())
	assert.Equal(t, valueobjects.NodeStatusAvailable, second.Status("a"))
	assert.Equal(t, valueobjects.NodeStatusLocked, second.Status("b"))
	assert.Equal(t, []string{events.TypeJourneyStarted}, f.publisher.types())
}

func TestCompleteNodeUnlocksAndPersists(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "basics", []string{"a", "b", "c"}, "a>b", "b>c")
	ctx := context.Background()

	_, err := f.service.StartJourney(ctx, "user-1", "basics")
	require.NoError(t, err)

	outcome, err := f.service.CompleteNode(ctx, "user-1", "basics", "a")
	require.NoError(t, err)
	assert.Equal(t, []valueobjects.NodeID{"b"}, outcome.Unlocked)

	stored, err := f.progress.Get(ctx, "user-1", "basics")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeStatusCompleted, stored.Status("a"))
	assert.Equal(t, valueobjects.NodeStatusAvailable, stored.Status("b"))
	assert.Equal(t, valueobjects.NodeStatusLocked, stored.Status("c"))
	assert.Equal(t, 33, stored.OverallProgress())

	again, err := f.service.CompleteNode(ctx, "user-1", "basics", "a")
	require.NoError(t, err)
	assert.Empty(t, again.Unlocked)
	assert.Equal(t, stored.Version(), again.Progress.Version())
	assert.Equal(t, stored.Counters(), again.Progress.Counters())
}

func TestStartNodeRejectsLockedNode(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "basics", []string{"a", "b"}, "a>b")
	ctx := context.Background()

	_, err := f.service.StartJourney(ctx, "user-1", "basics")
	require.NoError(t, err)

	_, err = f.service.StartNode(ctx, "user-1", "basics", "b")
	assert.True(t, pkgerrors.IsValidation(err))

	p, err := f.service.StartNode(ctx, "user-1", "basics", "a")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeStatusInProgress, p.Status("a"))
}

func TestParentMilestoneSyncAtThreshold(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "child", []string{"c1", "c2", "c3", "c4", "c5"})
	f.addJourney(t, "parent", []string{"m1=child", "m2"}, "m1>m2")
	ctx := context.Background()

	_, err := f.service.StartJourney(ctx, "user-1", "child")
	require.NoError(t, err)

	for _, n := range []valueobjects.NodeID{"c1", "c2", "c3"} {
		outcome, err := f.service.CompleteNode(ctx, "user-1", "child", n)
		require.NoError(t, err)
		assert.Empty(t, outcome.Synced)
	}
	_, err = f.progress.Get(ctx, "user-1", "parent")
	assert.True(t, pkgerrors.IsNotFound(err), "parent progress is created lazily")

	outcome, err := f.service.CompleteNode(ctx, "user-1", "child", "c4")
	require.NoError(t, err)
	assert.Equal(t, 80, outcome.Progress.OverallProgress())
	assert.Equal(t, []SyncedMilestone{{JourneyID: "parent", NodeID: "m1"}}, outcome.Synced)

	parent, err := f.progress.Get(ctx, "user-1", "parent")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeStatusCompleted, parent.Status("m1"))
	assert.Equal(t, valueobjects.NodeStatusAvailable, parent.Status("m2"))
	assert.Contains(t, f.publisher.types(), events.TypeParentMilestoneSynced)

	// Completing the rest of the child leaves the already synced parent untouched
	version := parent.Version()
	outcome, err = f.service.CompleteNode(ctx, "user-1", "child", "c5")
	require.NoError(t, err)
	assert.Empty(t, outcome.Synced)

	parent, err = f.progress.Get(ctx, "user-1", "parent")
	require.NoError(t, err)
	assert.Equal(t, version, parent.Version())
}

func TestParentSyncTerminatesOnSubJourneyCycle(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "x", []string{"x1=y"})
	f.addJourney(t, "y", []string{"y1=x"})
	ctx := context.Background()

	_, err := f.service.StartJourney(ctx, "user-1", "x")
	require.NoError(t, err)

	outcome, err := f.service.CompleteNode(ctx, "user-1", "x", "x1")
	require.NoError(t, err)
	assert.Equal(t, []SyncedMilestone{{JourneyID: "y", NodeID: "y1"}}, outcome.Synced)
}

func TestParentSyncRecursesThroughLevels(t *testing.T) {
	f := newProgressFixture(t)
	f.addJourney(t, "leaf", []string{"l1"})
	f.addJourney(t, "middle", []string{"m1=leaf"})
	f.addJourney(t, "top", []string{"t1=middle", "t2"}, "t1>t2")
	ctx := context.Background()

	_, err := f.service.StartJourney(ctx, "user-1", "leaf")
	require.NoError(t, err)

	outcome, err := f.service.CompleteNode(ctx, "user-1", "leaf", "l1")
	require.NoError(t, err)
	assert.Equal(t, []SyncedMilestone{
		{JourneyID: "middle", NodeID: "m1"},
		{JourneyID: "top", NodeID: "t1"},
	}, outcome.Synced)

	top, err := f.progress.Get(ctx, "user-1", "top")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.NodeStatusAvailable, top.Status("t2"))
}

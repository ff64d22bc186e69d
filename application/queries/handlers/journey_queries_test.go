package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/application/queries"
	"prepcoach/application/services"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/entities"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/persistence/memory"
	pkgerrors "prepcoach/pkg/errors"
)

type catalogueFixture struct {
	visibility *memory.VisibilityRepository
	handler    *JourneyQueryHandler
}

func newCatalogueFixture(t *testing.T) *catalogueFixture {
	t.Helper()
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()

	journeys := memory.NewJourneyRepository(cfg)
	for _, spec := range []struct {
		id    string
		title string
		nodes []aggregates.JourneyNode
	}{
		{"frontend", "Frontend Roadmap", []aggregates.JourneyNode{
			{ID: "html", Title: "HTML Semantics", Type: valueobjects.NodeTypeTopic},
			{ID: "css", Title: "CSS Layout", Type: valueobjects.NodeTypeMilestone},
			{ID: "secret", Title: "Hidden Milestone", Type: valueobjects.NodeTypeMilestone},
		}},
		{"backend", "Backend Roadmap", []aggregates.JourneyNode{
			{ID: "http", Title: "HTTP Basics", Type: valueobjects.NodeTypeTopic},
		}},
	} {
		j, err := aggregates.NewJourneyWithID(valueobjects.JourneyID(spec.id), spec.title, "", valueobjects.JourneyKindRoadmap, cfg)
		require.NoError(t, err)
		for _, n := range spec.nodes {
			require.NoError(t, j.AddNode(n))
		}
		if spec.id == "frontend" {
			_, err := j.ConnectNodes("html", "secret", valueobjects.EdgeTypeSequential)
			require.NoError(t, err)
		}
		require.NoError(t, journeys.Save(ctx, j))
	}

	visibility := memory.NewVisibilityRepository()
	now := time.Now()
	require.NoError(t, visibility.SaveBatch(ctx, []entities.VisibilitySetting{
		{EntityType: valueobjects.EntityTypeJourney, EntityID: "backend", IsPublic: false, UpdatedAt: now},
		{EntityType: valueobjects.EntityTypeMilestone, EntityID: "secret", IsPublic: false, UpdatedAt: now},
	}))

	reader := services.NewCachedJourneyReader(journeys, nil, cfg, zap.NewNop())
	resolver := services.NewVisibilityResolver(visibility, cfg)
	search := services.NewRoadmapSearch(reader, resolver, cfg)
	return &catalogueFixture{
		visibility: visibility,
		handler:    NewJourneyQueryHandler(reader, memory.NewProgressRepository(), resolver, search),
	}
}

var (
	member = ports.Actor{UserID: "user-1"}
	admin  = ports.Actor{UserID: "admin-1", IsAdmin: true}
)

func TestListJourneysHidesPrivateForMembers(t *testing.T) {
	f := newCatalogueFixture(t)
	ctx := context.Background()

	res, err := f.handler.HandleListJourneys(ctx, queries.ListJourneysQuery{Actor: member})
	require.NoError(t, err)
	require.Len(t, res.Journeys, 1)
	assert.Equal(t, "frontend", res.Journeys[0].ID)

	res, err = f.handler.HandleListJourneys(ctx, queries.ListJourneysQuery{Actor: admin})
	require.NoError(t, err)
	assert.Len(t, res.Journeys, 2)
}

func TestGetJourneyFiltersHiddenNodes(t *testing.T) {
	f := newCatalogueFixture(t)
	ctx := context.Background()

	snap, err := f.handler.HandleGetJourney(ctx, queries.GetJourneyQuery{Actor: member, JourneyID: "frontend"})
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 2)
	assert.Empty(t, snap.Edges)

	snap, err = f.handler.HandleGetJourney(ctx, queries.GetJourneyQuery{Actor: admin, JourneyID: "frontend"})
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 3)
	assert.Len(t, snap.Edges, 1)

	_, err = f.handler.HandleGetJourney(ctx, queries.GetJourneyQuery{Actor: member, JourneyID: "backend"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestSearchRoadmapRanksVisibleNodes(t *testing.T) {
	f := newCatalogueFixture(t)
	ctx := context.Background()

	hits, err := f.handler.HandleSearchRoadmap(ctx, queries.SearchRoadmapQuery{Actor: member, Query: "css"})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, valueobjects.NodeID("css"), hits[0].NodeID)

	hits, err = f.handler.HandleSearchRoadmap(ctx, queries.SearchRoadmapQuery{Actor: member, Query: "http"})
	require.NoError(t, err)
	assert.Empty(t, hits, "backend journey is private")

	hits, err = f.handler.HandleSearchRoadmap(ctx, queries.SearchRoadmapQuery{Actor: admin, Query: "hidden"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Frontend Roadmap", hits[0].JourneyTitle)
}

func TestGetProgressBeforeStart(t *testing.T) {
	f := newCatalogueFixture(t)
	_, err := f.handler.HandleGetProgress(context.Background(), queries.GetProgressQuery{Actor: member, JourneyID: "frontend"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

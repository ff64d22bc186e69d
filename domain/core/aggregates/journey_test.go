package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepcoach/domain/core/valueobjects"
	pkgerrors "prepcoach/pkg/errors"
)

// buildJourney creates a journey from node ids and "a>b" sequential edges.
func buildJourney(t *testing.T, nodes []string, sequential ...string) *Journey {
	t.Helper()

	j, err := NewJourney("Frontend Fundamentals", "", valueobjects.JourneyKindJourney, nil)
	require.NoError(t, err)

	for _, id := range nodes {
		require.NoError(t, j.AddNode(JourneyNode{
			ID:    valueobjects.NodeID(id),
			Title: id,
			Type:  valueobjects.NodeTypeTopic,
		}))
	}
	for _, e := range sequential {
		var src, dst string
		for i := range e {
			if e[i] == '>' {
				src, dst = e[:i], e[i+1:]
			}
		}
		_, err := j.ConnectNodes(valueobjects.NodeID(src), valueobjects.NodeID(dst), valueobjects.EdgeTypeSequential)
		require.NoError(t, err)
	}
	return j
}

func TestNewJourneyValidation(t *testing.T) {
	_, err := NewJourney("", "desc", valueobjects.JourneyKindRoadmap, nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewJourney("Title", "desc", valueobjects.JourneyKind("course"), nil)
	assert.True(t, pkgerrors.IsValidation(err))

	j, err := NewJourney("  CSS  ", "", valueobjects.JourneyKindRoadmap, nil)
	require.NoError(t, err)
	assert.Equal(t, "CSS", j.Title())
	assert.Len(t, j.GetUncommittedEvents(), 1)
}

func TestConnectNodesInvariants(t *testing.T) {
	j := buildJourney(t, []string{"a", "b"})

	_, err := j.ConnectNodes("a", "a", valueobjects.EdgeTypeSequential)
	assert.True(t, pkgerrors.IsValidation(err), "self edge")

	_, err = j.ConnectNodes("a", "missing", valueobjects.EdgeTypeSequential)
	assert.True(t, pkgerrors.IsValidation(err), "unknown endpoint")

	_, err = j.ConnectNodes("a", "b", valueobjects.EdgeTypeSequential)
	require.NoError(t, err)

	_, err = j.ConnectNodes("a", "b", valueobjects.EdgeTypeRelated)
	assert.True(t, pkgerrors.IsConflict(err), "duplicate edge")
}

func TestAddNodeRejectsDuplicates(t *testing.T) {
	j := buildJourney(t, []string{"a"})
	err := j.AddNode(JourneyNode{ID: "a", Title: "again", Type: valueobjects.NodeTypeTopic})
	assert.True(t, pkgerrors.IsConflict(err))

	err = j.AddNode(JourneyNode{ID: "b", Title: "bad", Type: valueobjects.NodeType("chapter")})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPrerequisitesAndRoots(t *testing.T) {
	j := buildJourney(t, []string{"a", "b", "c", "d"}, "a>c", "b>c")
	_, err := j.ConnectNodes("c", "d", valueobjects.EdgeTypeRelated)
	require.NoError(t, err)

	assert.ElementsMatch(t, []valueobjects.NodeID{"a", "b"}, j.Prerequisites("c"))
	assert.Empty(t, j.Prerequisites("d"), "related edges are not prerequisites")
	assert.Equal(t, []valueobjects.NodeID{"a", "b", "d"}, j.RootNodes())
}

func TestParentMilestones(t *testing.T) {
	j := buildJourney(t, []string{"a"})
	require.NoError(t, j.AddNode(JourneyNode{
		ID:           "html-milestone",
		Title:        "HTML",
		Type:         valueobjects.NodeTypeMilestone,
		SubJourneyID: "html-journey",
	}))

	parents := j.ParentMilestones("html-journey")
	require.Len(t, parents, 1)
	assert.Equal(t, valueobjects.NodeID("html-milestone"), parents[0].ID)
	assert.Empty(t, j.ParentMilestones("css-journey"))
	assert.Equal(t, []valueobjects.JourneyID{"html-journey"}, j.SubJourneyIDs())
}

func TestJourneySnapshotRoundTrip(t *testing.T) {
	j := buildJourney(t, []string{"a", "b"}, "a>b")
	j.CommitVersion(3)

	restored, err := ReconstructJourney(j.Snapshot(), nil)
	require.NoError(t, err)

	assert.Equal(t, j.Nodes(), restored.Nodes())
	assert.Equal(t, j.Edges(), restored.Edges())
	assert.Equal(t, 3, restored.Version())

	_, err = restored.ConnectNodes("a", "b", valueobjects.EdgeTypeSequential)
	assert.True(t, pkgerrors.IsConflict(err), "edge index rebuilt on reconstruction")
}

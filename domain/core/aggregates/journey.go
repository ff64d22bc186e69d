package aggregates

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"prepcoach/domain/config"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
)

// JourneyNode is a single learning step inside a journey
type JourneyNode struct {
	ID           valueobjects.NodeID    `json:"id" dynamodbav:"id" yaml:"id"`
	Title        string                 `json:"title" dynamodbav:"title" yaml:"title"`
	Description  string                 `json:"description,omitempty" dynamodbav:"description,omitempty" yaml:"description"`
	Type         valueobjects.NodeType  `json:"type" dynamodbav:"type" yaml:"type"`
	Order        int                    `json:"order" dynamodbav:"order" yaml:"order"`
	SubJourneyID valueobjects.JourneyID `json:"sub_journey_id,omitempty" dynamodbav:"sub_journey_id,omitempty" yaml:"sub_journey_id"`
}

// Edge is a directed link between two journey nodes
type Edge struct {
	ID     string                `json:"id" dynamodbav:"id" yaml:"id"`
	Source valueobjects.NodeID   `json:"source" dynamodbav:"source" yaml:"source"`
	Target valueobjects.NodeID   `json:"target" dynamodbav:"target" yaml:"target"`
	Type   valueobjects.EdgeType `json:"type" dynamodbav:"type" yaml:"type"`
}

// JourneySnapshot is the serializable form of a Journey
type JourneySnapshot struct {
	ID          valueobjects.JourneyID   `json:"id" dynamodbav:"journey_id"`
	Title       string                   `json:"title" dynamodbav:"title"`
	Description string                   `json:"description" dynamodbav:"description"`
	Kind        valueobjects.JourneyKind `json:"kind" dynamodbav:"kind"`
	Nodes       []JourneyNode            `json:"nodes" dynamodbav:"nodes"`
	Edges       []Edge                   `json:"edges" dynamodbav:"edges"`
	CreatedAt   time.Time                `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at" dynamodbav:"updated_at"`
	Version     int                      `json:"version" dynamodbav:"version"`
}

// Journey is the aggregate root for a directed graph of learning nodes
type Journey struct {
	id          valueobjects.JourneyID
	title       string
	description string
	kind        valueobjects.JourneyKind
	nodes       []JourneyNode
	nodeIndex   map[valueobjects.NodeID]int
	edges       []Edge
	edgeKeys    map[string]struct{}
	createdAt   time.Time
	updatedAt   time.Time
	version     int
	cfg         *config.DomainConfig
	events      []events.DomainEvent
}

// NewJourney creates a new, empty journey
func NewJourney(title, description string, kind valueobjects.JourneyKind, cfg *config.DomainConfig) (*Journey, error) {
	return NewJourneyWithID(valueobjects.NewJourneyID(), title, description, kind, cfg)
}

// NewJourneyWithID creates a journey with a caller-chosen id, as seeded catalogues do
func NewJourneyWithID(id valueobjects.JourneyID, title, description string, kind valueobjects.JourneyKind, cfg *config.DomainConfig) (*Journey, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("journey id required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid journey kind %q", kind))
	}

	content, err := valueobjects.NewNodeContentWithConfig(title, description, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	j := &Journey{
		id:          id,
		title:       content.Title(),
		description: content.Description(),
		kind:        kind,
		nodeIndex:   make(map[valueobjects.NodeID]int),
		edgeKeys:    make(map[string]struct{}),
		createdAt:   now,
		updatedAt:   now,
		cfg:         cfg,
	}

	j.addEvent(events.NewJourneyCreated(id.String(), j.title, string(kind), now))
	return j, nil
}

// ReconstructJourney recreates a journey from stored data
func ReconstructJourney(s JourneySnapshot, cfg *config.DomainConfig) (*Journey, error) {
	if s.ID.IsZero() {
		return nil, errors.New("journey id missing for reconstruction")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	j := &Journey{
		id:          s.ID,
		title:       s.Title,
		description: s.Description,
		kind:        s.Kind,
		nodeIndex:   make(map[valueobjects.NodeID]int, len(s.Nodes)),
		edgeKeys:    make(map[string]struct{}, len(s.Edges)),
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
		version:     s.Version,
		cfg:         cfg,
	}

	for _, n := range s.Nodes {
		j.nodeIndex[n.ID] = len(j.nodes)
		j.nodes = append(j.nodes, n)
	}
	for _, e := range s.Edges {
		j.edgeKeys[edgeKey(e.Source, e.Target)] = struct{}{}
		j.edges = append(j.edges, e)
	}

	return j, nil
}

// ID returns the journey's unique identifier
func (j *Journey) ID() valueobjects.JourneyID { return j.id }

// Title returns the journey title
func (j *Journey) Title() string { return j.title }

// Description returns the journey description
func (j *Journey) Description() string { return j.description }

// Kind returns whether this is a roadmap or a nested journey
func (j *Journey) Kind() valueobjects.JourneyKind { return j.kind }

// Version returns the persisted version
func (j *Journey) Version() int { return j.version }

// CommitVersion records the version written by the repository
func (j *Journey) CommitVersion(v int) { j.version = v }

// Nodes returns the nodes in insertion order
func (j *Journey) Nodes() []JourneyNode {
	out := make([]JourneyNode, len(j.nodes))
	copy(out, j.nodes)
	return out
}

// Edges returns the edges in insertion order
func (j *Journey) Edges() []Edge {
	out := make([]Edge, len(j.edges))
	copy(out, j.edges)
	return out
}

// Node looks up a node by id
func (j *Journey) Node(id valueobjects.NodeID) (JourneyNode, bool) {
	i, ok := j.nodeIndex[id]
	if !ok {
		return JourneyNode{}, false
	}
	return j.nodes[i], true
}

// HasNode reports whether the node belongs to this journey
func (j *Journey) HasNode(id valueobjects.NodeID) bool {
	_, ok := j.nodeIndex[id]
	return ok
}

// AddNode appends a node to the journey
func (j *Journey) AddNode(node JourneyNode) error {
	if node.ID.IsZero() {
		node.ID = valueobjects.NewNodeID()
	}
	if _, exists := j.nodeIndex[node.ID]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("node %s already exists in journey", node.ID))
	}
	if !node.Type.IsValid() {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid node type %q", node.Type))
	}
	if node.SubJourneyID == j.id {
		return pkgerrors.NewValidationError("a journey cannot be its own sub-journey")
	}
	if len(j.nodes) >= j.cfg.MaxNodesPerJourney {
		return pkgerrors.NewValidationError("maximum nodes reached")
	}

	content, err := valueobjects.NewNodeContentWithConfig(node.Title, node.Description, j.cfg)
	if err != nil {
		return err
	}
	node.Title = content.Title()
	node.Description = content.Description()
	if node.Order == 0 {
		node.Order = len(j.nodes) + 1
	}

	j.nodeIndex[node.ID] = len(j.nodes)
	j.nodes = append(j.nodes, node)
	j.touch()

	j.addEvent(events.NewJourneyNodeAdded(j.id.String(), node.ID.String(), node.SubJourneyID.String(), j.updatedAt, j.version+1))
	return nil
}

// ConnectNodes creates a directed edge between two existing nodes
func (j *Journey) ConnectNodes(source, target valueobjects.NodeID, edgeType valueobjects.EdgeType) (Edge, error) {
	if !j.HasNode(source) || !j.HasNode(target) {
		return Edge{}, pkgerrors.NewValidationError("both nodes must exist in journey")
	}
	if source == target {
		return Edge{}, pkgerrors.NewValidationError("cannot connect node to itself")
	}
	if !edgeType.IsValid() {
		return Edge{}, pkgerrors.NewValidationError(fmt.Sprintf("invalid edge type %q", edgeType))
	}

	key := edgeKey(source, target)
	if _, exists := j.edgeKeys[key]; exists {
		return Edge{}, pkgerrors.NewConflictError("edge already exists")
	}
	if len(j.edges) >= j.cfg.MaxEdgesPerJourney {
		return Edge{}, pkgerrors.NewValidationError("maximum edges reached")
	}

	edge := Edge{
		ID:     valueobjects.NewID(),
		Source: source,
		Target: target,
		Type:   edgeType,
	}
	j.edgeKeys[key] = struct{}{}
	j.edges = append(j.edges, edge)
	j.touch()

	j.addEvent(events.NewJourneyNodesConnected(j.id.String(), source.String(), target.String(), string(edgeType), j.updatedAt, j.version+1))
	return edge, nil
}

// Prerequisites returns the sources of every sequential edge targeting the node
func (j *Journey) Prerequisites(nodeID valueobjects.NodeID) []valueobjects.NodeID {
	var prereqs []valueobjects.NodeID
	for _, e := range j.edges {
		if e.Target == nodeID && e.Type == valueobjects.EdgeTypeSequential {
			prereqs = append(prereqs, e.Source)
		}
	}
	return prereqs
}

// RootNodes returns nodes with no incoming sequential edge, in node order
func (j *Journey) RootNodes() []valueobjects.NodeID {
	hasPrereq := make(map[valueobjects.NodeID]bool, len(j.nodes))
	for _, e := range j.edges {
		if e.Type == valueobjects.EdgeTypeSequential {
			hasPrereq[e.Target] = true
		}
	}

	var roots []valueobjects.NodeID
	for _, n := range j.sortedNodes() {
		if !hasPrereq[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// ParentMilestones returns the nodes that embed the given journey as a sub-journey
func (j *Journey) ParentMilestones(subJourneyID valueobjects.JourneyID) []JourneyNode {
	var parents []JourneyNode
	for _, n := range j.nodes {
		if n.SubJourneyID != "" && n.SubJourneyID == subJourneyID {
			parents = append(parents, n)
		}
	}
	return parents
}

// SubJourneyIDs returns the distinct journeys referenced by this journey's nodes
func (j *Journey) SubJourneyIDs() []valueobjects.JourneyID {
	seen := make(map[valueobjects.JourneyID]bool)
	var ids []valueobjects.JourneyID
	for _, n := range j.nodes {
		if n.SubJourneyID != "" && !seen[n.SubJourneyID] {
			seen[n.SubJourneyID] = true
			ids = append(ids, n.SubJourneyID)
		}
	}
	return ids
}

// Snapshot returns the serializable form of the journey
func (j *Journey) Snapshot() JourneySnapshot {
	return JourneySnapshot{
		ID:          j.id,
		Title:       j.title,
		Description: j.description,
		Kind:        j.kind,
		Nodes:       j.Nodes(),
		Edges:       j.Edges(),
		CreatedAt:   j.createdAt,
		UpdatedAt:   j.updatedAt,
		Version:     j.version,
	}
}

// GetUncommittedEvents returns all uncommitted domain events
func (j *Journey) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(j.events))
	copy(out, j.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (j *Journey) MarkEventsAsCommitted() {
	j.events = nil
}

func (j *Journey) sortedNodes() []JourneyNode {
	nodes := j.Nodes()
	sort.SliceStable(nodes, func(a, b int) bool { return nodes[a].Order < nodes[b].Order })
	return nodes
}

func (j *Journey) touch() {
	j.updatedAt = time.Now()
}

func (j *Journey) addEvent(event events.DomainEvent) {
	j.events = append(j.events, event)
}

func edgeKey(source, target valueobjects.NodeID) string {
	return source.String() + "->" + target.String()
}

package aggregates

import (
	"errors"
	"math"
	"time"

	"prepcoach/domain/core/valueobjects"
	"prepcoach/domain/events"
	pkgerrors "prepcoach/pkg/errors"
)

// NodeProgress is a user's state on one node
type NodeProgress struct {
	Status      valueobjects.NodeStatus `json:"status" dynamodbav:"status"`
	StartedAt   *time.Time              `json:"started_at,omitempty" dynamodbav:"started_at,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
}

// ProgressCounters aggregates node statuses
type ProgressCounters struct {
	Completed  int `json:"completed" dynamodbav:"completed"`
	InProgress int `json:"in_progress" dynamodbav:"in_progress"`
	Available  int `json:"available" dynamodbav:"available"`
	Locked     int `json:"locked" dynamodbav:"locked"`
	Total      int `json:"total" dynamodbav:"total"`
}

// ProgressSnapshot is the serializable form of UserJourneyProgress
type ProgressSnapshot struct {
	UserID          string                               `json:"user_id" dynamodbav:"user_id"`
	JourneyID       valueobjects.JourneyID               `json:"journey_id" dynamodbav:"journey_id"`
	Nodes           map[valueobjects.NodeID]NodeProgress `json:"nodes" dynamodbav:"nodes"`
	Counters        ProgressCounters                     `json:"counters" dynamodbav:"counters"`
	OverallProgress int                                  `json:"overall_progress" dynamodbav:"overall_progress"`
	StartedAt       time.Time                            `json:"started_at" dynamodbav:"started_at"`
	CompletedAt     *time.Time                           `json:"completed_at,omitempty" dynamodbav:"completed_at,omitempty"`
	UpdatedAt       time.Time                            `json:"updated_at" dynamodbav:"updated_at"`
	Version         int                                  `json:"version" dynamodbav:"version"`
}

// UserJourneyProgress is one user's progress through one journey
type UserJourneyProgress struct {
	userID      string
	journeyID   valueobjects.JourneyID
	nodes       map[valueobjects.NodeID]NodeProgress
	counters    ProgressCounters
	overall     int
	startedAt   time.Time
	completedAt *time.Time
	updatedAt   time.Time
	version     int
	events      []events.DomainEvent
}

// NewUserJourneyProgress starts a journey: root nodes are available, the rest locked
func NewUserJourneyProgress(userID string, journey *Journey) (*UserJourneyProgress, error) {
	if userID == "" {
		return nil, pkgerrors.NewAuthenticationError("")
	}
	if journey == nil {
		return nil, errors.New("journey cannot be nil")
	}

	now := time.Now()
	p := &UserJourneyProgress{
		userID:    userID,
		journeyID: journey.ID(),
		nodes:     make(map[valueobjects.NodeID]NodeProgress, len(journey.nodes)),
		startedAt: now,
		updatedAt: now,
	}

	roots := make(map[valueobjects.NodeID]bool)
	for _, id := range journey.RootNodes() {
		roots[id] = true
	}
	for _, n := range journey.nodes {
		status := valueobjects.NodeStatusLocked
		if roots[n.ID] {
			status = valueobjects.NodeStatusAvailable
		}
		p.nodes[n.ID] = NodeProgress{Status: status}
	}
	p.recount()

	p.addEvent(events.NewJourneyStarted(p.ID(), userID, journey.ID().String(), now))
	return p, nil
}

// ReconstructProgress recreates a progress record from stored data
func ReconstructProgress(s ProgressSnapshot) (*UserJourneyProgress, error) {
	if s.UserID == "" || s.JourneyID.IsZero() {
		return nil, errors.New("required fields missing for progress reconstruction")
	}

	nodes := make(map[valueobjects.NodeID]NodeProgress, len(s.Nodes))
	for id, np := range s.Nodes {
		nodes[id] = np
	}

	p := &UserJourneyProgress{
		userID:      s.UserID,
		journeyID:   s.JourneyID,
		nodes:       nodes,
		startedAt:   s.StartedAt,
		completedAt: s.CompletedAt,
		updatedAt:   s.UpdatedAt,
		version:     s.Version,
	}
	p.recount()
	return p, nil
}

// ProgressID builds the identifier of a user's progress on a journey
func ProgressID(userID string, journeyID valueobjects.JourneyID) string {
	return userID + "#" + journeyID.String()
}

// ID returns the progress record identifier
func (p *UserJourneyProgress) ID() string { return ProgressID(p.userID, p.journeyID) }

// UserID returns the owning user
func (p *UserJourneyProgress) UserID() string { return p.userID }

// JourneyID returns the journey being tracked
func (p *UserJourneyProgress) JourneyID() valueobjects.JourneyID { return p.journeyID }

// Counters returns the aggregate status counts
func (p *UserJourneyProgress) Counters() ProgressCounters { return p.counters }

// OverallProgress returns the completed percentage, 0 to 100
func (p *UserJourneyProgress) OverallProgress() int { return p.overall }

// IsCompleted reports whether every node is completed
func (p *UserJourneyProgress) IsCompleted() bool { return p.completedAt != nil }

// Version returns the persisted version
func (p *UserJourneyProgress) Version() int { return p.version }

// CommitVersion records the version written by the repository
func (p *UserJourneyProgress) CommitVersion(v int) { p.version = v }

// Status returns a node's status, locked when unknown
func (p *UserJourneyProgress) Status(nodeID valueobjects.NodeID) valueobjects.NodeStatus {
	if np, ok := p.nodes[nodeID]; ok {
		return np.Status
	}
	return valueobjects.NodeStatusLocked
}

// CompleteNode marks a node completed and makes available every node whose
// sequential prerequisites are now all completed. It returns the newly
// unlocked nodes. Completing an already completed node changes nothing.
func (p *UserJourneyProgress) CompleteNode(journey *Journey, nodeID valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if journey == nil || journey.ID() != p.journeyID {
		return nil, errors.New("journey does not match progress record")
	}
	if !journey.HasNode(nodeID) {
		return nil, pkgerrors.NewNotFoundError("journey node")
	}

	p.reconcile(journey)

	current := p.nodes[nodeID]
	if current.Status == valueobjects.NodeStatusCompleted {
		return nil, nil
	}

	now := time.Now()
	current.Status = valueobjects.NodeStatusCompleted
	current.CompletedAt = &now
	if current.StartedAt == nil {
		current.StartedAt = &now
	}
	p.nodes[nodeID] = current

	unlocked := p.unlockFrom(journey, nodeID, now)

	p.updatedAt = now
	p.recount()

	p.addEvent(events.NewNodeCompleted(p.ID(), p.userID, p.journeyID.String(), nodeID.String(), p.overall, now, p.version+1))
	if len(unlocked) > 0 {
		ids := make([]string, len(unlocked))
		for i, id := range unlocked {
			ids[i] = id.String()
		}
		p.addEvent(events.NewNodesUnlocked(p.ID(), p.userID, p.journeyID.String(), ids, now, p.version+1))
	}
	if p.counters.Total > 0 && p.counters.Completed == p.counters.Total && p.completedAt == nil {
		p.completedAt = &now
		p.addEvent(events.NewJourneyCompleted(p.ID(), p.userID, p.journeyID.String(), now, p.version+1))
	}

	return unlocked, nil
}

// unlockFrom is a single pass over the edges leaving the completed node.
// A cycle leaves its members locked rather than looping.
func (p *UserJourneyProgress) unlockFrom(journey *Journey, completed valueobjects.NodeID, now time.Time) []valueobjects.NodeID {
	var unlocked []valueobjects.NodeID
	visited := make(map[valueobjects.NodeID]bool)

	for _, edge := range journey.edges {
		if edge.Source != completed || visited[edge.Target] {
			continue
		}
		visited[edge.Target] = true

		ready := true
		for _, prereq := range journey.Prerequisites(edge.Target) {
			if p.nodes[prereq].Status != valueobjects.NodeStatusCompleted {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		target := p.nodes[edge.Target]
		if target.Status != valueobjects.NodeStatusLocked {
			continue
		}
		target.Status = valueobjects.NodeStatusAvailable
		p.nodes[edge.Target] = target
		unlocked = append(unlocked, edge.Target)
	}

	return unlocked
}

// StartNode moves an available node to in-progress
func (p *UserJourneyProgress) StartNode(journey *Journey, nodeID valueobjects.NodeID) error {
	if journey == nil || journey.ID() != p.journeyID {
		return errors.New("journey does not match progress record")
	}
	if !journey.HasNode(nodeID) {
		return pkgerrors.NewNotFoundError("journey node")
	}

	p.reconcile(journey)

	current := p.nodes[nodeID]
	switch current.Status {
	case valueobjects.NodeStatusLocked:
		return pkgerrors.NewValidationError("node is locked until its prerequisites are completed").
			WithDetail("node_id", nodeID.String())
	case valueobjects.NodeStatusInProgress, valueobjects.NodeStatusCompleted:
		return nil
	}

	now := time.Now()
	current.Status = valueobjects.NodeStatusInProgress
	current.StartedAt = &now
	p.nodes[nodeID] = current
	p.updatedAt = now
	p.recount()

	p.addEvent(events.NewNodeStarted(p.ID(), p.userID, p.journeyID.String(), nodeID.String(), now, p.version+1))
	return nil
}

// reconcile adds nodes that joined the journey after the record was created.
// They start available when their prerequisites are already completed.
func (p *UserJourneyProgress) reconcile(journey *Journey) {
	for _, n := range journey.nodes {
		if _, ok := p.nodes[n.ID]; ok {
			continue
		}
		status := valueobjects.NodeStatusAvailable
		for _, prereq := range journey.Prerequisites(n.ID) {
			if p.nodes[prereq].Status != valueobjects.NodeStatusCompleted {
				status = valueobjects.NodeStatusLocked
				break
			}
		}
		p.nodes[n.ID] = NodeProgress{Status: status}
	}
}

func (p *UserJourneyProgress) recount() {
	c := ProgressCounters{Total: len(p.nodes)}
	for _, np := range p.nodes {
		switch np.Status {
		case valueobjects.NodeStatusCompleted:
			c.Completed++
		case valueobjects.NodeStatusInProgress:
			c.InProgress++
		case valueobjects.NodeStatusAvailable:
			c.Available++
		default:
			c.Locked++
		}
	}
	p.counters = c

	if c.Total == 0 {
		p.overall = 0
		return
	}
	p.overall = int(math.Round(float64(c.Completed) / float64(c.Total) * 100))
}

// Snapshot returns the serializable form of the record
func (p *UserJourneyProgress) Snapshot() ProgressSnapshot {
	nodes := make(map[valueobjects.NodeID]NodeProgress, len(p.nodes))
	for id, np := range p.nodes {
		nodes[id] = np
	}
	return ProgressSnapshot{
		UserID:          p.userID,
		JourneyID:       p.journeyID,
		Nodes:           nodes,
		Counters:        p.counters,
		OverallProgress: p.overall,
		StartedAt:       p.startedAt,
		CompletedAt:     p.completedAt,
		UpdatedAt:       p.updatedAt,
		Version:         p.version,
	}
}

// GetUncommittedEvents returns all uncommitted domain events
func (p *UserJourneyProgress) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// MarkEventsAsCommitted clears all uncommitted events
func (p *UserJourneyProgress) MarkEventsAsCommitted() {
	p.events = nil
}

func (p *UserJourneyProgress) addEvent(event events.DomainEvent) {
	p.events = append(p.events, event)
}

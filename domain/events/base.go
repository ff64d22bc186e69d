package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, ts time.Time, version int) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   ts,
		Version:     version,
	}
}

// SourceBackend is the event bus source of everything this service publishes
const SourceBackend = "prepcoach.backend"

// Event type names as published on the bus
const (
	TypeJourneyCreated         = "journey.created"
	TypeJourneyNodeAdded       = "journey.node_added"
	TypeJourneyNodesConnected  = "journey.nodes_connected"
	TypeJourneyStarted         = "progress.journey_started"
	TypeNodeStarted            = "progress.node_started"
	TypeNodeCompleted          = "progress.node_completed"
	TypeNodesUnlocked          = "progress.nodes_unlocked"
	TypeJourneyCompleted       = "progress.journey_completed"
	TypeParentMilestoneSynced  = "progress.parent_milestone_synced"
	TypeVisibilityChanged      = "visibility.changed"
	TypeIterationConsumed      = "usage.iteration_consumed"
	TypePlanChanged            = "billing.plan_changed"
	TypeInterviewCreated       = "interview.created"
	TypeInterviewStatusChanged = "interview.status_changed"
)

// Journey Events

// JourneyCreated is raised when an admin creates a journey
type JourneyCreated struct {
	BaseEvent
	JourneyID string `json:"journey_id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
}

// NewJourneyCreated creates a JourneyCreated event
func NewJourneyCreated(journeyID, title, kind string, ts time.Time) JourneyCreated {
	return JourneyCreated{
		BaseEvent: newBase(journeyID, TypeJourneyCreated, ts, 1),
		JourneyID: journeyID,
		Title:     title,
		Kind:      kind,
	}
}

// JourneyNodeAdded is raised when a node is added to a journey
type JourneyNodeAdded struct {
	BaseEvent
	JourneyID    string `json:"journey_id"`
	NodeID       string `json:"node_id"`
	SubJourneyID string `json:"sub_journey_id,omitempty"`
}

// NewJourneyNodeAdded creates a JourneyNodeAdded event
func NewJourneyNodeAdded(journeyID, nodeID, subJourneyID string, ts time.Time, version int) JourneyNodeAdded {
	return JourneyNodeAdded{
		BaseEvent:    newBase(journeyID, TypeJourneyNodeAdded, ts, version),
		JourneyID:    journeyID,
		NodeID:       nodeID,
		SubJourneyID: subJourneyID,
	}
}

// JourneyNodesConnected is raised when an edge is added to a journey
type JourneyNodesConnected struct {
	BaseEvent
	JourneyID string `json:"journey_id"`
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	EdgeType  string `json:"edge_type"`
}

// NewJourneyNodesConnected creates a JourneyNodesConnected event
func NewJourneyNodesConnected(journeyID, sourceID, targetID, edgeType string, ts time.Time, version int) JourneyNodesConnected {
	return JourneyNodesConnected{
		BaseEvent: newBase(journeyID, TypeJourneyNodesConnected, ts, version),
		JourneyID: journeyID,
		SourceID:  sourceID,
		TargetID:  targetID,
		EdgeType:  edgeType,
	}
}

// Progress Events

// JourneyStarted is raised when a user's progress record is first created
type JourneyStarted struct {
	BaseEvent
	UserID    string `json:"user_id"`
	JourneyID string `json:"journey_id"`
}

// NewJourneyStarted creates a JourneyStarted event
func NewJourneyStarted(progressID, userID, journeyID string, ts time.Time) JourneyStarted {
	return JourneyStarted{
		BaseEvent: newBase(progressID, TypeJourneyStarted, ts, 1),
		UserID:    userID,
		JourneyID: journeyID,
	}
}

// NodeStarted is raised when a user begins an available node
type NodeStarted struct {
	BaseEvent
	UserID    string `json:"user_id"`
	JourneyID string `json:"journey_id"`
	NodeID    string `json:"node_id"`
}

// NewNodeStarted creates a NodeStarted event
func NewNodeStarted(progressID, userID, journeyID, nodeID string, ts time.Time, version int) NodeStarted {
	return NodeStarted{
		BaseEvent: newBase(progressID, TypeNodeStarted, ts, version),
		UserID:    userID,
		JourneyID: journeyID,
		NodeID:    nodeID,
	}
}

// NodeCompleted is raised when a node first reaches the completed state
type NodeCompleted struct {
	BaseEvent
	UserID          string `json:"user_id"`
	JourneyID       string `json:"journey_id"`
	NodeID          string `json:"node_id"`
	OverallProgress int    `json:"overall_progress"`
}

// NewNodeCompleted creates a NodeCompleted event
func NewNodeCompleted(progressID, userID, journeyID, nodeID string, overall int, ts time.Time, version int) NodeCompleted {
	return NodeCompleted{
		BaseEvent:       newBase(progressID, TypeNodeCompleted, ts, version),
		UserID:          userID,
		JourneyID:       journeyID,
		NodeID:          nodeID,
		OverallProgress: overall,
	}
}

// NodesUnlocked is raised when completing a node makes others available
type NodesUnlocked struct {
	BaseEvent
	UserID    string   `json:"user_id"`
	JourneyID string   `json:"journey_id"`
	NodeIDs   []string `json:"node_ids"`
}

// NewNodesUnlocked creates a NodesUnlocked event
func NewNodesUnlocked(progressID, userID, journeyID string, nodeIDs []string, ts time.Time, version int) NodesUnlocked {
	return NodesUnlocked{
		BaseEvent: newBase(progressID, TypeNodesUnlocked, ts, version),
		UserID:    userID,
		JourneyID: journeyID,
		NodeIDs:   nodeIDs,
	}
}

// JourneyCompleted is raised when every node of a journey is completed
type JourneyCompleted struct {
	BaseEvent
	UserID    string `json:"user_id"`
	JourneyID string `json:"journey_id"`
}

// NewJourneyCompleted creates a JourneyCompleted event
func NewJourneyCompleted(progressID, userID, journeyID string, ts time.Time, version int) JourneyCompleted {
	return JourneyCompleted{
		BaseEvent: newBase(progressID, TypeJourneyCompleted, ts, version),
		UserID:    userID,
		JourneyID: journeyID,
	}
}

// ParentMilestoneSynced is raised when a sub-journey completes a parent node
type ParentMilestoneSynced struct {
	BaseEvent
	UserID          string `json:"user_id"`
	SubJourneyID    string `json:"sub_journey_id"`
	ParentJourneyID string `json:"parent_journey_id"`
	ParentNodeID    string `json:"parent_node_id"`
}

// NewParentMilestoneSynced creates a ParentMilestoneSynced event
func NewParentMilestoneSynced(userID, subJourneyID, parentJourneyID, parentNodeID string, ts time.Time) ParentMilestoneSynced {
	return ParentMilestoneSynced{
		BaseEvent:       newBase(parentJourneyID, TypeParentMilestoneSynced, ts, 1),
		UserID:          userID,
		SubJourneyID:    subJourneyID,
		ParentJourneyID: parentJourneyID,
		ParentNodeID:    parentNodeID,
	}
}

// Visibility Events

// VisibilityChanged is raised for every persisted visibility write
type VisibilityChanged struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	IsPublic   bool   `json:"is_public"`
	ActorID    string `json:"actor_id"`
}

// NewVisibilityChanged creates a VisibilityChanged event
func NewVisibilityChanged(entityType, entityID string, isPublic bool, actorID string, ts time.Time) VisibilityChanged {
	return VisibilityChanged{
		BaseEvent:  newBase(entityID, TypeVisibilityChanged, ts, 1),
		EntityType: entityType,
		EntityID:   entityID,
		IsPublic:   isPublic,
		ActorID:    actorID,
	}
}

// Usage and Billing Events

// IterationConsumed is raised when a user spends iterations
type IterationConsumed struct {
	BaseEvent
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
	Used   int    `json:"used"`
	BYOK   bool   `json:"byok"`
}

// NewIterationConsumed creates an IterationConsumed event
func NewIterationConsumed(userID string, count, used int, byok bool, ts time.Time, version int) IterationConsumed {
	return IterationConsumed{
		BaseEvent: newBase(userID, TypeIterationConsumed, ts, version),
		UserID:    userID,
		Count:     count,
		Used:      used,
		BYOK:      byok,
	}
}

// PlanChanged is raised when a subscription changes a user's plan
type PlanChanged struct {
	BaseEvent
	UserID  string `json:"user_id"`
	OldPlan string `json:"old_plan"`
	NewPlan string `json:"new_plan"`
}

// NewPlanChanged creates a PlanChanged event
func NewPlanChanged(userID, oldPlan, newPlan string, ts time.Time, version int) PlanChanged {
	return PlanChanged{
		BaseEvent: newBase(userID, TypePlanChanged, ts, version),
		UserID:    userID,
		OldPlan:   oldPlan,
		NewPlan:   newPlan,
	}
}

// Interview Events

// InterviewCreated is raised when a user creates an interview preparation
type InterviewCreated struct {
	BaseEvent
	UserID   string `json:"user_id"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
}

// NewInterviewCreated creates an InterviewCreated event
func NewInterviewCreated(interviewID, userID, jobTitle, company string, ts time.Time) InterviewCreated {
	return InterviewCreated{
		BaseEvent: newBase(interviewID, TypeInterviewCreated, ts, 1),
		UserID:    userID,
		JobTitle:  jobTitle,
		Company:   company,
	}
}

// InterviewStatusChanged is raised when an interview moves between states
type InterviewStatusChanged struct {
	BaseEvent
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Progress  int    `json:"progress"`
}

// NewInterviewStatusChanged creates an InterviewStatusChanged event
func NewInterviewStatusChanged(interviewID, userID, oldStatus, newStatus string, progress int, ts time.Time, version int) InterviewStatusChanged {
	return InterviewStatusChanged{
		BaseEvent: newBase(interviewID, TypeInterviewStatusChanged, ts, version),
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Progress:  progress,
	}
}

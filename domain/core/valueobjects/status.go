package valueobjects

// NodeStatus is a user's state on a single journey node
type NodeStatus string

const (
	NodeStatusLocked     NodeStatus = "locked"
	NodeStatusAvailable  NodeStatus = "available"
	NodeStatusInProgress NodeStatus = "in-progress"
	NodeStatusCompleted  NodeStatus = "completed"
)

// IsValid reports whether the status is known
func (s NodeStatus) IsValid() bool {
	switch s {
	case NodeStatusLocked, NodeStatusAvailable, NodeStatusInProgress, NodeStatusCompleted:
		return true
	}
	return false
}

// NodeType classifies journey nodes
type NodeType string

const (
	NodeTypeMilestone NodeType = "milestone"
	NodeTypeTopic     NodeType = "topic"
	NodeTypeObjective NodeType = "objective"
)

// IsValid reports whether the node type is known
func (t NodeType) IsValid() bool {
	return t == NodeTypeMilestone || t == NodeTypeTopic || t == NodeTypeObjective
}

// EdgeType classifies edges between journey nodes. Only sequential edges
// act as prerequisites.
type EdgeType string

const (
	EdgeTypeSequential EdgeType = "sequential"
	EdgeTypeRelated    EdgeType = "related"
)

// IsValid reports whether the edge type is known
func (t EdgeType) IsValid() bool {
	return t == EdgeTypeSequential || t == EdgeTypeRelated
}

// JourneyKind distinguishes top-level roadmaps from nested journeys
type JourneyKind string

const (
	JourneyKindRoadmap JourneyKind = "roadmap"
	JourneyKindJourney JourneyKind = "journey"
)

// IsValid reports whether the kind is known
func (k JourneyKind) IsValid() bool {
	return k == JourneyKindRoadmap || k == JourneyKindJourney
}

// EntityType names what a visibility setting applies to
type EntityType string

const (
	EntityTypeJourney   EntityType = "journey"
	EntityTypeMilestone EntityType = "milestone"
	EntityTypeObjective EntityType = "objective"
)

// IsValid reports whether the entity type is known
func (t EntityType) IsValid() bool {
	return t == EntityTypeJourney || t == EntityTypeMilestone || t == EntityTypeObjective
}

// InterviewStatus is the lifecycle state of an interview preparation
type InterviewStatus string

const (
	InterviewStatusUpcoming  InterviewStatus = "upcoming"
	InterviewStatusActive    InterviewStatus = "active"
	InterviewStatusCompleted InterviewStatus = "completed"
)

// IsValid reports whether the status is known
func (s InterviewStatus) IsValid() bool {
	return s == InterviewStatusUpcoming || s == InterviewStatusActive || s == InterviewStatusCompleted
}

// InterviewStatusForProgress derives the status implied by a progress percentage
func InterviewStatusForProgress(percent int) InterviewStatus {
	switch {
	case percent <= 0:
		return InterviewStatusUpcoming
	case percent >= 100:
		return InterviewStatusCompleted
	default:
		return InterviewStatusActive
	}
}

// PlanTier is a user's subscription plan
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPro     PlanTier = "pro"
	PlanPremium PlanTier = "premium"
)

// IsValid reports whether the plan is known
func (p PlanTier) IsValid() bool {
	return p == PlanFree || p == PlanPro || p == PlanPremium
}

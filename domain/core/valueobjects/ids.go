package valueobjects

import (
	"strings"

	"github.com/google/uuid"
)

// JourneyID identifies a journey or roadmap
type JourneyID string

// NewJourneyID creates a new random JourneyID
func NewJourneyID() JourneyID {
	return JourneyID(uuid.New().String())
}

// String returns the string representation
func (id JourneyID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty
func (id JourneyID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// NodeID identifies a node inside a journey. Seeded catalogues use readable
// slugs, so any non-empty string is accepted.
type NodeID string

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

// String returns the string representation
func (id NodeID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty
func (id NodeID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// NewID returns a random identifier for records without a typed id
func NewID() string {
	return uuid.New().String()
}

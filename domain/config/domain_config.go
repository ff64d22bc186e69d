package config

import "time"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Journey constraints
	MaxNodesPerJourney   int
	MaxEdgesPerJourney   int
	MaxTitleLength       int
	MaxDescriptionLength int

	// Progress propagation
	ParentSyncThreshold int // percent of a sub-journey that completes its parent milestone
	MaxSubJourneyDepth  int

	// Visibility
	MaxVisibilityChainDepth int
	MaxVisibilityBatchSize  int

	// Usage
	UsagePeriod time.Duration

	// Interviews
	MaxJobDescriptionLength int

	// Search
	DefaultSearchLimit int
	MaxSearchLimit     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerJourney:   500,
		MaxEdgesPerJourney:   2000,
		MaxTitleLength:       200,
		MaxDescriptionLength: 5000,

		ParentSyncThreshold: 80,
		MaxSubJourneyDepth:  5,

		MaxVisibilityChainDepth: 10,
		MaxVisibilityBatchSize:  100,

		UsagePeriod: 30 * 24 * time.Hour,

		MaxJobDescriptionLength: 20000,

		DefaultSearchLimit: 20,
		MaxSearchLimit:     50,
	}
}

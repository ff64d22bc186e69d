package queries

import (
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/entities"
	"prepcoach/pkg/common"
)

// JourneySummary is a journey without its graph
type JourneySummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	NodeCount   int    `json:"node_count"`
	IsPublic    bool   `json:"is_public"`
}

// ListJourneysResult lists journeys
type ListJourneysResult struct {
	Journeys []JourneySummary `json:"journeys"`
}

// ListProgressResult lists progress records
type ListProgressResult struct {
	Progress []aggregates.ProgressSnapshot `json:"progress"`
}

// ListInterviewsResult is one page of interviews
type ListInterviewsResult struct {
	Interviews []*entities.Interview  `json:"interviews"`
	Pagination *common.PaginationInfo `json:"pagination"`
}

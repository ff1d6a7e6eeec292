package dto

import "github.com/google/uuid"

type MatchRequest struct {
	CustomerID   string `json:"customerId"`
	MinScore     *int   `json:"minScore"`
	MaxResults   *int   `json:"maxResults"`
	ForceRefresh bool   `json:"forceRefresh"`
}

type MatchResultResponse struct {
	ProgramID       uuid.UUID `json:"programId"`
	ProgramTitle    string    `json:"programTitle"`
	SourceURL       string    `json:"sourceUrl,omitempty"`
	Score           int       `json:"score"`
	MatchedIndustry bool      `json:"matchedIndustry"`
	MatchedLocation bool      `json:"matchedLocation"`
	MatchedKeywords []string  `json:"matchedKeywords"`
	CreatedAt       string    `json:"createdAt,omitempty"`
}

// internal/workers/ai-matching/rank-matches/models.go
package rankmatches

import "provider-discovery/internal/models"

// Input supplies candidates in one of three ways, checked in order:
// inline candidates, candidate ids looked up in the provider source, or
// criteria run through the filter engine. With none of them every active
// provider is a candidate.
type Input struct {
	Analysis     models.ProjectAnalysis  `json:"analysis"`
	Candidates   []models.ProviderRecord `json:"candidates,omitempty"`
	CandidateIDs []string                `json:"candidateIds,omitempty"`
	Criteria     *models.FilterCriteria  `json:"criteria,omitempty"`
	SessionID    string                  `json:"sessionId,omitempty"`
	RequestSeq   int64                   `json:"requestSeq,omitempty"`
}

type Output struct {
	Matches         []models.MatchResult `json:"matches"`
	TotalCandidates int                  `json:"totalCandidates"`
	Stale           bool                 `json:"stale"`
	RequestSeq      int64                `json:"requestSeq,omitempty"`
}

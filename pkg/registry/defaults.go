// pkg/registry/defaults.go
package registry

import "time"

const (
	CategoryProvider   = "provider"
	CategoryAIMatching = "ai-matching"

	StatusCompleted = "completed"
)

func object(required []string, props map[string]interface{}) map[string]interface{} {
	s := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func typed(t string) map[string]interface{} {
	return map[string]interface{}{"type": t}
}

var sequenceProps = map[string]interface{}{
	"sessionId":  typed("string"),
	"requestSeq": map[string]interface{}{"type": "integer", "minimum": 0},
}

func withSequence(props map[string]interface{}) map[string]interface{} {
	for k, v := range sequenceProps {
		props[k] = v
	}
	return props
}

// Default returns the activities implemented by the worker manager.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Activities: []Activity{
			{
				ID:                   "parse-search-filters",
				DisplayName:          "Parse Search Filters",
				Description:          "Normalises raw search form values into provider filter criteria",
				Category:             CategoryProvider,
				Version:              "1.0.0",
				TaskType:             "parse-search-filters",
				ImplementationStatus: StatusCompleted,
				InputSchema:          object([]string{"rawFilters"}, map[string]interface{}{"rawFilters": typed("object")}),
				OutputSchema:         object([]string{"criteria"}, map[string]interface{}{"criteria": typed("object")}),
				ErrorCodes:           []string{"INVALID_FILTER_FORMAT", "INVALID_CRITERIA", "INVALID_INPUT"},
				Timeout:              "5s",
				Retries:              0,
				Workflows:            []string{"provider-search"},
				Tags:                 []string{"search", "validation"},
			},
			{
				ID:                   "search-providers",
				DisplayName:          "Search Providers",
				Description:          "Filters, sorts and pages active providers",
				Category:             CategoryProvider,
				Version:              "1.0.0",
				TaskType:             "search-providers",
				ImplementationStatus: StatusCompleted,
				InputSchema:          object([]string{"criteria"}, withSequence(map[string]interface{}{"criteria": typed("object")})),
				OutputSchema: object([]string{"providers", "totalCount", "hasMore", "stale"}, map[string]interface{}{
					"providers":  typed("array"),
					"page":       typed("integer"),
					"pageSize":   typed("integer"),
					"totalCount": typed("integer"),
					"hasMore":    typed("boolean"),
					"stale":      typed("boolean"),
				}),
				ErrorCodes: []string{"INVALID_CRITERIA", "PROVIDER_SOURCE_FAILED", "PROVIDER_SEARCH_FAILED", "SEQUENCE_CHECK_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Workflows:  []string{"provider-search"},
				Tags:       []string{"search", "pagination"},
			},
			{
				ID:                   "classify-project",
				DisplayName:          "Classify Project",
				Description:          "Detects services, urgency and cost for a project description with an offline fallback",
				Category:             CategoryAIMatching,
				Version:              "1.0.0",
				TaskType:             "classify-project",
				ImplementationStatus: StatusCompleted,
				InputSchema: object(nil, withSequence(map[string]interface{}{
					"description": typed("string"),
					"images":      map[string]interface{}{"type": "array", "items": typed("string")},
					"context":     typed("object"),
				})),
				OutputSchema: object([]string{"stale"}, map[string]interface{}{
					"analysis": typed("object"),
					"stale":    typed("boolean"),
				}),
				ErrorCodes: []string{"INVALID_INPUT", "SEQUENCE_CHECK_FAILED"},
				Timeout:    "20s",
				Retries:    2,
				Workflows:  []string{"project-matching"},
				Tags:       []string{"ai", "classification"},
			},
			{
				ID:                   "rank-matches",
				DisplayName:          "Rank Matches",
				Description:          "Scores candidate providers against a project analysis",
				Category:             CategoryAIMatching,
				Version:              "1.0.0",
				TaskType:             "rank-matches",
				ImplementationStatus: StatusCompleted,
				InputSchema: object([]string{"analysis"}, withSequence(map[string]interface{}{
					"analysis":     typed("object"),
					"candidates":   typed("array"),
					"candidateIds": map[string]interface{}{"type": "array", "items": typed("string")},
					"criteria":     typed("object"),
				})),
				OutputSchema: object([]string{"matches", "stale"}, map[string]interface{}{
					"matches":         typed("array"),
					"totalCandidates": typed("integer"),
					"stale":           typed("boolean"),
				}),
				ErrorCodes: []string{"INVALID_CRITERIA", "PROVIDER_SOURCE_FAILED", "PROVIDER_SEARCH_FAILED", "SEQUENCE_CHECK_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Workflows:  []string{"project-matching"},
				Tags:       []string{"ai", "ranking"},
			},
			{
				ID:                   "notify-matched-providers",
				DisplayName:          "Notify Matched Providers",
				Description:          "Emails and texts the top matches for urgent projects",
				Category:             CategoryAIMatching,
				Version:              "1.0.0",
				TaskType:             "notify-matched-providers",
				ImplementationStatus: StatusCompleted,
				InputSchema: object([]string{"analysis", "matches"}, map[string]interface{}{
					"analysis":    typed("object"),
					"matches":     typed("array"),
					"projectId":   typed("string"),
					"description": typed("string"),
				}),
				OutputSchema: object([]string{"notified", "notifications"}, map[string]interface{}{
					"notified":      typed("boolean"),
					"skippedReason": typed("string"),
					"notifications": typed("array"),
				}),
				ErrorCodes: []string{"NOTIFICATION_SEND_FAILED", "INVALID_INPUT"},
				Timeout:    "15s",
				Retries:    3,
				Workflows:  []string{"project-matching"},
				Tags:       []string{"notification", "aws"},
			},
		},
	}
}

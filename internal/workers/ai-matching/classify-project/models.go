// internal/workers/ai-matching/classify-project/models.go
package classifyproject

import "provider-discovery/internal/models"

type Input struct {
	Description string                 `json:"description"`
	Images      []string               `json:"images,omitempty"` // base64
	Context     map[string]interface{} `json:"context,omitempty"`
	SessionID   string                 `json:"sessionId,omitempty"`
	RequestSeq  int64                  `json:"requestSeq,omitempty"`
}

type Output struct {
	Analysis   *models.ProjectAnalysis `json:"analysis"`
	Stale      bool                    `json:"stale"`
	RequestSeq int64                   `json:"requestSeq,omitempty"`
}

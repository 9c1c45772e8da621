// internal/workers/provider/search-providers/models.go
package searchproviders

import (
	"provider-discovery/internal/discovery/pagination"
	"provider-discovery/internal/models"
)

type Input struct {
	Criteria   models.FilterCriteria `json:"criteria"`
	SessionID  string                `json:"sessionId,omitempty"`
	RequestSeq int64                 `json:"requestSeq,omitempty"`
}

// Output carries one page. When Stale is set a newer request in the same
// session superseded this one and the page is empty.
type Output struct {
	pagination.Page
	Stale      bool  `json:"stale"`
	RequestSeq int64 `json:"requestSeq,omitempty"`
}

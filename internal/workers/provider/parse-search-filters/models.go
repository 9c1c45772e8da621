// internal/workers/provider/parse-search-filters/models.go
package parsesearchfilters

import "provider-discovery/internal/models"

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	Criteria models.FilterCriteria `json:"criteria"`
}

// rawFilters is the loosely typed shape coming from forms and query strings.
// Numbers may arrive as strings and "all" stands for no restriction.
type rawFilters struct {
	Search       string             `json:"search"`
	Category     string             `json:"category"`
	Municipality string             `json:"municipality"`
	VerifiedOnly bool               `json:"verifiedOnly"`
	MinRating    *float64           `json:"minRating"`
	SortBy       string             `json:"sortBy"`
	Page         int                `json:"page"`
	PageSize     int                `json:"pageSize"`
	Origin       *models.Coordinate `json:"origin"`
}

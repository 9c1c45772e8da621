// internal/models/criteria.go
package models

type SortBy string

const (
	SortNewest   SortBy = "newest"
	SortRating   SortBy = "rating"
	SortName     SortBy = "name"
	SortDistance SortBy = "distance"
)

// FilterCriteria describes a provider search. Nil optional fields mean
// "no restriction".
type FilterCriteria struct {
	Search       string      `json:"search,omitempty"`
	Category     *string     `json:"category,omitempty"`
	Municipality *string     `json:"municipality,omitempty"`
	VerifiedOnly bool        `json:"verifiedOnly"`
	MinRating    *float64    `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
	SortBy       SortBy      `json:"sortBy" validate:"omitempty,oneof=newest rating name distance"`
	Page         int         `json:"page" validate:"gte=1"`
	PageSize     int         `json:"pageSize" validate:"gte=1"`
	Origin       *Coordinate `json:"origin,omitempty"`
}

// DefaultCriteria returns criteria that match every provider, first page of 20.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		SortBy:   SortNewest,
		Page:     1,
		PageSize: 20,
	}
}

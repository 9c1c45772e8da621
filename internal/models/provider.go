// internal/models/provider.go
package models

import "time"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Valid reports whether both components are within range. NaN is never valid.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// ProviderRecord is read-only to the discovery engine.
type ProviderRecord struct {
	ID           string      `json:"id"`
	BusinessName string      `json:"businessName"`
	Services     []string    `json:"services"`
	Municipality string      `json:"municipality"`
	Barangay     string      `json:"barangay"`
	Rating       float64     `json:"rating"`
	ReviewCount  int         `json:"reviewCount"`
	Verified     bool        `json:"verified"`
	Featured     bool        `json:"featured"`
	TopRated     bool        `json:"topRated"`
	Location     *Coordinate `json:"location,omitempty"`
	Contact      Contact     `json:"contact"`
	CreatedAt    *time.Time  `json:"createdAt,omitempty"`
}

package model

import "fmt"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" cbor:"lat"`
	Lon float64 `json:"lon" cbor:"lon"`
}

// Valid reports whether the coordinate lies within the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// SortCriterion selects how the pager orders already-fetched items.
type SortCriterion string

const (
	SortRecency  SortCriterion = "recency"
	SortDistance SortCriterion = "distance"
)

// LocationFilter carries the viewer's location preference.
type LocationFilter struct {
	Enabled    bool
	Coordinate *Coordinate
	Sort       SortCriterion
}

// SortsByDistance reports whether items must be ordered by distance: the
// filter is enabled, a coordinate is known and distance sort is selected.
func (f LocationFilter) SortsByDistance() bool {
	return f.Enabled && f.Coordinate != nil && f.Sort == SortDistance
}

// Equal compares two filters by value.
func (f LocationFilter) Equal(o LocationFilter) bool {
	if f.Enabled != o.Enabled || f.Sort != o.Sort {
		return false
	}
	if (f.Coordinate == nil) != (o.Coordinate == nil) {
		return false
	}
	return f.Coordinate == nil || *f.Coordinate == *o.Coordinate
}

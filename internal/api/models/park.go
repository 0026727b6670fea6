package models

// Park is a park record as returned by the API.
type Park struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Location    Point  `json:"location"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source"`
}

// Trail is a trail record as returned by the API.
type Trail struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description,omitempty"`
}

// ParksResponse is the response body of GET /v1/parks.
type ParksResponse struct {
	Location Point  `json:"location"`
	Source   string `json:"source"`
	Parks    []Park `json:"parks"`
}

// ParkWithTrails pairs a park with its trails. TrailsError carries the
// failure kind when the trail lookup failed.
type ParkWithTrails struct {
	Park
	Trails      []Trail `json:"trails"`
	TrailsError string  `json:"trailsError,omitempty"`
}

// ExploreResponse is the response body of GET /v1/explore.
type ExploreResponse struct {
	Location  Point            `json:"location"`
	Source    string           `json:"source"`
	HikesOnly bool             `json:"hikesOnly"`
	Parks     []ParkWithTrails `json:"parks"`
	Digest    string           `json:"digest"`
}

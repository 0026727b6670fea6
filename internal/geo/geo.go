// Package geo holds the coordinate guard and the upstream routing rule used by
// every park, trail and weather fetch.
package geo

import (
	"math"
	"strings"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// Location is a resolved position plus the region and country codes reported
// by the location collaborator. Either code may be empty.
type Location struct {
	Lat         float64
	Lon         float64
	RegionCode  string
	CountryCode string
}

// Point returns the coordinate part of the location.
func (l Location) Point() Point {
	return Point{Lat: l.Lat, Lon: l.Lon}
}

// IsValid reports whether lat/lon lie within Earth bounds. NaN is never valid.
func IsValid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Valid reports whether the point lies within Earth bounds.
func (p Point) Valid() bool {
	return IsValid(p.Lat, p.Lon)
}

// Source identifies the upstream family serving parks and trails for a location.
type Source string

const (
	// SourceRegistry is the structured government park registry, keyed by region code.
	SourceRegistry Source = "REGISTRY"

	// SourceCommunityMap is the crowd-sourced map database, queried by radius.
	SourceCommunityMap Source = "COMMUNITY_MAP"
)

// SelectSource maps a country and region code to an upstream family.
//
// Canada always goes to the community map. Anything else with a US state code
// (or an explicit US country code) goes to the registry. Everything else falls
// back to the community map.
func SelectSource(countryCode, regionCode string) Source {
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	if country == "CA" {
		return SourceCommunityMap
	}
	if country == "US" || IsUSStateCode(regionCode) {
		return SourceRegistry
	}
	return SourceCommunityMap
}

// Package parks normalizes park and trail records from the registry and
// community map upstreams into one shape, and fans trail lookups out across
// the parks found near a location.
package parks

import (
	"strings"
	"unicode/utf8"

	"github.com/parkscout/parkscout/internal/geo"
)

// MaxParkCodeLen bounds codes derived from park names.
const MaxParkCodeLen = 10

// Park is a protected area near the queried location.
type Park struct {
	Name string

	// Code is the registry's park code, or a code derived from Name for
	// community map parks. Derived codes are not unique.
	Code string

	Latitude    float64
	Longitude   float64
	Description string

	// Source is the upstream family the park came from. Trails for the park
	// are fetched from the same family.
	Source geo.Source
}

// Point returns the park's coordinates.
func (p Park) Point() geo.Point {
	return geo.Point{Lat: p.Latitude, Lon: p.Longitude}
}

// Trail is a named route or activity inside or near a park.
type Trail struct {
	Title       string
	Tags        []string
	Description string
}

// HasTag reports whether the trail carries tag, ignoring case.
func (t Trail) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if strings.EqualFold(tg, tag) {
			return true
		}
	}
	return false
}

// IsHike reports whether the trail looks like a walk: tagged hiking or
// titled as a trail.
func (t Trail) IsHike() bool {
	return t.HasTag("hiking") || strings.Contains(strings.ToLower(t.Title), "trail")
}

// NewPark builds a park, reporting false when the name is blank or the
// coordinates are out of range.
func NewPark(name, code string, lat, lon float64, description string, source geo.Source) (Park, bool) {
	name = strings.TrimSpace(name)
	if name == "" || !geo.IsValid(lat, lon) {
		return Park{}, false
	}
	return Park{
		Name:        name,
		Code:        code,
		Latitude:    lat,
		Longitude:   lon,
		Description: description,
		Source:      source,
	}, true
}

// DeriveParkCode builds a short code from a park name: spaces and
// apostrophes removed, cut to MaxParkCodeLen runes, upper-cased.
func DeriveParkCode(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\'' {
			return -1
		}
		return r
	}, name)

	if utf8.RuneCountInString(stripped) > MaxParkCodeLen {
		stripped = string([]rune(stripped)[:MaxParkCodeLen])
	}
	return strings.ToUpper(stripped)
}

// TrailSet collects trails with unique, non-empty titles in insertion order,
// optionally up to a limit.
type TrailSet struct {
	limit  int
	seen   map[string]struct{}
	trails []Trail
}

// NewTrailSet returns a set holding at most limit trails. Zero or less means
// no limit.
func NewTrailSet(limit int) *TrailSet {
	return &TrailSet{limit: limit, seen: make(map[string]struct{})}
}

// Add appends t unless its title is blank or already present, or the set is
// full. It reports whether t was added.
func (s *TrailSet) Add(t Trail) bool {
	if s.Full() {
		return false
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return false
	}
	if _, dup := s.seen[t.Title]; dup {
		return false
	}
	s.seen[t.Title] = struct{}{}
	s.trails = append(s.trails, t)
	return true
}

// Full reports whether the limit has been reached.
func (s *TrailSet) Full() bool {
	return s.limit > 0 && len(s.trails) >= s.limit
}

// Len returns the number of trails held.
func (s *TrailSet) Len() int {
	return len(s.trails)
}

// Trails returns the collected trails.
func (s *TrailSet) Trails() []Trail {
	return s.trails
}

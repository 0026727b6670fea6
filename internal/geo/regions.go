package geo

import "strings"

// usStateCodes maps full state names (plus DC) to their two-letter codes.
// Read-only after init.
var usStateCodes = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID",
	"Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD",
	"Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS",
	"Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT",
	"Vermont": "VT", "Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY", "District of Columbia": "DC",
}

var usStateCodeSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(usStateCodes))
	for _, code := range usStateCodes {
		set[code] = struct{}{}
	}
	return set
}()

// IsUSStateCode reports whether code is one of the 50 state codes or DC.
// Matching is exact: the location collaborator reports upper-case codes.
func IsUSStateCode(code string) bool {
	_, ok := usStateCodeSet[code]
	return ok
}

// RegionCode converts a full US state name to its two-letter code.
// Anything else, including codes and non-US region names, is returned trimmed
// but otherwise unchanged.
func RegionCode(name string) string {
	name = strings.TrimSpace(name)
	if code, ok := usStateCodes[name]; ok {
		return code
	}
	return name
}

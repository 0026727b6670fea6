package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/geo"
)

// queryFloat reads a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, *models.FieldError) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, &models.FieldError{Field: name, Message: "is required", Code: "REQUIRED"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &models.FieldError{Field: name, Message: "must be a number", Code: "INVALID_NUMBER"}
	}
	return v, nil
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, *models.FieldError) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &models.FieldError{Field: name, Message: "must be true or false", Code: "INVALID_BOOLEAN"}
	}
	return v, nil
}

// parseCoordinates reads lat and lon. Range checks are left to the services
// so every caller goes through the same guard.
func parseCoordinates(r *http.Request) (float64, float64, []models.FieldError) {
	var errs []models.FieldError
	lat, ferr := queryFloat(r, "lat")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	lon, ferr := queryFloat(r, "lon")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	return lat, lon, errs
}

// parseLocation reads lat, lon and the optional region and country codes.
func parseLocation(r *http.Request) (geo.Location, []models.FieldError) {
	lat, lon, errs := parseCoordinates(r)
	q := r.URL.Query()
	return geo.Location{
		Lat:         lat,
		Lon:         lon,
		RegionCode:  strings.TrimSpace(q.Get("region")),
		CountryCode: strings.ToUpper(strings.TrimSpace(q.Get("country"))),
	}, errs
}

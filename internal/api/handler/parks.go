package handler

import (
	"context"
	"net/http"

	"github.com/parkscout/parkscout/internal/api/middleware"
	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/api/response"
	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks"
	"github.com/parkscout/parkscout/internal/provider"
)

// ParksService is the subset of parks.Service used by ParksHandler.
type ParksService interface {
	FetchParks(ctx context.Context, loc geo.Location) ([]parks.Park, error)
	Explore(ctx context.Context, loc geo.Location, opts parks.ExploreOptions) (*parks.Report, error)
}

// ParksHandler handles park and trail endpoints.
type ParksHandler struct {
	service ParksService
}

// NewParksHandler creates a new ParksHandler.
func NewParksHandler(service ParksService) *ParksHandler {
	return &ParksHandler{service: service}
}

// ListParks handles GET /v1/parks - parks near a location.
func (h *ParksHandler) ListParks(w http.ResponseWriter, r *http.Request) {
	loc, errs := parseLocation(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	outcome := middleware.OutcomeFrom(r.Context())
	outcome.SetSource(string(geo.SelectSource(loc.CountryCode, loc.RegionCode)))

	found, err := h.service.FetchParks(r.Context(), loc)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	resp := models.ParksResponse{
		Location: models.Point{Lat: loc.Lat, Lon: loc.Lon},
		Parks:    make([]models.Park, len(found)),
	}
	for i, p := range found {
		resp.Parks[i] = toParkModel(p)
		resp.Source = string(p.Source)
	}
	outcome.SetResults(len(found))
	response.JSON(w, r, http.StatusOK, resp)
}

// Explore handles GET /v1/explore - parks with their trails and a text digest.
func (h *ParksHandler) Explore(w http.ResponseWriter, r *http.Request) {
	loc, errs := parseLocation(r)
	hikes, ferr := queryBool(r, "hikesOnly")
	if ferr != nil {
		errs = append(errs, *ferr)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	outcome := middleware.OutcomeFrom(r.Context())
	outcome.SetSource(string(geo.SelectSource(loc.CountryCode, loc.RegionCode)))

	report, err := h.service.Explore(r.Context(), loc, parks.ExploreOptions{HikesOnly: hikes})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	outcome.SetResults(len(report.Parks))

	resp := models.ExploreResponse{
		Location:  models.Point{Lat: loc.Lat, Lon: loc.Lon},
		Source:    string(report.Source),
		HikesOnly: hikes,
		Parks:     make([]models.ParkWithTrails, len(report.Parks)),
		Digest:    parks.RenderDigest(report),
	}
	for i, pt := range report.Parks {
		entry := models.ParkWithTrails{
			Park:   toParkModel(pt.Park),
			Trails: make([]models.Trail, len(pt.Trails)),
		}
		for j, t := range pt.Trails {
			entry.Trails[j] = models.Trail{Title: t.Title, Tags: t.Tags, Description: t.Description}
		}
		if pt.TrailsErr != nil {
			entry.TrailsError = string(provider.Classify(pt.TrailsErr))
		}
		resp.Parks[i] = entry
	}
	response.JSON(w, r, http.StatusOK, resp)
}

func toParkModel(p parks.Park) models.Park {
	return models.Park{
		Name:        p.Name,
		Code:        p.Code,
		Location:    models.Point{Lat: p.Latitude, Lon: p.Longitude},
		Description: p.Description,
		Source:      string(p.Source),
	}
}

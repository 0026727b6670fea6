package handler

import (
	"context"
	"net/http"

	"github.com/parkscout/parkscout/internal/api/middleware"
	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/api/response"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/weather"
)

// forecastSource tags weather requests in logs, traces and metrics.
const forecastSource = "OPEN_METEO"

// WeatherService is the subset of weather.Service used by WeatherHandler.
type WeatherService interface {
	DaylightOutlook(ctx context.Context, lat, lon float64) (*weather.Outlook, error)
	DaylightSentence(ctx context.Context, lat, lon float64) (string, error)
}

// WeatherHandler handles forecast endpoints.
type WeatherHandler struct {
	service WeatherService
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(service WeatherService) *WeatherHandler {
	return &WeatherHandler{service: service}
}

// Daylight handles GET /v1/weather/daylight - today's daylight summary.
func (h *WeatherHandler) Daylight(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := parseCoordinates(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	outcome := middleware.OutcomeFrom(r.Context())
	outcome.SetSource(forecastSource)

	outlook, err := h.service.DaylightOutlook(r.Context(), lat, lon)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	s := outlook.Summary
	outcome.SetResults(s.SampleCount)
	response.JSON(w, r, http.StatusOK, models.DaylightResponse{
		Location:            models.Point{Lat: lat, Lon: lon},
		Date:                s.Date.Format("2006-01-02"),
		Description:         s.Description,
		WeatherCode:         s.WeatherCode,
		AvgTemperatureC:     s.AvgTemperatureC,
		MaxPrecipitationPct: s.MaxPrecipitationPct,
		SampleCount:         s.SampleCount,
		Sentence:            s.Render(),
		Sunrise:             models.TimestampPtr(&outlook.Sun.Sunrise),
		Sunset:              models.TimestampPtr(&outlook.Sun.Sunset),
	})
}

// Summary handles GET /v1/weather/summary - the one-sentence forecast.
// Upstream failures still answer 200 with the fallback sentence; only bad
// input is rejected.
func (h *WeatherHandler) Summary(w http.ResponseWriter, r *http.Request) {
	lat, lon, errs := parseCoordinates(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "invalid query parameters", errs)
		return
	}

	outcome := middleware.OutcomeFrom(r.Context())
	outcome.SetSource(forecastSource)

	sentence, err := h.service.DaylightSentence(r.Context(), lat, lon)
	kind := provider.Classify(err)
	if kind == provider.KindInvalidInput {
		response.FromError(w, r, err)
		return
	}
	// The fallback sentence still answers 200; the kind keeps the failure visible.
	outcome.SetFailureKind(string(kind))

	response.JSON(w, r, http.StatusOK, models.SummaryResponse{
		Location: models.Point{Lat: lat, Lon: lon},
		Sentence: sentence,
		Fallback: err != nil,
	})
}

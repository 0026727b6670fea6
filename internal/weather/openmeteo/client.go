// Package openmeteo fetches hourly forecasts from the Open-Meteo API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/provider/resilience"
	"github.com/parkscout/parkscout/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "open-meteo"

	// DefaultBaseURL is the Open-Meteo API base URL.
	DefaultBaseURL = "https://api.open-meteo.com/v1"

	// DefaultTimeout bounds a single forecast request.
	DefaultTimeout = 10 * time.Second

	hourlyFields = "temperature_2m,precipitation_probability,weathercode"

	// localTimeLayout is the ISO 8601 form Open-Meteo uses, without offset.
	localTimeLayout = "2006-01-02T15:04"
)

// ClientConfig holds configuration for the Open-Meteo client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to Open-Meteo).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-shot resilient client.
	HTTPClient *resilience.Client

	// Registry receives the default client when HTTPClient is nil. Optional.
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Open-Meteo API client.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new Open-Meteo client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.WithStateLogging(resilience.SingleShotConfig(ProviderName, DefaultTimeout), cfg.Logger)
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchHourly fetches the hourly forecast for a location. Times are local to
// the location.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64) (*weather.Series, error) {
	if !geo.IsValid(lat, lon) {
		return nil, provider.InvalidInputf("coordinates out of range: %f,%f", lat, lon)
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", hourlyFields)
	q.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", provider.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.Transportf("unexpected status code: %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", provider.ErrMalformedResponse, err)
	}

	return c.toSeries(lat, lon, &fr), nil
}

// toSeries zips the parallel hourly arrays by index. Arrays shorter than the
// time array leave the field nil; unparseable timestamps are skipped.
func (c *Client) toSeries(lat, lon float64, fr *forecastResponse) *weather.Series {
	loc := zoneFor(fr)

	h := fr.Hourly
	samples := make([]weather.HourlySample, 0, len(h.Time))
	skipped := 0
	for i, raw := range h.Time {
		t, err := parseTime(raw, loc)
		if err != nil {
			skipped++
			continue
		}

		sample := weather.HourlySample{Time: t}
		if i < len(h.Temperature) {
			sample.TemperatureC = h.Temperature[i]
		}
		if i < len(h.PrecipitationProbability) {
			sample.PrecipitationPct = roundPtr(h.PrecipitationProbability[i])
		}
		if i < len(h.WeatherCode) {
			sample.WeatherCode = roundPtr(h.WeatherCode[i])
		}
		samples = append(samples, sample)
	}

	if skipped > 0 {
		c.logger.Debug().
			Int("skipped", skipped).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("skipped unparseable forecast timestamps")
	}

	return &weather.Series{
		Lat:       lat,
		Lon:       lon,
		Location:  loc,
		Samples:   samples,
		FetchedAt: time.Now(),
	}
}

func zoneFor(fr *forecastResponse) *time.Location {
	if fr.UTCOffsetSeconds == 0 && (fr.Timezone == "" || fr.Timezone == "GMT" || fr.Timezone == "UTC") {
		return time.UTC
	}
	name := fr.TimezoneAbbreviation
	if name == "" {
		name = fr.Timezone
	}
	return time.FixedZone(name, fr.UTCOffsetSeconds)
}

// parseTime accepts local "2006-01-02T15:04" as well as RFC 3339 with an
// explicit offset or Z.
func parseTime(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.ParseInLocation(localTimeLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func roundPtr(v *float64) *int {
	if v == nil || math.IsNaN(*v) {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}

// API response types

type forecastResponse struct {
	Latitude             float64        `json:"latitude"`
	Longitude            float64        `json:"longitude"`
	UTCOffsetSeconds     int            `json:"utc_offset_seconds"`
	Timezone             string         `json:"timezone"`
	TimezoneAbbreviation string         `json:"timezone_abbreviation"`
	Hourly               hourlyResponse `json:"hourly"`
}

type hourlyResponse struct {
	Time                     []json.RawMessage `json:"time"`
	Temperature              []*float64        `json:"temperature_2m"`
	PrecipitationProbability []*float64        `json:"precipitation_probability"`
	WeatherCode              []*float64        `json:"weathercode"`
}

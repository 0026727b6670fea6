package weather

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/telemetry"
)

// Provider defines the interface for hourly forecast providers.
type Provider interface {
	// FetchHourly fetches the hourly forecast for a location.
	FetchHourly(ctx context.Context, lat, lon float64) (*Series, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the forecast provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls. Optional.
	Metrics *telemetry.ProviderMetrics

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Service fetches forecasts and reduces them to daylight summaries.
// Nothing is cached: every call goes to the provider.
type Service struct {
	provider Provider
	logger   zerolog.Logger
	metrics  *telemetry.ProviderMetrics
	now      func() time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		provider: cfg.Provider,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// FetchHourly returns the hourly forecast for a location. Invalid
// coordinates fail with provider.ErrInvalidInput before any provider call.
func (s *Service) FetchHourly(ctx context.Context, lat, lon float64) (*Series, error) {
	if !geo.IsValid(lat, lon) {
		return nil, provider.InvalidInputf("coordinates out of range: %f,%f", lat, lon)
	}

	s.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("provider", s.provider.Name()).
		Msg("fetching forecast from provider")

	start := time.Now()
	series, err := s.provider.FetchHourly(ctx, lat, lon)
	s.metrics.RecordRequest(ctx, s.provider.Name(), "hourly", time.Since(start), err)
	if err != nil {
		if provider.IsFailure(err) {
			s.logger.Warn().Err(err).
				Float64("lat", lat).
				Float64("lon", lon).
				Str("kind", string(provider.Classify(err))).
				Msg("failed to fetch forecast")
		}
		return nil, err
	}

	return series, nil
}

// DaylightOutlook fetches the forecast and summarizes today's daylight hours,
// where today is the current date at the forecast location.
func (s *Service) DaylightOutlook(ctx context.Context, lat, lon float64) (*Outlook, error) {
	series, err := s.FetchHourly(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	loc := series.Location
	if loc == nil {
		loc = time.UTC
	}
	today := s.now().In(loc)

	summary, err := Summarize(series, today)
	if err != nil {
		s.logger.Debug().
			Float64("lat", lat).
			Float64("lon", lon).
			Time("reference", today).
			Int("samples", len(series.Samples)).
			Msg("no daylight samples for today")
		return nil, err
	}

	return &Outlook{
		Lat:     lat,
		Lon:     lon,
		Summary: summary,
		Sun:     SunTimes(today, lat, lon),
	}, nil
}

// DaylightSentence is DaylightOutlook rendered as text. It never fails: any
// error yields FallbackMessage alongside the cause.
func (s *Service) DaylightSentence(ctx context.Context, lat, lon float64) (string, error) {
	outlook, err := s.DaylightOutlook(ctx, lat, lon)
	if err != nil {
		return FallbackMessage, err
	}
	return outlook.Summary.Render(), nil
}

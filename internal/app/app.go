// Package app builds the upstream clients and domain services from
// configuration. Both binaries share this wiring.
package app

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/config"
	"github.com/parkscout/parkscout/internal/parks"
	"github.com/parkscout/parkscout/internal/parks/nps"
	"github.com/parkscout/parkscout/internal/parks/overpass"
	"github.com/parkscout/parkscout/internal/provider/resilience"
	"github.com/parkscout/parkscout/internal/telemetry"
	"github.com/parkscout/parkscout/internal/weather"
	"github.com/parkscout/parkscout/internal/weather/openmeteo"
)

// Services holds the wired domain services and the health registry every
// upstream client reports to.
type Services struct {
	Parks    *parks.Service
	Weather  *weather.Service
	Registry *resilience.Registry
}

// NewServices creates the upstream clients and services. metrics may be nil.
func NewServices(cfg *config.Config, logger zerolog.Logger, metrics *telemetry.ProviderMetrics) *Services {
	registry := resilience.NewRegistry()

	registryClient := nps.NewClient(nps.ClientConfig{
		APIKey:   cfg.NPSAPIKey,
		BaseURL:  cfg.NPSBaseURL,
		Registry: registry,
		Logger:   logger.With().Str("provider", nps.ProviderName).Logger(),
	})
	if cfg.NPSAPIKey == "" {
		logger.Warn().Msg("NPS_API_KEY not set - US park lookups will be rejected")
	}

	communityClient := overpass.NewClient(overpass.ClientConfig{
		Mirrors:  cfg.OverpassMirrors,
		Registry: registry,
		Logger:   logger.With().Str("provider", overpass.ProviderName).Logger(),
	})

	forecastClient := openmeteo.NewClient(openmeteo.ClientConfig{
		BaseURL:  cfg.OpenMeteoBaseURL,
		Registry: registry,
		Logger:   logger.With().Str("provider", openmeteo.ProviderName).Logger(),
	})

	return &Services{
		Parks: parks.NewService(parks.ServiceConfig{
			Registry:    registryClient,
			Community:   communityClient,
			Logger:      logger,
			Metrics:     metrics,
			Concurrency: cfg.ExploreConcurrency,
		}),
		Weather: weather.NewService(weather.ServiceConfig{
			Provider: forecastClient,
			Logger:   logger,
			Metrics:  metrics,
		}),
		Registry: registry,
	}
}

// Upstreams names the endpoint each upstream family resolves to, with the
// client defaults filled in. It feeds the telemetry resource.
func Upstreams(cfg *config.Config) map[string]string {
	mirrors := cfg.OverpassMirrors
	if len(mirrors) == 0 {
		mirrors = overpass.DefaultMirrors
	}
	return map[string]string{
		"registry":      withDefault(cfg.NPSBaseURL, nps.DefaultBaseURL),
		"community_map": strings.Join(mirrors, ","),
		"forecast":      withDefault(cfg.OpenMeteoBaseURL, openmeteo.DefaultBaseURL),
	}
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

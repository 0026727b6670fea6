package parks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/telemetry"
)

const tracerName = "github.com/parkscout/parkscout/internal/parks"

// RegistryProvider serves parks keyed by region code and trails keyed by
// park code.
type RegistryProvider interface {
	FetchParks(ctx context.Context, regionCode string) ([]Park, error)
	FetchTrails(ctx context.Context, parkCode string) ([]Trail, error)
	Name() string
}

// CommunityProvider serves parks and trails by radius around a point.
type CommunityProvider interface {
	FetchParks(ctx context.Context, lat, lon float64, regionHint string) ([]Park, error)
	FetchTrails(ctx context.Context, lat, lon float64, parkName string) ([]Trail, error)
	Name() string
}

// ServiceConfig holds configuration for the parks service.
type ServiceConfig struct {
	Registry  RegistryProvider
	Community CommunityProvider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records provider calls. Optional.
	Metrics *telemetry.ProviderMetrics

	// Concurrency bounds parallel trail fetches in Explore (default: 4).
	Concurrency int
}

// Service routes park and trail lookups to the right upstream.
type Service struct {
	registry    RegistryProvider
	community   CommunityProvider
	logger      zerolog.Logger
	metrics     *telemetry.ProviderMetrics
	concurrency int
	tracer      trace.Tracer
}

// NewService creates a new parks service.
func NewService(cfg ServiceConfig) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Service{
		registry:    cfg.Registry,
		community:   cfg.Community,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		concurrency: concurrency,
		tracer:      otel.Tracer(tracerName),
	}
}

// FetchParks returns parks near loc from the upstream selected for its
// country and region. Invalid coordinates fail before any upstream call.
func (s *Service) FetchParks(ctx context.Context, loc geo.Location) ([]Park, error) {
	if !geo.IsValid(loc.Lat, loc.Lon) {
		return nil, provider.InvalidInputf("coordinates out of range: %f,%f", loc.Lat, loc.Lon)
	}

	region := geo.RegionCode(loc.RegionCode)
	source := geo.SelectSource(loc.CountryCode, region)

	var (
		parks []Park
		err   error
		name  string
	)
	start := time.Now()
	switch source {
	case geo.SourceRegistry:
		name = s.registry.Name()
		parks, err = s.registry.FetchParks(ctx, region)
	default:
		name = s.community.Name()
		parks, err = s.community.FetchParks(ctx, loc.Lat, loc.Lon, region)
	}
	s.metrics.RecordRequest(ctx, name, "parks", time.Since(start), err)

	if err == nil && len(parks) == 0 {
		err = fmt.Errorf("%w: no parks near %f,%f", provider.ErrEmptyResult, loc.Lat, loc.Lon)
	}
	if err != nil {
		s.logFailure(err, name, "parks").
			Float64("lat", loc.Lat).
			Float64("lon", loc.Lon).
			Str("region", region).
			Msg("park lookup returned nothing")
		return nil, err
	}

	s.logger.Debug().
		Str("provider", name).
		Str("source", string(source)).
		Int("count", len(parks)).
		Msg("fetched parks")

	return parks, nil
}

// FetchTrails returns trails for a park from the upstream the park came
// from. Community map trails are searched around the park itself.
func (s *Service) FetchTrails(ctx context.Context, park Park) ([]Trail, error) {
	var (
		trails []Trail
		err    error
		name   string
	)
	start := time.Now()
	switch park.Source {
	case geo.SourceRegistry:
		name = s.registry.Name()
		if park.Code == "" {
			return nil, provider.InvalidInputf("park %q has no code", park.Name)
		}
		trails, err = s.registry.FetchTrails(ctx, park.Code)
	case geo.SourceCommunityMap:
		name = s.community.Name()
		if !geo.IsValid(park.Latitude, park.Longitude) {
			return nil, provider.InvalidInputf("park %q coordinates out of range", park.Name)
		}
		trails, err = s.community.FetchTrails(ctx, park.Latitude, park.Longitude, park.Name)
	default:
		return nil, provider.InvalidInputf("park %q has unknown source %q", park.Name, park.Source)
	}
	s.metrics.RecordRequest(ctx, name, "trails", time.Since(start), err)

	if err == nil && len(trails) == 0 {
		err = fmt.Errorf("%w: no trails for %s", provider.ErrEmptyResult, park.Name)
	}
	if err != nil {
		s.logFailure(err, name, "trails").
			Str("park", park.Name).
			Str("park_code", park.Code).
			Msg("trail lookup returned nothing")
		return nil, err
	}

	return trails, nil
}

// ExploreOptions controls Explore.
type ExploreOptions struct {
	// HikesOnly keeps trails that look like walks and drops parks left
	// without any.
	HikesOnly bool
}

// ParkTrails is one park and the trails found for it.
type ParkTrails struct {
	Park   Park
	Trails []Trail

	// TrailsErr is set when the trail lookup failed. Empty results leave
	// it nil.
	TrailsErr error
}

// Report is the outcome of Explore.
type Report struct {
	Location geo.Location
	Source   geo.Source
	Parks    []ParkTrails
}

// Explore fetches parks near loc and then the trails of every park, in
// parallel, keeping park order. A failed trail lookup marks that park
// rather than failing the report.
func (s *Service) Explore(ctx context.Context, loc geo.Location, opts ExploreOptions) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "parks.Explore",
		trace.WithAttributes(
			attribute.Float64("geo.lat", loc.Lat),
			attribute.Float64("geo.lon", loc.Lon),
			attribute.Bool("parks.hikes_only", opts.HikesOnly),
		),
	)
	defer span.End()

	parks, err := s.FetchParks(ctx, loc)
	if err != nil {
		if provider.IsFailure(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	results := make([]ParkTrails, len(parks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, park := range parks {
		g.Go(func() error {
			trails, err := s.FetchTrails(gctx, park)
			results[i] = ParkTrails{Park: park, Trails: trails}
			if provider.IsFailure(err) {
				results[i].TrailsErr = err
			}
			return nil
		})
	}
	_ = g.Wait()

	if opts.HikesOnly {
		results = hikesOnly(results)
	}

	span.SetAttributes(
		attribute.Int("parks.count", len(parks)),
		attribute.Int("parks.reported", len(results)),
	)

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no parks with hiking trails", provider.ErrEmptyResult)
	}

	return &Report{
		Location: loc,
		Source:   parks[0].Source,
		Parks:    results,
	}, nil
}

func hikesOnly(in []ParkTrails) []ParkTrails {
	out := make([]ParkTrails, 0, len(in))
	for _, pt := range in {
		var hikes []Trail
		for _, t := range pt.Trails {
			if t.IsHike() {
				hikes = append(hikes, t)
			}
		}
		if len(hikes) == 0 {
			continue
		}
		pt.Trails = hikes
		out = append(out, pt)
	}
	return out
}

// logFailure logs real failures at warn and empty results at debug.
func (s *Service) logFailure(err error, providerName, operation string) *zerolog.Event {
	ev := s.logger.Debug()
	if provider.IsFailure(err) {
		ev = s.logger.Warn().Err(err)
	}
	return ev.
		Str("provider", providerName).
		Str("operation", operation).
		Str("kind", string(provider.Classify(err)))
}

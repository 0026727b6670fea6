// Package main provides the entrypoint for the ParkScout API server.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/api"
	"github.com/parkscout/parkscout/internal/api/middleware"
	"github.com/parkscout/parkscout/internal/app"
	"github.com/parkscout/parkscout/internal/config"
	"github.com/parkscout/parkscout/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "parkscout-api"

	cfg, cfgErr := config.Load()

	// JSON logs in production, human-readable ones everywhere else
	var out io.Writer = os.Stdout
	if cfgErr == nil && !cfg.IsProduction() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log := zerolog.New(out).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if cfgErr != nil {
		log.Fatal().Err(cfgErr).Msg("failed to load configuration")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Msg("starting ParkScout API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
		Upstreams:      app.Upstreams(cfg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.TraceSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	services := app.NewServices(cfg, log, providerMetrics)
	log.Info().
		Strs("upstreams", services.Registry.GetProviderNames()).
		Int("explore_concurrency", cfg.ExploreConcurrency).
		Msg("services initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		RequireTLS:     cfg.RequireTLS,
		ParksService:   services.Parks,
		WeatherService: services.Weather,
		Registry:       services.Registry,
	})

	// Explore can wait on a full mirror chain per park.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// Package api provides the HTTP API for ParkScout.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/api/handler"
	"github.com/parkscout/parkscout/internal/api/middleware"
	"github.com/parkscout/parkscout/internal/api/response"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	RequireTLS     bool
	ParksService   handler.ParksService
	WeatherService handler.WeatherService
	Registry       *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "parkscout-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))         // Structured logging
	r.Use(middleware.Recovery(cfg.Logger))       // Panic recovery
	r.Use(chimiddleware.RealIP)                  // Real IP extraction
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)

	exploreRateLimit := middleware.RateLimitByIP(middleware.ExploreRateLimit)
	lookupRateLimit := middleware.RateLimitByIP(middleware.LookupRateLimit)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no such endpoint")
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		if cfg.ParksService != nil {
			parksHandler := handler.NewParksHandler(cfg.ParksService)
			r.With(lookupRateLimit).Get("/parks", parksHandler.ListParks)
			r.With(exploreRateLimit).Get("/explore", parksHandler.Explore)
		}

		if cfg.WeatherService != nil {
			weatherHandler := handler.NewWeatherHandler(cfg.WeatherService)
			r.Route("/weather", func(r chi.Router) {
				r.Use(lookupRateLimit)
				r.Get("/daylight", weatherHandler.Daylight)
				r.Get("/summary", weatherHandler.Summary)
			})
		}
	})

	return r
}

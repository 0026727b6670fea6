// Package config loads process configuration from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the API server configuration.
type Config struct {
	Port        string
	Environment string

	OTelEnabled      bool
	OTLPEndpoint     string
	TraceSampleRatio float64

	// NPSAPIKey is only needed for registry lookups. An empty key makes those
	// lookups fail as invalid input.
	NPSAPIKey  string
	NPSBaseURL string

	// OverpassMirrors are tried in order. Empty means the built-in list.
	OverpassMirrors []string

	OpenMeteoBaseURL string

	// ExploreConcurrency bounds parallel trail lookups per request.
	ExploreConcurrency int

	RequireTLS bool
}

// Load reads configuration from the environment. Each file in envFiles (".env"
// when none are given) is loaded first if it exists; variables already set in
// the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:             getenvDefault("APP_PORT", "8080"),
		Environment:      getenvDefault("APP_ENV", "development"),
		OTLPEndpoint:     getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		NPSAPIKey:        strings.TrimSpace(os.Getenv("NPS_API_KEY")),
		NPSBaseURL:       os.Getenv("NPS_BASE_URL"),
		OverpassMirrors:  splitList(os.Getenv("OVERPASS_MIRRORS")),
		OpenMeteoBaseURL: os.Getenv("OPEN_METEO_BASE_URL"),
	}

	var err error
	if cfg.OTelEnabled, err = getenvBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.RequireTLS, err = getenvBool("REQUIRE_TLS", false); err != nil {
		return nil, err
	}
	if cfg.ExploreConcurrency, err = getenvInt("EXPLORE_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.ExploreConcurrency < 1 {
		return nil, fmt.Errorf("invalid EXPLORE_CONCURRENCY: must be at least 1, got %d", cfg.ExploreConcurrency)
	}
	if cfg.TraceSampleRatio, err = getenvFloat("OTEL_TRACES_SAMPLER_RATIO", 1); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Package main provides a one-shot command that prints the parks, trails and
// daylight forecast around a location.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/app"
	"github.com/parkscout/parkscout/internal/config"
	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks"
	"github.com/parkscout/parkscout/internal/provider"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, prints the report to stdout and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("parkscout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		lat     = fs.Float64("lat", 0, "Latitude of the search location")
		lon     = fs.Float64("lon", 0, "Longitude of the search location")
		region  = fs.String("region", "", "Region code or US state name, e.g. CA or California")
		country = fs.String("country", "", "ISO country code, e.g. US or CA")
		hikes   = fs.Bool("hikes", true, "Only list hiking trails and parks that have them")
		verbose = fs.Bool("v", false, "Log upstream calls to stderr")
		envFile = fs.String("env", ".env", "Optional .env file")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !isSet(fs, "lat") || !isSet(fs, "lon") {
		fmt.Fprintln(stderr, "both -lat and -lon are required")
		fs.PrintDefaults()
		return 2
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).
		Level(level).
		With().
		Timestamp().
		Str("version", Version).
		Logger()
	log.Debug().Str("build_time", BuildTime).Msg("starting parkscout")

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return 1
	}

	services := app.NewServices(cfg, log, nil)
	loc := geo.Location{Lat: *lat, Lon: *lon, RegionCode: *region, CountryCode: *country}

	report, err := services.Parks.Explore(ctx, loc, parks.ExploreOptions{HikesOnly: *hikes})
	switch {
	case errors.Is(err, provider.ErrEmptyResult):
		fmt.Fprintln(stdout, "No parks found near this location.")
	case err != nil:
		fmt.Fprintf(stderr, "could not look up parks: %v\n", err)
		if provider.Classify(err) == provider.KindInvalidInput {
			return 2
		}
		return 1
	default:
		fmt.Fprintf(stdout, "Parks near %.4f,%.4f (%s):\n", loc.Lat, loc.Lon, report.Source)
		fmt.Fprint(stdout, parks.RenderDigest(report))
	}

	sentence, err := services.Weather.DaylightSentence(ctx, *lat, *lon)
	if err != nil {
		log.Warn().Err(err).Str("kind", string(provider.Classify(err))).Msg("weather summary unavailable")
	}
	fmt.Fprintf(stdout, "\n%s\n", sentence)

	return 0
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

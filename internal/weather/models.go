package weather

import (
	"fmt"
	"time"

	"github.com/parkscout/parkscout/internal/provider"
)

// FallbackMessage is shown in place of a summary when none can be produced.
const FallbackMessage = "Could not get a weather summary for today's daylight hours."

// ErrNoDaylightSamples is returned when no sample survives the daylight filter.
var ErrNoDaylightSamples = fmt.Errorf("%w: no daylight samples for the reference date", provider.ErrEmptyResult)

// HourlySample is one hour of forecast. Nil fields were absent upstream.
type HourlySample struct {
	Time time.Time

	// Temperature in Celsius.
	TemperatureC *float64

	// Probability of precipitation (0-100).
	PrecipitationPct *int

	// WMO weather interpretation code.
	WeatherCode *int
}

// Series is an hourly forecast for one coordinate.
type Series struct {
	// Location coordinates
	Lat float64
	Lon float64

	// Location is the forecast's local zone. Sample times are expressed in it.
	Location *time.Location

	Samples []HourlySample

	// When the forecast was fetched
	FetchedAt time.Time
}

// DaylightSummary reduces one day's daylight hours to a few figures.
type DaylightSummary struct {
	Description string

	// WeatherCode is the most common code, nil when no codes were present.
	WeatherCode *int

	AvgTemperatureC     int
	MaxPrecipitationPct int

	// Date is midnight of the summarized day in the series location.
	Date time.Time

	// SampleCount is the number of hourly samples inside the window.
	SampleCount int
}

// Render returns the one-sentence forecast.
func (s *DaylightSummary) Render() string {
	return fmt.Sprintf("Today's forecast: %s, with an average temperature of %d°C and a maximum precipitation probability of %d%%.",
		s.Description, s.AvgTemperatureC, s.MaxPrecipitationPct)
}

// SunWindow holds sunrise and sunset for a day. Either may be zero in polar
// day or night.
type SunWindow struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Outlook is a daylight summary plus the sun times for the same day.
type Outlook struct {
	Lat     float64
	Lon     float64
	Summary *DaylightSummary
	Sun     SunWindow
}

package weather

import (
	"math"
	"time"
)

// Daylight window, inclusive, in local hours.
const (
	DaylightStartHour = 8
	DaylightEndHour   = 17
)

// Summarize reduces the samples falling on ref's calendar date, within the
// daylight window, to a DaylightSummary. Dates and hours are compared in each
// timestamp's own zone, so ref should be expressed in the series location.
//
// Returns ErrNoDaylightSamples when no sample in the window carries a
// temperature.
func Summarize(series *Series, ref time.Time) (*DaylightSummary, error) {
	if series == nil {
		return nil, ErrNoDaylightSamples
	}

	year, month, day := ref.Date()

	var (
		temps   []float64
		precips []int
		codes   []int
		inside  int
	)
	for _, s := range series.Samples {
		if s.Time.IsZero() {
			continue
		}
		y, m, d := s.Time.Date()
		if y != year || m != month || d != day {
			continue
		}
		if h := s.Time.Hour(); h < DaylightStartHour || h > DaylightEndHour {
			continue
		}
		inside++

		if s.TemperatureC != nil && !math.IsNaN(*s.TemperatureC) {
			temps = append(temps, *s.TemperatureC)
		}
		if s.PrecipitationPct != nil {
			precips = append(precips, *s.PrecipitationPct)
		}
		if s.WeatherCode != nil {
			codes = append(codes, *s.WeatherCode)
		}
	}

	if len(temps) == 0 {
		return nil, ErrNoDaylightSamples
	}

	summary := &DaylightSummary{
		Description:         UnknownWeather,
		AvgTemperatureC:     roundMean(temps),
		MaxPrecipitationPct: maxOrZero(precips),
		Date:                time.Date(year, month, day, 0, 0, 0, 0, ref.Location()),
		SampleCount:         inside,
	}
	if code, ok := mode(codes); ok {
		summary.WeatherCode = &code
		summary.Description = Describe(code)
	}

	return summary, nil
}

// roundMean rounds half to even.
func roundMean(values []float64) int {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return int(math.RoundToEven(sum / float64(len(values))))
}

func maxOrZero(values []int) int {
	out := 0
	for i, v := range values {
		if i == 0 || v > out {
			out = v
		}
	}
	return out
}

// mode returns the most frequent value. Ties go to the value seen first.
func mode(values []int) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}

	counts := make(map[int]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	for _, v := range values {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

package weather

import (
	"time"

	"github.com/sixdouglas/suncalc"
)

// SunTimes returns sunrise and sunset for day's calendar date at lat/lon,
// expressed in day's location. Times the calculation cannot produce (polar
// day or night) are left zero.
func SunTimes(day time.Time, lat, lon float64) SunWindow {
	y, m, d := day.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, day.Location())

	times := suncalc.GetTimes(noon, lat, lon)

	return SunWindow{
		Sunrise: sunTime(times["sunrise"].Value, noon),
		Sunset:  sunTime(times["sunset"].Value, noon),
	}
}

func sunTime(t, noon time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	// NaN hour angles come back as times far from the requested day.
	if d := t.Sub(noon); d < -24*time.Hour || d > 24*time.Hour {
		return time.Time{}
	}
	return t.In(noon.Location())
}

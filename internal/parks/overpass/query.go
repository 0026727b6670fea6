package overpass

import (
	"fmt"
	"strconv"
	"time"
)

// Search radii in meters.
const (
	ParkRadiusMeters  = 150000
	TrailRadiusMeters = 10000
)

// Per-attempt client timeouts and the server-side limits sent with each query.
const (
	ParkTimeout        = 15 * time.Second
	ParkServerTimeout  = 10 * time.Second
	TrailTimeout       = 12 * time.Second
	TrailServerTimeout = 8 * time.Second
)

// ParksQuery selects named national-park boundary relations around a point,
// with their computed centers.
func ParksQuery(lat, lon float64) string {
	around := aroundFilter(ParkRadiusMeters, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  relation["boundary"="national_park"]["name"]%s;
);
out center tags;`, int(ParkServerTimeout.Seconds()), around)
}

// TrailsQuery selects named hiking route relations and named path ways
// around a point.
func TrailsQuery(lat, lon float64) string {
	around := aroundFilter(TrailRadiusMeters, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  relation["route"="hiking"]["name"]%s;
  way["highway"="path"]["name"]%s;
);
out tags;`, int(TrailServerTimeout.Seconds()), around, around)
}

func aroundFilter(radius int, lat, lon float64) string {
	return fmt.Sprintf("(around:%d,%s,%s)", radius,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))
}

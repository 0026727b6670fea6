package models

// DaylightResponse is the response body of GET /v1/weather/daylight.
type DaylightResponse struct {
	Location            Point      `json:"location"`
	Date                string     `json:"date"`
	Description         string     `json:"description"`
	WeatherCode         *int       `json:"weatherCode,omitempty"`
	AvgTemperatureC     int        `json:"avgTemperatureC"`
	MaxPrecipitationPct int        `json:"maxPrecipitationPct"`
	SampleCount         int        `json:"sampleCount"`
	Sentence            string     `json:"sentence"`
	Sunrise             *Timestamp `json:"sunrise,omitempty"`
	Sunset              *Timestamp `json:"sunset,omitempty"`
}

// SummaryResponse is the response body of GET /v1/weather/summary.
type SummaryResponse struct {
	Location Point  `json:"location"`
	Sentence string `json:"sentence"`
	Fallback bool   `json:"fallback"`
}

package nps_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks/nps"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

const testKey = "test-key"

func newClient(url, key string) *nps.Client {
	return nps.NewClient(nps.ClientConfig{
		APIKey:     key,
		BaseURL:    url,
		HTTPClient: resilience.NewClient(resilience.SingleShotConfig("test", 2*time.Second)),
	})
}

func TestClient_FetchParks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/parks", r.URL.Path)
		assert.Equal(t, "WY", r.URL.Query().Get("stateCode"))
		assert.Equal(t, testKey, r.URL.Query().Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total": "4",
			"data": [
				{"fullName": "Yellowstone National Park", "parkCode": "yell",
				 "latitude": "44.59824417", "longitude": "-110.5471695",
				 "description": "Visit <b>Yellowstone</b> and experience the world's first national park.\n"},
				{"fullName": "Grand Teton National Park", "parkCode": "grte",
				 "latitude": 43.81853565, "longitude": -110.7054666, "description": "Rugged peaks."},
				{"fullName": "Fort Laramie National Historic Site", "parkCode": "fola",
				 "latitude": "", "longitude": "", "description": "No coordinates."},
				{"fullName": "Broken", "parkCode": "brok",
				 "latitude": "95.0", "longitude": "10.0"}
			]
		}`))
	}))
	defer server.Close()

	got, err := newClient(server.URL, testKey).FetchParks(context.Background(), "WY")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Yellowstone National Park", got[0].Name)
	assert.Equal(t, "yell", got[0].Code)
	assert.InDelta(t, 44.598, got[0].Latitude, 0.001)
	assert.InDelta(t, -110.547, got[0].Longitude, 0.001)
	assert.Equal(t, "Visit Yellowstone and experience the world's first national park.", got[0].Description)
	assert.Equal(t, geo.SourceRegistry, got[0].Source)

	assert.Equal(t, "grte", got[1].Code)
	assert.InDelta(t, 43.818, got[1].Latitude, 0.001)
}

func TestClient_FetchTrails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/thingstodo", r.URL.Path)
		assert.Equal(t, "yell", r.URL.Query().Get("parkCode"))
		assert.Equal(t, testKey, r.URL.Query().Get("api_key"))

		w.Write([]byte(`{"data": [
			{"title": "Hike to Fairy Falls", "tags": ["hiking", "waterfall"],
			 "shortDescription": "<p>A flat walk to a <a href=\"#\">200-foot</a> waterfall.</p>"},
			{"title": "Hike to Fairy Falls", "tags": ["hiking"], "shortDescription": "duplicate"},
			{"title": "", "tags": []},
			{"title": "Watch Old Faithful", "tags": ["geyser"], "description": "Plain text."}
		]}`))
	}))
	defer server.Close()

	got, err := newClient(server.URL, testKey).FetchTrails(context.Background(), "yell")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Hike to Fairy Falls", got[0].Title)
	assert.Equal(t, []string{"hiking", "waterfall"}, got[0].Tags)
	assert.Equal(t, "A flat walk to a 200-foot waterfall.", got[0].Description)
	assert.Equal(t, "Watch Old Faithful", got[1].Title)
	assert.Equal(t, "Plain text.", got[1].Description)
}

func TestClient_SkipsUndecodableItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/thingstodo":
			w.Write([]byte(`{"data": [
				{"title": "Bad Tags", "tags": "hiking"},
				{"title": 42, "tags": []},
				"not an object",
				{"title": "Lone Star Geyser Trail", "tags": ["hiking"]}
			]}`))
		case "/parks":
			w.Write([]byte(`{"data": [
				{"fullName": ["array"], "parkCode": "bad"},
				{"fullName": "Zion National Park", "parkCode": "zion", "latitude": "37.29", "longitude": "-113.04"}
			]}`))
		}
	}))
	defer server.Close()

	client := newClient(server.URL, testKey)

	trails, err := client.FetchTrails(context.Background(), "yell")
	require.NoError(t, err)
	require.Len(t, trails, 1)
	assert.Equal(t, "Lone Star Geyser Trail", trails[0].Title)

	parks, err := client.FetchParks(context.Background(), "UT")
	require.NoError(t, err)
	require.Len(t, parks, 1)
	assert.Equal(t, "zion", parks[0].Code)
}

func TestClient_MissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newClient(server.URL, "  ")

	_, err := client.FetchParks(context.Background(), "CA")
	assert.ErrorIs(t, err, nps.ErrMissingAPIKey)
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	_, err = client.FetchTrails(context.Background(), "yose")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_EmptyArguments(t *testing.T) {
	client := newClient("http://127.0.0.1:1", testKey)

	_, err := client.FetchParks(context.Background(), "")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	_, err = client.FetchTrails(context.Background(), " ")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected error
	}{
		{"forbidden", http.StatusForbidden, `{"error":{"code":"API_KEY_INVALID"}}`, provider.ErrTransport},
		{"server error", http.StatusBadGateway, ``, provider.ErrTransport},
		{"html body", http.StatusOK, `<html>maintenance</html>`, provider.ErrMalformedResponse},
		{"wrong shape", http.StatusOK, `{"data": {"fullName": "x"}}`, provider.ErrMalformedResponse},
		{"empty data", http.StatusOK, `{"data": []}`, provider.ErrEmptyResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := newClient(server.URL, testKey).FetchParks(context.Background(), "UT")
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.expected)
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestClient_TransportErrorDoesNotLeakKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	registry := resilience.NewRegistry()
	rc := resilience.SingleShotConfig(nps.ProviderName, time.Second)
	rc.Registry = registry
	client := nps.NewClient(nps.ClientConfig{
		APIKey:     "super-secret",
		BaseURL:    url,
		HTTPClient: resilience.NewClient(rc),
	})

	_, err := client.FetchParks(context.Background(), "WY")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransport)
	assert.False(t, strings.Contains(err.Error(), "super-secret"))

	health := registry.GetHealth(nps.ProviderName)
	require.NotNil(t, health)
	assert.NotEmpty(t, health.LastError)
	assert.False(t, strings.Contains(health.LastError, "super-secret"))
}

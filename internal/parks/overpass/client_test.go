package overpass_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks/overpass"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

// mirrorLog records the order in which mirrors are hit.
type mirrorLog struct {
	mu    sync.Mutex
	order []string
}

func (l *mirrorLog) hit(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = append(l.order, name)
}

func (l *mirrorLog) hits() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func newMirror(t *testing.T, name string, log *mirrorLog, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.hit(name)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server.URL + "/api/interpreter"
}

func failing(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}
}

func serving(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func unreachable(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	u := server.URL + "/api/interpreter"
	server.Close()
	return u
}

const parksBody = `{"elements": [
	{"type": "relation", "id": 1, "center": {"lat": 51.17, "lon": -115.57}, "tags": {"name": "Banff National Park", "wikipedia": "en:Banff National Park"}},
	{"type": "node", "id": 2, "lat": 52.87, "lon": -117.95, "tags": {"name": "Jasper National Park", "description": "Largest in the Rockies"}},
	{"type": "relation", "id": 3, "center": {"lat": 50.0, "lon": -116.0}, "tags": {}},
	{"type": "relation", "id": 4, "tags": {"name": "No Coordinates"}},
	{"type": "relation", "id": 5, "center": {"lat": 95.0, "lon": -116.0}, "tags": {"name": "Off The Globe"}},
	{"type": "relation", "id": 6, "center": {"lat": "bad"}, "tags": {"name": "Broken Element"}},
	"not an object",
	{"type": "relation", "id": 7, "center": {"lat": 51.0}, "lat": 50.0, "lon": -115.0, "tags": {"name": "Half Center"}}
]}`

func TestClient_FetchParks_Normalizes(t *testing.T) {
	log := &mirrorLog{}
	var form string
	m := newMirror(t, "a", log, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		form = r.PostForm.Get("data")
		serving(parksBody)(w, r)
	})

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{m}})
	got, err := client.FetchParks(context.Background(), 51.0, -115.0, "AB")
	require.NoError(t, err)

	assert.Equal(t, overpass.ParksQuery(51.0, -115.0), form)
	assert.Contains(t, form, `relation["boundary"="national_park"]["name"](around:150000,51,-115);`)
	assert.Contains(t, form, `[out:json][timeout:10];`)
	assert.Contains(t, form, `out center tags;`)

	require.Len(t, got, 2)

	assert.Equal(t, "Banff National Park", got[0].Name)
	assert.Equal(t, "BANFFNATIO", got[0].Code)
	assert.Equal(t, 51.17, got[0].Latitude)
	assert.Equal(t, -115.57, got[0].Longitude)
	assert.Equal(t, "en:Banff National Park", got[0].Description)

	assert.Equal(t, "Jasper National Park", got[1].Name)
	assert.Equal(t, 52.87, got[1].Latitude)
	assert.Equal(t, "Largest in the Rockies", got[1].Description)

	for _, p := range got {
		assert.NotEmpty(t, p.Name)
		assert.True(t, geo.IsValid(p.Latitude, p.Longitude))
		assert.Equal(t, geo.SourceCommunityMap, p.Source)
	}
}

func TestClient_FetchTrails_FilterDedupCap(t *testing.T) {
	elements := make([]map[string]any, 0, 40)
	// Noise that must not count toward the cap.
	elements = append(elements,
		map[string]any{"type": "way", "tags": map[string]string{"name": "Main Street"}},
		map[string]any{"type": "way", "tags": map[string]string{}},
	)
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("Ridge Trail %02d", i)
		elements = append(elements, map[string]any{"type": "way", "tags": map[string]string{"name": name, "description": "d" + name}})
		if i%5 == 0 {
			// Duplicate right after the original.
			elements = append(elements, map[string]any{"type": "relation", "tags": map[string]string{"name": name}})
		}
	}
	body, err := json.Marshal(map[string]any{"elements": elements})
	require.NoError(t, err)

	log := &mirrorLog{}
	var form string
	m := newMirror(t, "a", log, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm.Get("data")
		serving(string(body))(w, r)
	})

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{m}})
	got, err := client.FetchTrails(context.Background(), 51.17, -115.57, "Banff National Park")
	require.NoError(t, err)

	assert.Contains(t, form, `relation["route"="hiking"]["name"](around:10000,51.17,-115.57);`)
	assert.Contains(t, form, `way["highway"="path"]["name"](around:10000,51.17,-115.57);`)
	assert.Contains(t, form, `[out:json][timeout:8];`)

	require.Len(t, got, overpass.MaxTrails)
	seen := map[string]bool{}
	for i, tr := range got {
		assert.Equal(t, fmt.Sprintf("Ridge Trail %02d", i), tr.Title)
		assert.Equal(t, []string{"hiking", "trail"}, tr.Tags)
		assert.Equal(t, "d"+tr.Title, tr.Description)
		assert.False(t, seen[tr.Title])
		seen[tr.Title] = true
	}
}

func TestClient_FetchTrails_KeywordFilter(t *testing.T) {
	log := &mirrorLog{}
	m := newMirror(t, "a", log, serving(`{"elements": [
		{"tags": {"name": "Lake Agnes TRAIL"}},
		{"tags": {"name": "Sulphur Mountain Hike"}},
		{"tags": {"name": "Johnston Canyon Loop"}},
		{"tags": {"name": "Old Fire Track"}},
		{"tags": {"name": "Hiking Path 7"}},
		{"tags": {"name": "Plain Ridge Walk"}},
		{"tags": {"name": "Bow River"}}
	]}`))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{m}})
	got, err := client.FetchTrails(context.Background(), 51.17, -115.57, "Banff")
	require.NoError(t, err)

	titles := make([]string, 0, len(got))
	for _, tr := range got {
		titles = append(titles, tr.Title)
	}
	assert.Equal(t, []string{
		"Lake Agnes TRAIL", "Sulphur Mountain Hike", "Johnston Canyon Loop", "Old Fire Track", "Hiking Path 7",
	}, titles)
}

func TestClient_MirrorFallback(t *testing.T) {
	tests := []struct {
		name      string
		failing   int
		total     int
		wantHits  int
		wantError error
	}{
		{"first succeeds", 0, 3, 1, nil},
		{"second succeeds", 1, 3, 2, nil},
		{"last succeeds", 2, 3, 3, nil},
		{"all fail", 3, 3, 3, provider.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mirrorLog{}
			var mirrors, names []string
			for i := 0; i < tt.total; i++ {
				name := fmt.Sprintf("m%d", i)
				names = append(names, name)
				handler := serving(parksBody)
				if i < tt.failing {
					handler = failing(http.StatusGatewayTimeout)
				}
				mirrors = append(mirrors, newMirror(t, name, log, handler))
			}

			client := overpass.NewClient(overpass.ClientConfig{Mirrors: mirrors})
			got, err := client.FetchParks(context.Background(), 51.0, -115.0, "")

			assert.Equal(t, names[:tt.wantHits], log.hits(), "mirrors tried in order, each once")
			if tt.wantError != nil {
				assert.Nil(t, got)
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})
	}
}

func TestClient_MirrorFallback_ConnectionRefused(t *testing.T) {
	log := &mirrorLog{}
	ok := newMirror(t, "ok", log, serving(parksBody))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{unreachable(t), ok}})
	got, err := client.FetchParks(context.Background(), 51.0, -115.0, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"ok"}, log.hits())
}

func TestClient_EmptyResultDoesNotAdvance(t *testing.T) {
	log := &mirrorLog{}
	a := newMirror(t, "a", log, serving(`{"elements": []}`))
	b := newMirror(t, "b", log, serving(parksBody))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}})
	got, err := client.FetchParks(context.Background(), 51.0, -115.0, "")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, provider.ErrEmptyResult)
	assert.False(t, provider.IsFailure(err))
	assert.Equal(t, []string{"a"}, log.hits())
}

func TestClient_MalformedBodyAdvances(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"html error page", `<html>rate limited</html>`},
		{"xml", `<?xml version="1.0"?><osm/>`},
		{"truncated json", `{"elements": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mirrorLog{}
			a := newMirror(t, "a", log, serving(tt.body))
			b := newMirror(t, "b", log, serving(parksBody))

			client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}})
			got, err := client.FetchParks(context.Background(), 51.0, -115.0, "")
			require.NoError(t, err)

			assert.Len(t, got, 2)
			assert.Equal(t, []string{"a", "b"}, log.hits())
		})
	}
}

func TestClient_AllMirrorsMalformed(t *testing.T) {
	log := &mirrorLog{}
	a := newMirror(t, "a", log, serving(`<html>busy</html>`))
	b := newMirror(t, "b", log, serving(`not json`))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}})
	got, err := client.FetchTrails(context.Background(), 51.0, -115.0, "Banff")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
	assert.Equal(t, provider.KindMalformedResponse, provider.Classify(err))
	assert.Equal(t, []string{"a", "b"}, log.hits())
}

func TestClient_MixedMirrorFailuresAreTransport(t *testing.T) {
	log := &mirrorLog{}
	a := newMirror(t, "a", log, serving(`<html>busy</html>`))
	b := newMirror(t, "b", log, failing(http.StatusBadGateway))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}})
	_, err := client.FetchParks(context.Background(), 51.0, -115.0, "")

	assert.Equal(t, provider.KindTransport, provider.Classify(err))
	assert.Equal(t, []string{"a", "b"}, log.hits())
}

func TestClient_RepeatedFailuresStillTryEveryMirror(t *testing.T) {
	log := &mirrorLog{}
	a := newMirror(t, "a", log, failing(http.StatusBadGateway))
	b := newMirror(t, "b", log, serving(parksBody))

	registry := resilience.NewRegistry()
	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}, Registry: registry})

	const calls = 8
	var want []string
	for i := 0; i < calls; i++ {
		got, err := client.FetchParks(context.Background(), 51.0, -115.0, "")
		require.NoError(t, err, "call %d", i)
		assert.Len(t, got, 2)
		want = append(want, "a", "b")
	}

	assert.Equal(t, want, log.hits(), "each call makes exactly two attempts, in order")

	health := registry.GetHealth(overpass.MirrorName(a))
	require.NotNil(t, health)
	assert.True(t, health.IsUnhealthy(), "failing mirror still reported as down")
}

func TestClient_InvalidCoordinates(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{server.URL}})

	_, err := client.FetchParks(context.Background(), 90.5, 0, "")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)
	_, err = client.FetchTrails(context.Background(), 0, 200, "x")
	assert.ErrorIs(t, err, provider.ErrInvalidInput)

	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_CanceledContext(t *testing.T) {
	log := &mirrorLog{}
	a := newMirror(t, "a", log, serving(parksBody))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a}})
	_, err := client.FetchParks(ctx, 51.0, -115.0, "")
	assert.ErrorIs(t, err, provider.ErrTransport)
	assert.Empty(t, log.hits())
}

func TestClient_RegistersEachMirror(t *testing.T) {
	registry := resilience.NewRegistry()
	log := &mirrorLog{}
	a := newMirror(t, "a", log, failing(http.StatusServiceUnavailable))
	b := newMirror(t, "b", log, serving(parksBody))

	client := overpass.NewClient(overpass.ClientConfig{Mirrors: []string{a, b}, Registry: registry})
	_, err := client.FetchParks(context.Background(), 51.0, -115.0, "")
	require.NoError(t, err)

	assert.Equal(t, 2, registry.ProviderCount())

	ha := registry.GetHealth(overpass.MirrorName(a))
	require.NotNil(t, ha)
	assert.NotNil(t, ha.LastFailureAt)
	assert.Nil(t, ha.LastSuccessAt)

	hb := registry.GetHealth(overpass.MirrorName(b))
	require.NotNil(t, hb)
	assert.NotNil(t, hb.LastSuccessAt)
}

func TestMirrorName(t *testing.T) {
	assert.Equal(t, "overpass:overpass-api.de", overpass.MirrorName("https://overpass-api.de/api/interpreter"))
	assert.Equal(t, "overpass:not a url", overpass.MirrorName("not a url"))
}

func TestQueries(t *testing.T) {
	parks := overpass.ParksQuery(43.6532, -79.3832)
	assert.True(t, strings.HasPrefix(parks, "[out:json][timeout:10];"))
	assert.Contains(t, parks, "(around:150000,43.6532,-79.3832)")

	trails := overpass.TrailsQuery(-33.5, 151)
	assert.True(t, strings.HasPrefix(trails, "[out:json][timeout:8];"))
	assert.Equal(t, 2, strings.Count(trails, "(around:10000,-33.5,151)"))
	assert.True(t, strings.HasSuffix(trails, "out tags;"))
}

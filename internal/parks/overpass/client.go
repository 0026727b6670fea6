// Package overpass reads parks and trails from OpenStreetMap through the
// Overpass API, trying an ordered list of mirrors.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

const (
	// ProviderName identifies this park provider.
	ProviderName = "overpass"

	// MaxTrails caps the trails returned for one park.
	MaxTrails = 20

	userAgent = "parkscout/1.0"
)

// DefaultMirrors are tried in order.
var DefaultMirrors = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
}

// trailKeywords filters noisy path names down to likely trails.
var trailKeywords = []string{"trail", "hiking", "hike", "loop", "track"}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// Mirrors are interpreter endpoints, tried in order (optional, defaults
	// to DefaultMirrors).
	Mirrors []string

	// Registry receives one client per mirror. Optional.
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

type mirror struct {
	url    string
	client *resilience.Client
}

// Client is an Overpass API client.
type Client struct {
	mirrors []mirror
	logger  zerolog.Logger
}

// NewClient creates a new Overpass client with one breaker per mirror.
func NewClient(cfg ClientConfig) *Client {
	urls := cfg.Mirrors
	if len(urls) == 0 {
		urls = DefaultMirrors
	}

	mirrors := make([]mirror, 0, len(urls))
	for _, u := range urls {
		rc := resilience.SingleShotConfig(MirrorName(u), ParkTimeout)
		rc = resilience.WithStateLogging(rc, cfg.Logger)
		rc.Registry = cfg.Registry
		mirrors = append(mirrors, mirror{url: u, client: resilience.NewClient(rc)})
	}

	return &Client{
		mirrors: mirrors,
		logger:  cfg.Logger,
	}
}

// MirrorName is the health registry name for a mirror URL.
func MirrorName(mirrorURL string) string {
	host := mirrorURL
	if u, err := url.Parse(mirrorURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return ProviderName + ":" + host
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchParks returns named national parks within 150 km of a point.
func (c *Client) FetchParks(ctx context.Context, lat, lon float64, regionHint string) ([]parks.Park, error) {
	if !geo.IsValid(lat, lon) {
		return nil, provider.InvalidInputf("coordinates out of range: %f,%f", lat, lon)
	}

	elements, err := c.query(ctx, ParksQuery(lat, lon), ParkTimeout)
	if err != nil {
		return nil, err
	}

	out := make([]parks.Park, 0, len(elements))
	for _, el := range elements {
		name := el.Tags["name"]
		elLat, elLon, ok := el.coordinates()
		if name == "" || !ok {
			continue
		}
		park, ok := parks.NewPark(name, parks.DeriveParkCode(name), elLat, elLon, el.description(), geo.SourceCommunityMap)
		if !ok {
			continue
		}
		out = append(out, park)
	}

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Str("region", regionHint).
		Int("elements", len(elements)).
		Int("parks", len(out)).
		Msg("normalized overpass parks")

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no national parks within %d m", provider.ErrEmptyResult, ParkRadiusMeters)
	}
	return out, nil
}

// FetchTrails returns up to MaxTrails named trails within 10 km of a park.
// Names must contain a trail keyword.
func (c *Client) FetchTrails(ctx context.Context, lat, lon float64, parkName string) ([]parks.Trail, error) {
	if !geo.IsValid(lat, lon) {
		return nil, provider.InvalidInputf("coordinates out of range: %f,%f", lat, lon)
	}

	elements, err := c.query(ctx, TrailsQuery(lat, lon), TrailTimeout)
	if err != nil {
		return nil, err
	}

	set := parks.NewTrailSet(MaxTrails)
	for _, el := range elements {
		name := el.Tags["name"]
		if !looksLikeTrail(name) {
			continue
		}
		set.Add(parks.Trail{
			Title:       name,
			Tags:        []string{"hiking", "trail"},
			Description: el.Tags["description"],
		})
		if set.Full() {
			break
		}
	}

	c.logger.Debug().
		Str("park", parkName).
		Int("elements", len(elements)).
		Int("trails", set.Len()).
		Msg("normalized overpass trails")

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: no named trails near %s", provider.ErrEmptyResult, parkName)
	}
	return set.Trails(), nil
}

func looksLikeTrail(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range trailKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// query runs q against each mirror in order until one answers with a
// decodable body. Unreachable mirrors and unusable bodies move on to the next
// mirror; an empty but valid answer ends the search.
func (c *Client) query(ctx context.Context, q string, timeout time.Duration) ([]element, error) {
	var errs []error
	malformed := 0
	for i, m := range c.mirrors {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		elements, err := c.attempt(ctx, m, q, timeout)
		if err == nil {
			return elements, nil
		}
		if errors.Is(err, provider.ErrMalformedResponse) {
			malformed++
		}

		c.logger.Debug().Err(err).
			Str("mirror", m.url).
			Str("failure_kind", string(provider.Classify(err))).
			Int("attempt", i+1).
			Int("mirrors", len(c.mirrors)).
			Msg("overpass mirror failed")
		errs = append(errs, err)
	}

	kind := provider.ErrTransport
	if malformed > 0 && malformed == len(errs) {
		kind = provider.ErrMalformedResponse
	}
	err := fmt.Errorf("%w: all %d overpass mirrors failed: %w", kind, len(c.mirrors), errors.Join(errs...))
	c.logger.Warn().Err(err).Msg("overpass unavailable")
	return nil, err
}

// attempt posts q to one mirror and decodes the element list.
func (c *Client) attempt(ctx context.Context, m mirror, q string, timeout time.Duration) ([]element, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", provider.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing request: %w", provider.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, provider.Transportf("unexpected status code: %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if ctx.Err() != nil {
			// Timed out mid-body.
			return nil, fmt.Errorf("%w: reading response: %w", provider.ErrTransport, err)
		}
		return nil, fmt.Errorf("%w: decoding response: %w", provider.ErrMalformedResponse, err)
	}

	if body.Remark != "" {
		// Overpass reports server-side timeouts here with a 200 and partial data.
		c.logger.Warn().Str("mirror", m.url).Str("remark", body.Remark).Msg("overpass remark")
	}

	elements := make([]element, 0, len(body.Elements))
	skipped := 0
	for _, raw := range body.Elements {
		var el element
		if err := json.Unmarshal(raw, &el); err != nil {
			skipped++
			continue
		}
		elements = append(elements, el)
	}
	if skipped > 0 {
		c.logger.Debug().Int("skipped", skipped).Str("mirror", m.url).Msg("skipped malformed overpass elements")
	}

	return elements, nil
}

// API response types

type response struct {
	Remark   string            `json:"remark"`
	Elements []json.RawMessage `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// coordinates prefers the computed center over the element's own point.
func (e element) coordinates() (lat, lon float64, ok bool) {
	if e.Center != nil {
		if e.Center.Lat != nil && e.Center.Lon != nil {
			return *e.Center.Lat, *e.Center.Lon, true
		}
		return 0, 0, false
	}
	if e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	return 0, 0, false
}

func (e element) description() string {
	if d := e.Tags["description"]; d != "" {
		return d
	}
	return e.Tags["wikipedia"]
}

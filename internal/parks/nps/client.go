// Package nps reads parks and things to do from the National Park Service API.
package nps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/geo"
	"github.com/parkscout/parkscout/internal/parks"
	"github.com/parkscout/parkscout/internal/provider"
	"github.com/parkscout/parkscout/internal/provider/resilience"
)

const (
	// ProviderName identifies this park provider.
	ProviderName = "nps"

	// DefaultBaseURL is the NPS API base URL.
	DefaultBaseURL = "https://developer.nps.gov/api/v1"

	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
)

// ErrMissingAPIKey is returned, before any request, when no key is configured.
var ErrMissingAPIKey = fmt.Errorf("%w: NPS API key not configured", provider.ErrInvalidInput)

// ClientConfig holds configuration for the NPS client.
type ClientConfig struct {
	// APIKey is the NPS API key. Required for every call.
	APIKey string

	// BaseURL is the API base URL (optional, defaults to the NPS API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a single-shot resilient client.
	HTTPClient *resilience.Client

	// Registry receives the default client when HTTPClient is nil. Optional.
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an NPS API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new NPS client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.WithStateLogging(resilience.SingleShotConfig(ProviderName, DefaultTimeout), cfg.Logger)
		rc.Registry = cfg.Registry
		httpClient = resilience.NewClient(rc)
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchParks returns the parks in a state. Records with unusable coordinates
// are dropped.
func (c *Client) FetchParks(ctx context.Context, regionCode string) ([]parks.Park, error) {
	regionCode = strings.TrimSpace(regionCode)
	if regionCode == "" {
		return nil, provider.InvalidInputf("state code required")
	}

	items, err := c.get(ctx, "/parks", url.Values{"stateCode": {regionCode}})
	if err != nil {
		return nil, err
	}

	out := make([]parks.Park, 0, len(items))
	dropped := 0
	for _, raw := range items {
		var p parkData
		if err := json.Unmarshal(raw, &p); err != nil {
			dropped++
			continue
		}
		if !p.Latitude.ok || !p.Longitude.ok {
			dropped++
			continue
		}
		park, ok := parks.NewPark(p.FullName, p.ParkCode, p.Latitude.v, p.Longitude.v, plainText(p.Description), geo.SourceRegistry)
		if !ok {
			dropped++
			continue
		}
		out = append(out, park)
	}

	if dropped > 0 {
		c.logger.Debug().
			Str("state_code", regionCode).
			Int("dropped", dropped).
			Msg("dropped parks without usable name or coordinates")
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no parks for state %s", provider.ErrEmptyResult, regionCode)
	}
	return out, nil
}

// FetchTrails returns the things to do for a park, unique by title.
func (c *Client) FetchTrails(ctx context.Context, parkCode string) ([]parks.Trail, error) {
	parkCode = strings.TrimSpace(parkCode)
	if parkCode == "" {
		return nil, provider.InvalidInputf("park code required")
	}

	items, err := c.get(ctx, "/thingstodo", url.Values{"parkCode": {parkCode}})
	if err != nil {
		return nil, err
	}

	set := parks.NewTrailSet(0)
	for _, raw := range items {
		var t thingToDoData
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		set.Add(parks.Trail{
			Title:       t.Title,
			Tags:        t.Tags,
			Description: plainText(firstNonEmpty(t.Description, t.ShortDescription, t.LongDescription)),
		})
	}

	if skipped := len(items) - set.Len(); skipped > 0 {
		c.logger.Debug().
			Str("park_code", parkCode).
			Int("skipped", skipped).
			Msg("skipped malformed, untitled or duplicate things to do")
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("%w: no things to do for park %s", provider.ErrEmptyResult, parkCode)
	}
	return set.Trails(), nil
}

// get issues one GET and returns the raw items of a 2xx body's data array.
// Items are decoded by the caller so one bad record cannot sink the rest.
func (c *Client) get(ctx context.Context, path string, q url.Values) ([]json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = redact(err, c.apiKey)
		c.logger.Warn().Err(err).Str("path", path).Msg("nps request failed")
		return nil, fmt.Errorf("%w: executing request: %w", provider.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("nps returned error status")
		return nil, provider.Transportf("unexpected status code: %d", resp.StatusCode)
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("nps returned undecodable body")
		return nil, fmt.Errorf("%w: decoding response: %w", provider.ErrMalformedResponse, err)
	}
	return body.Data, nil
}

// redact drops the API key from transport errors, which quote the URL.
func redact(err error, key string) error {
	var ue *url.Error
	if key == "" || !errors.As(err, &ue) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}

// plainText reduces an HTML fragment to whitespace-normalized text.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// API response types

type envelope struct {
	Data []json.RawMessage `json:"data"`
}

type parkData struct {
	FullName    string     `json:"fullName"`
	ParkCode    string     `json:"parkCode"`
	Latitude    coordinate `json:"latitude"`
	Longitude   coordinate `json:"longitude"`
	Description string     `json:"description"`
}

type thingToDoData struct {
	Title            string   `json:"title"`
	Tags             []string `json:"tags"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription"`
	LongDescription  string   `json:"longDescription"`
}

// coordinate decodes the NPS latitude/longitude fields, which arrive as
// strings (possibly empty) and occasionally as numbers.
type coordinate struct {
	v  float64
	ok bool
}

func (c *coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		// Blank or junk coordinates drop the record, not the response.
		return nil
	}
	c.v, c.ok = v, true
	return nil
}

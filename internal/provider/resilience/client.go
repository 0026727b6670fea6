package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client for circuit breaker naming and health reporting.
	Name string

	// Timeout is the request timeout for individual HTTP calls.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts after the first call.
	// Zero disables retries; DefaultClientConfig uses 3.
	MaxRetries uint64

	// InitialInterval is the initial retry backoff interval.
	// Default: 100ms
	InitialInterval time.Duration

	// MaxInterval is the maximum retry backoff interval.
	// Default: 5 seconds
	MaxInterval time.Duration

	// CircuitBreaker is the circuit breaker configuration.
	// If nil, uses DefaultCircuitBreakerConfig.
	CircuitBreaker *CircuitBreakerConfig

	// Registry, when set, receives the client on construction and every
	// call outcome afterwards.
	Registry *Registry

	// ObserveOnly keeps the breaker for health reporting but never lets an
	// open circuit short-circuit a request.
	ObserveOnly bool
}

// DefaultClientConfig returns sensible defaults for the resilient client.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		CircuitBreaker:  &cbConfig,
	}
}

// SingleShotConfig returns a configuration that never retries and never
// skips a call because of earlier failures. Every call reaches the upstream;
// the breaker only reports its health.
func SingleShotConfig(name string, timeout time.Duration) ClientConfig {
	cfg := DefaultClientConfig(name)
	cfg.Timeout = timeout
	cfg.MaxRetries = 0
	cfg.ObserveOnly = true
	return cfg
}

// Client is a resilient HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker[*http.Response](cbConfig), //nolint:bodyclose // type param, not response
		config:         cfg,
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(cfg.Name, c)
	}

	return c
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Do executes an HTTP request with circuit breaker protection and retry logic.
// The request is retried on transient failures (5xx, network errors) with exponential backoff.
// Returns immediately with ErrCircuitOpen if the circuit breaker is open,
// unless the client is ObserveOnly.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext executes an HTTP request with the given context.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	call := func() (*http.Response, error) {
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			attempt.Body = body
		}

		r, err := c.httpClient.Do(attempt)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 {
			return r, &StatusError{StatusCode: r.StatusCode}
		}
		return r, nil
	}

	operation := func() error {
		// 5xx is returned as an error so it counts against the breaker.
		resp, err := c.circuitBreaker.Execute(call) //nolint:bodyclose // caller is responsible for closing
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if !c.config.ObserveOnly {
				return backoff.Permanent(ErrCircuitOpen)
			}
			resp, err = call() //nolint:bodyclose // caller is responsible for closing
		}

		if resp != nil {
			if lastResp != nil {
				lastResp.Body.Close()
			}
			lastResp = resp
		}
		return err
	}

	err := backoff.Retry(operation, policy)
	if lastResp != nil {
		// A 5xx that exhausted retries is handed back so callers can inspect it.
		c.recordStatus(lastResp.StatusCode)
		return lastResp, nil
	}
	if err != nil {
		c.record(err)
		return nil, err
	}
	return nil, errors.New("no response")
}

// recordStatus records one call outcome from its final status code.
func (c *Client) recordStatus(status int) {
	if status < 200 || status > 299 {
		c.record(&StatusError{StatusCode: status})
		return
	}
	c.record(nil)
}

func (c *Client) record(err error) {
	if c.config.Registry == nil {
		return
	}
	if err != nil {
		// Health output is public; URLs may carry API keys.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = fmt.Errorf("%s: %w", ue.Op, ue.Err)
		}
		c.config.Registry.RecordFailure(c.config.Name, err)
		return
	}
	c.config.Registry.RecordSuccess(c.config.Name)
}

// StatusError is a non-2xx answer from an upstream.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "unexpected status: " + http.StatusText(e.StatusCode)
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

// CircuitBreakerCounts returns the current counts of the circuit breaker.
func (c *Client) CircuitBreakerCounts() gobreaker.Counts {
	return c.circuitBreaker.Counts()
}

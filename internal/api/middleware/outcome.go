package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Outcome collects what a handler learned while serving a request: the
// upstream family that answered, the failure kind of an error response and
// the number of records returned. Logging, tracing and metrics read it once
// the handler is done.
//
// All methods are safe on a nil *Outcome, so handlers never need to check
// whether the middleware is installed.
type Outcome struct {
	mu          sync.Mutex
	source      string
	failureKind string
	results     int
	hasResults  bool
}

type outcomeKey struct{}

// withOutcome returns ctx carrying an Outcome, reusing one already present.
func withOutcome(ctx context.Context) (context.Context, *Outcome) {
	if o := OutcomeFrom(ctx); o != nil {
		return ctx, o
	}
	o := &Outcome{}
	return context.WithValue(ctx, outcomeKey{}, o), o
}

// OutcomeFrom returns the request's Outcome, or nil outside the middleware chain.
func OutcomeFrom(ctx context.Context) *Outcome {
	o, _ := ctx.Value(outcomeKey{}).(*Outcome)
	return o
}

// SetSource records the upstream family serving the request, e.g. "REGISTRY".
func (o *Outcome) SetSource(source string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.source = source
	o.mu.Unlock()
}

// SetFailureKind records the failure kind behind an error response.
func (o *Outcome) SetFailureKind(kind string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.failureKind = kind
	o.mu.Unlock()
}

// SetResults records how many parks, trails or samples went back.
func (o *Outcome) SetResults(n int) {
	if o == nil {
		return
	}
	o.mu.Lock()
	o.results, o.hasResults = n, true
	o.mu.Unlock()
}

type outcomeFields struct {
	source      string
	failureKind string
	results     int
	hasResults  bool
}

func (o *Outcome) fields() outcomeFields {
	if o == nil {
		return outcomeFields{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return outcomeFields{
		source:      o.source,
		failureKind: o.failureKind,
		results:     o.results,
		hasResults:  o.hasResults,
	}
}

// statusRecorder captures the status code and body size written downstream.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// routePattern is the matched chi pattern, e.g. "/v1/parks". Unmatched
// requests collapse to "unmatched" so labels stay bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

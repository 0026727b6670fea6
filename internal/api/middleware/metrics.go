package middleware

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/parkscout/parkscout/internal/api/middleware"

// Metrics holds the HTTP server instruments.
type Metrics struct {
	requestDuration  metric.Float64Histogram
	requestTotal     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	resultCount      metric.Int64Histogram
}

// NewMetrics creates the HTTP server instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("HTTP server requests by route, status, source and failure kind"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsInFlight, err := meter.Int64UpDownCounter(
		"http.server.requests_in_flight",
		metric.WithDescription("Number of HTTP requests currently being processed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	resultCount, err := meter.Int64Histogram(
		"parkscout.response.results",
		metric.WithDescription("Parks, trails or samples returned per successful request"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		requestsInFlight: requestsInFlight,
		resultCount:      resultCount,
	}, nil
}

// Middleware records duration, count and result size per request. The route
// label is the matched chi pattern, never the raw path.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, outcome := withOutcome(r.Context())

			inFlight := metric.WithAttributes(attribute.String("http.method", r.Method))
			m.requestsInFlight.Add(ctx, 1, inFlight)
			defer m.requestsInFlight.Add(ctx, -1, inFlight)

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			f := outcome.fields()
			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", routePattern(r)),
				attribute.String("http.status_code", strconv.Itoa(wrapped.statusCode)),
				attribute.String("parkscout.source", f.source),
				attribute.String("parkscout.failure_kind", f.failureKind),
			}
			if wrapped.statusCode >= http.StatusBadRequest || isUpstreamFailure(f.failureKind) {
				attrs = append(attrs, attribute.Bool("error", true))
			}
			set := metric.WithAttributes(attrs...)

			m.requestDuration.Record(ctx, time.Since(start).Seconds(), set)
			m.requestTotal.Add(ctx, 1, set)
			if f.hasResults {
				m.resultCount.Record(ctx, int64(f.results), set)
			}
		})
	}
}

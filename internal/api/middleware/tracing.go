package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/parkscout/parkscout/internal/provider"
)

const tracerName = "github.com/parkscout/parkscout/internal/api/middleware"

// Span attributes carrying the request Outcome.
const (
	attrSource      = attribute.Key("parkscout.source")
	attrFailureKind = attribute.Key("parkscout.failure_kind")
	attrResults     = attribute.Key("parkscout.results")
)

// Tracing returns a middleware that opens a server span per request,
// continuing any trace propagated by the caller. The span is renamed to the
// matched route once routing is done and tagged with the request Outcome.
// Upstream failures mark the span as an error even when the handler answers
// with a fallback.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, outcome := withOutcome(ctx)

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("service.name", serviceName),
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("url.query", r.URL.RawQuery),
					attribute.String("url.scheme", scheme(r)),
					attribute.String("user_agent.original", r.UserAgent()),
				),
			)
			defer span.End()

			if requestID := GetRequestID(ctx); requestID != "" {
				span.SetAttributes(attribute.String("request.id", requestID))
			}

			wrapped := newStatusRecorder(w)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			route := routePattern(r)
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", wrapped.statusCode),
			)

			f := outcome.fields()
			if f.source != "" {
				span.SetAttributes(attrSource.String(f.source))
			}
			if f.hasResults {
				span.SetAttributes(attrResults.Int(f.results))
			}
			if f.failureKind != "" {
				span.SetAttributes(attrFailureKind.String(f.failureKind))
			}

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			case isUpstreamFailure(f.failureKind):
				span.SetStatus(codes.Error, f.failureKind)
			}
		})
	}
}

// isUpstreamFailure reports whether kind names an upstream fault rather than
// a caller mistake or an empty answer.
func isUpstreamFailure(kind string) bool {
	switch provider.FailureKind(kind) {
	case provider.KindTransport, provider.KindMalformedResponse:
		return true
	}
	return false
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

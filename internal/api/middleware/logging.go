package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger returns a middleware that writes one line per request.
//
// Park and weather requests carry their Outcome: the source that served
// them, the failure kind behind an error response and the result count.
// Server errors log at warn and ops routes log at debug.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, outcome := withOutcome(r.Context())
			wrapped := newStatusRecorder(w)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			route := routePattern(r)
			event := logEvent(log, route, wrapped.statusCode)
			if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.IsValid() {
				event = event.
					Str("trace_id", spanCtx.TraceID().String()).
					Str("span_id", spanCtx.SpanID().String())
			}

			f := outcome.fields()
			if f.source != "" {
				event = event.Str("source", f.source)
			}
			if f.failureKind != "" {
				event = event.Str("failure_kind", f.failureKind)
			}
			if f.hasResults {
				event = event.Int("results", f.results)
			}

			event.
				Str("request_id", GetRequestID(ctx)).
				Str("method", r.Method).
				Str("route", route).
				Str("path", r.URL.Path).
				Int("status", wrapped.statusCode).
				Int64("bytes", wrapped.written).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Msg("request completed")
		})
	}
}

func logEvent(log zerolog.Logger, route string, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return log.Warn()
	case strings.HasPrefix(route, "/v1/ops/"):
		return log.Debug()
	default:
		return log.Info()
	}
}

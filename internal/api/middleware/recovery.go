package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/provider"
)

// Recovery turns a handler panic into a 500 problem. The Outcome is marked
// UNKNOWN so the request is counted as a failure by the outer middleware.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				OutcomeFrom(r.Context()).SetFailureKind(string(provider.KindUnknown))

				log.Error().
					Str("request_id", requestID).
					Str("route", routePattern(r)).
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("handler panicked")

				problem := models.NewInternalError(requestID, "an unexpected error occurred")
				problem.Instance = r.URL.Path
				problem.Write(w)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

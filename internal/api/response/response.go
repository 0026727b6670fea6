// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/parkscout/parkscout/internal/api/middleware"
	"github.com/parkscout/parkscout/internal/api/models"
	"github.com/parkscout/parkscout/internal/provider"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes a Problem+JSON error response.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// FromError maps an adapter or service error onto a Problem response.
//
// Invalid input is a 400, an empty result a 404 and any upstream failure a
// 503. Upstream error text is not echoed to clients; it can carry request URLs.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := middleware.GetRequestID(r.Context())
	kind := provider.Classify(err)
	middleware.OutcomeFrom(r.Context()).SetFailureKind(string(kind))

	var problem *models.Problem
	switch kind {
	case provider.KindInvalidInput:
		problem = models.NewBadRequest(traceID, err.Error(), nil)
	case provider.KindEmptyResult:
		problem = models.NewNotFound(traceID, "no results for this location")
	case provider.KindTransport:
		problem = models.NewServiceUnavailable(traceID, "an upstream data source could not be reached")
	case provider.KindMalformedResponse:
		problem = models.NewServiceUnavailable(traceID, "an upstream data source returned an unreadable response")
	default:
		problem = models.NewInternalError(traceID, "an unexpected error occurred")
	}
	if kind != provider.KindNone && kind != provider.KindUnknown {
		problem.WithFailureKind(string(kind))
	}

	Error(w, r, problem)
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	traceID := middleware.GetRequestID(r.Context())
	middleware.OutcomeFrom(r.Context()).SetFailureKind(string(provider.KindInvalidInput))
	problem := models.NewBadRequest(traceID, detail, errors)
	Error(w, r, problem)
}

// NotFound writes a 404 Not Found error response. It also answers requests
// for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := middleware.GetRequestID(r.Context())
	problem := models.NewNotFound(traceID, detail)
	Error(w, r, problem)
}

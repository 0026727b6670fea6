// Package middleware provides HTTP middleware for the ParkScout API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// maxRequestIDLen bounds client-supplied ids before they reach logs and spans.
const maxRequestIDLen = 64

type requestIDKey struct{}

// RequestID assigns each request an id and an Outcome. A well-formed
// X-Request-Id from the caller is kept; anything else is replaced. The id is
// echoed in the X-Request-Id response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.New().String()[:22]
		}
		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx, _ = withOutcome(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	return !strings.ContainsFunc(id, func(r rune) bool {
		return r < 0x21 || r > 0x7e
	})
}

package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/parkscout/parkscout/internal/api/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	handler := middleware.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Request-Id", "req_1")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/parks", http.NoBody))

	for header, want := range map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":           "no-referrer",
		"Permissions-Policy":        "geolocation=(), camera=(), microphone=()",
		"X-Request-Id":              "req_1",
	} {
		assert.Equal(t, want, rec.Header().Get(header), header)
	}
}

func TestRequireTLS(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		proto   string
		want    int
	}{
		{"disabled lets http through", false, "http", http.StatusOK},
		{"https behind proxy", true, "https", http.StatusOK},
		{"direct connection", true, "", http.StatusOK},
		{"http behind proxy", true, "http", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := middleware.RequireTLS(tt.enabled)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/v1/explore", http.NoBody)
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), "tls-required")
				assert.Contains(t, rec.Body.String(), `"instance":"/v1/explore"`)
			}
		})
	}
}

func TestRequireTLS_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.Logger(zerolog.New(&buf))(middleware.RequireTLS(true)(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/v1/parks", http.NoBody)
	req.Header.Set("X-Forwarded-Proto", "http")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "TLS_REQUIRED", entry["failure_kind"])
	assert.Equal(t, float64(http.StatusForbidden), entry["status"])
}

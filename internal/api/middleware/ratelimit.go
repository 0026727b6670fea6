package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/parkscout/parkscout/internal/api/models"
)

// RateLimitConfig is a per-client request budget.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

var (
	// ExploreRateLimit covers /v1/explore, which costs one park lookup plus
	// one trail lookup per park found (30 req/min).
	ExploreRateLimit = RateLimitConfig{RequestLimit: 30, WindowLength: time.Minute}

	// LookupRateLimit covers single-upstream park and weather lookups
	// (100 req/min).
	LookupRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits requests per client IP, as resolved by chi's RealIP.
// Rejections carry a Retry-After of one window and are recorded on the
// request Outcome as RATE_LIMITED.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(cfg.WindowLength.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			OutcomeFrom(r.Context()).SetFailureKind("RATE_LIMITED")

			w.Header().Set("Retry-After", retryAfter)
			problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
			problem.Instance = r.URL.Path
			problem.Write(w)
		}),
	)
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/parkscout/parkscout/internal/provider"
)

const meterName = "github.com/parkscout/parkscout/internal/telemetry"

// ProviderMetrics holds instruments for upstream provider calls.
// A nil *ProviderMetrics is valid and records nothing.
type ProviderMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// NewProviderMetrics creates metrics for monitoring upstream provider calls.
func NewProviderMetrics() (*ProviderMetrics, error) {
	meter := otel.Meter(meterName)

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProviderMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

// RecordRequest records one provider call. The outcome attribute is the
// failure kind of err, or "OK".
func (m *ProviderMetrics) RecordRequest(ctx context.Context, providerName, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := string(provider.Classify(err))
	if outcome == "" {
		outcome = "OK"
	}

	attrs := metric.WithAttributes(
		attribute.String("provider.name", providerName),
		attribute.String("provider.operation", operation),
		attribute.String("provider.outcome", outcome),
		attribute.Bool("error", provider.IsFailure(err)),
	)

	// Detach from request cancellation so late failures are still counted.
	ctx = context.WithoutCancel(ctx)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
	m.requestTotal.Add(ctx, 1, attrs)
}

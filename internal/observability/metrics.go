// Package observability provides OpenTelemetry metrics with a Prometheus
// exporter for the engine's execution counters.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the engine's instrument set
type Metrics struct {
	ExecutionsStarted   metric.Int64Counter
	ExecutionsCompleted metric.Int64Counter
	ExecutionsFailed    metric.Int64Counter
	ExecutionsCancelled metric.Int64Counter
	FixAttempts         metric.Int64Counter
}

// Init initializes the meter provider with a Prometheus exporter and
// returns the engine metrics, the /metrics HTTP handler, and a shutdown
// function for graceful cleanup.
func Init() (*Metrics, http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m, err := NewMetrics(provider.Meter("datalab/engine"))
	if err != nil {
		return nil, nil, nil, err
	}
	return m, promhttp.Handler(), provider.Shutdown, nil
}

// NewMetrics creates the engine instrument set on the given meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ExecutionsStarted, err = meter.Int64Counter("datalab_executions_started_total",
		metric.WithDescription("Executions accepted and started")); err != nil {
		return nil, err
	}
	if m.ExecutionsCompleted, err = meter.Int64Counter("datalab_executions_completed_total",
		metric.WithDescription("Executions finished with a complete event")); err != nil {
		return nil, err
	}
	if m.ExecutionsFailed, err = meter.Int64Counter("datalab_executions_failed_total",
		metric.WithDescription("Executions finished with an error event")); err != nil {
		return nil, err
	}
	if m.ExecutionsCancelled, err = meter.Int64Counter("datalab_executions_cancelled_total",
		metric.WithDescription("Executions stopped by cooperative cancellation")); err != nil {
		return nil, err
	}
	if m.FixAttempts, err = meter.Int64Counter("datalab_fix_attempts_total",
		metric.WithDescription("Auto-fix repair attempts")); err != nil {
		return nil, err
	}
	return m, nil
}

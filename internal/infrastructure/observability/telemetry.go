// Package observability sets up OpenTelemetry metrics and tracing.
// Metrics are exported through a Prometheus registry served at /metrics.
package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/altuslabsxyz/alert-dispatch"

// Telemetry owns the meter and tracer providers of the process.
type Telemetry struct {
	Registry       *prometheus.Registry
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	Metrics        *Metrics
	Tracer         trace.Tracer
}

// NewTelemetry creates providers for the named service.
func NewTelemetry(serviceName, version string) (*Telemetry, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))

	metrics, err := NewMetrics(mp.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Registry:       registry,
		MeterProvider:  mp,
		TracerProvider: tp,
		Metrics:        metrics,
		Tracer:         tp.Tracer(instrumentationName),
	}, nil
}

// Handler serves the Prometheus registry.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{Registry: t.Registry})
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.MeterProvider.Shutdown(ctx),
		t.TracerProvider.Shutdown(ctx),
	)
}

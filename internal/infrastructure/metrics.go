package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	// ServiceName identifies this service in exported metrics.
	ServiceName = "chainsight"
	// MeterName is the instrumentation scope for all counters.
	MeterName = "chainsight"
)

// ServiceVersion is set at build time.
var ServiceVersion = "dev"

// Metrics holds the OpenTelemetry meter provider with a Prometheus exporter
// and the counters the insights core reports into. All Record methods are
// nil-safe so the core can run without observability wired up (tests, CLI).
type Metrics struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter
	logger   *slog.Logger

	// Handler serves the Prometheus scrape endpoint.
	Handler http.Handler

	artifactLoads    metric.Int64Counter
	cacheInvalidated metric.Int64Counter
	forecastRequests metric.Int64Counter
}

// NewMetrics initializes the metrics pipeline: an OTel meter provider backed
// by the Prometheus exporter, plus the scrape handler.
func NewMetrics(logger *slog.Logger) (*Metrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	meter := provider.Meter(MeterName)

	m := &Metrics{
		provider: provider,
		meter:    meter,
		logger:   logger.With(slog.String("component", "metrics")),
		Handler:  promhttp.Handler(),
	}

	if m.artifactLoads, err = meter.Int64Counter("artifact_loads_total",
		metric.WithDescription("Artifact load attempts by outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create artifact_loads counter: %w", err)
	}
	if m.cacheInvalidated, err = meter.Int64Counter("cache_invalidations_total",
		metric.WithDescription("Full cache invalidations triggered by reload"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cache_invalidations counter: %w", err)
	}
	if m.forecastRequests, err = meter.Int64Counter("forecast_requests_total",
		metric.WithDescription("Forecast reconciliations by source"),
	); err != nil {
		return nil, fmt.Errorf("failed to create forecast_requests counter: %w", err)
	}

	m.logger.Info("metrics pipeline initialized",
		slog.String("exporter", "prometheus"),
		slog.String("service", ServiceName))
	return m, nil
}

// ObserveLoad implements dataset.LoadObserver.
func (m *Metrics) ObserveLoad(ctx context.Context, path, outcome string) {
	if m == nil {
		return
	}
	m.artifactLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordReload counts a full cache invalidation.
func (m *Metrics) RecordReload(ctx context.Context, entries int) {
	if m == nil {
		return
	}
	m.cacheInvalidated.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("entries_dropped", entries),
	))
}

// RecordForecast counts a forecast reconciliation by its source.
func (m *Metrics) RecordForecast(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.forecastRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
	))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}

// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // Default: 60s
	ServiceName       string
	Insecure          bool
}

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
	config   MetricsConfig
}

// NewMeterProvider creates and configures a new MeterProvider.
// If metrics are disabled, it returns a provider that wraps the no-op global meter.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{
		logger: logger,
		config: cfg,
	}

	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	exportInterval := cfg.ExportInterval
	if exportInterval == 0 {
		exportInterval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}

	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(exportInterval),
			),
		),
	)

	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", exportInterval),
		zap.String("service_name", cfg.ServiceName),
	)

	return mp, nil
}

// Shutdown gracefully shuts down the meter provider, flushing any pending metrics.
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// SyncMetrics carries the instruments recorded by the sync orchestrator.
type SyncMetrics struct {
	sessionsTotal   metric.Int64Counter
	recordsTotal    metric.Int64Counter
	sessionDuration metric.Float64Histogram
	entityFailures  metric.Int64Counter
}

// NewSyncMetrics registers the sync instruments on the given meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	sessions, err := meter.Int64Counter("sync.sessions.total",
		metric.WithDescription("Completed sync sessions"))
	if err != nil {
		return nil, err
	}
	records, err := meter.Int64Counter("sync.records.total",
		metric.WithDescription("Records upserted by sync"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("sync.session.duration",
		metric.WithDescription("Sync session duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("sync.entity.failures.total",
		metric.WithDescription("Entity-level sync failures"))
	if err != nil {
		return nil, err
	}
	return &SyncMetrics{
		sessionsTotal:   sessions,
		recordsTotal:    records,
		sessionDuration: duration,
		entityFailures:  failures,
	}, nil
}

// RecordSession records one finished session outcome
func (m *SyncMetrics) RecordSession(ctx context.Context, tenantName string, success bool, records int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tenant", tenantName),
		attribute.Bool("success", success),
	)
	m.sessionsTotal.Add(ctx, 1, attrs)
	m.recordsTotal.Add(ctx, int64(records), attrs)
	m.sessionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordEntityFailure records one entity-level failure
func (m *SyncMetrics) RecordEntityFailure(ctx context.Context, tenantName, entityType string) {
	if m == nil {
		return
	}
	m.entityFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tenant", tenantName),
		attribute.String("entity_type", entityType),
	))
}

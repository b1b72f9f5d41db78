package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/compgraph/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// EngineMetrics holds the instruments recorded by graph runs and sorts.
type EngineMetrics struct {
	sortChunks   metric.Int64Counter
	spilledRows  metric.Int64Counter
	sortDuration metric.Float64Histogram
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
}

// NewEngineMetrics creates the engine instruments on the given meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	sortChunks, err := meter.Int64Counter("compgraph.sort.chunks",
		metric.WithDescription("Sorted chunks produced by external sorts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compgraph.sort.chunks counter: %w", err)
	}

	spilledRows, err := meter.Int64Counter("compgraph.sort.spilled_rows",
		metric.WithDescription("Rows written to temporary sort files"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compgraph.sort.spilled_rows counter: %w", err)
	}

	sortDuration, err := meter.Float64Histogram("compgraph.sort.duration",
		metric.WithDescription("Time spent chunking and spilling sort input"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compgraph.sort.duration histogram: %w", err)
	}

	runTotal, err := meter.Int64Counter("compgraph.graph.runs",
		metric.WithDescription("Completed graph runs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compgraph.graph.runs counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram("compgraph.graph.duration",
		metric.WithDescription("Wall time from Run to stream close"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating compgraph.graph.duration histogram: %w", err)
	}

	return &EngineMetrics{
		sortChunks:   sortChunks,
		spilledRows:  spilledRows,
		sortDuration: sortDuration,
		runTotal:     runTotal,
		runDuration:  runDuration,
	}, nil
}

var (
	engineMetrics     *EngineMetrics
	engineMetricsOnce sync.Once
)

// Engine returns the process-wide EngineMetrics on the global meter. If the
// instruments cannot be created it returns nil, and every Record method is
// a no-op on a nil receiver.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		m, err := NewEngineMetrics(Meter(instrumentationName))
		if err != nil {
			logger.Get("observability").Warn("engine metrics disabled", logger.ErrorFields("create instruments", err))
			return
		}
		engineMetrics = m
	})
	return engineMetrics
}

// RecordSort records one external sort: the number of chunks, the rows
// spilled to disk and the time spent consuming its input.
func (m *EngineMetrics) RecordSort(ctx context.Context, chunks, spilledRows int, duration time.Duration) {
	if m == nil {
		return
	}
	spilled := attribute.Bool("spilled", spilledRows > 0)
	m.sortChunks.Add(ctx, int64(chunks), metric.WithAttributes(spilled))
	m.spilledRows.Add(ctx, int64(spilledRows))
	m.sortDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(spilled))
}

// RecordRun records a finished graph run.
func (m *EngineMetrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(AttrStatus, status))
	m.runTotal.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

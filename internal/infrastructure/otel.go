package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"sigitm/internal/config"
)

// InstrumentationName identifies the tracer and meter of this module
const InstrumentationName = "sigitm"

// Telemetry bundles the tracer and ingest metrics handed to components.
// A zero-cost no-op bundle is returned when telemetry is disabled.
type Telemetry struct {
	Tracer  trace.Tracer
	Metrics *IngestMetrics

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prometheus.Registry
}

// IngestMetrics holds the counters recorded by the file ingestor
type IngestMetrics struct {
	FilesProcessed   metric.Int64Counter
	LoadFailures     metric.Int64Counter
	ColumnFailures   metric.Int64Counter
	FilesDeleted     metric.Int64Counter
	RowsLoaded       metric.Int64Counter
	LoadDurationSecs metric.Float64Histogram
}

// NoopTelemetry returns telemetry that records nothing
func NoopTelemetry() *Telemetry {
	metrics, _ := newIngestMetrics(metricnoop.NewMeterProvider().Meter(InstrumentationName))
	return &Telemetry{
		Tracer:  tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Metrics: metrics,
	}
}

// InitializeTelemetry sets up tracing and metrics according to cfg.
// Spans are written to traceOut when the stdout exporter is selected.
func InitializeTelemetry(cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if !cfg.Enabled {
		return NoopTelemetry(), nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
	)

	t := &Telemetry{}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(traceOut), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		t.Tracer = t.tracerProvider.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	case "none", "":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	t.registry = prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t.Metrics, err = newIngestMetrics(t.meterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion)))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest metrics: %w", err)
	}

	logger.Info("Telemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return t, nil
}

func newIngestMetrics(meter metric.Meter) (*IngestMetrics, error) {
	var (
		m   IngestMetrics
		err error
		all []error
	)

	m.FilesProcessed, err = meter.Int64Counter("sigitm_files_processed_total",
		metric.WithDescription("Workbooks loaded and normalized successfully"))
	all = append(all, err)

	m.LoadFailures, err = meter.Int64Counter("sigitm_load_failures_total",
		metric.WithDescription("Load operations that returned a failed result"))
	all = append(all, err)

	m.ColumnFailures, err = meter.Int64Counter("sigitm_column_transform_failures_total",
		metric.WithDescription("Column transformations skipped after an error"))
	all = append(all, err)

	m.FilesDeleted, err = meter.Int64Counter("sigitm_files_deleted_total",
		metric.WithDescription("Workbooks removed from the search directory"))
	all = append(all, err)

	m.RowsLoaded, err = meter.Int64Counter("sigitm_rows_loaded_total",
		metric.WithDescription("Rows returned in normalized tables"))
	all = append(all, err)

	m.LoadDurationSecs, err = meter.Float64Histogram("sigitm_load_duration_seconds",
		metric.WithDescription("Time spent loading and normalizing a workbook"),
		metric.WithUnit("s"))
	all = append(all, err)

	if err := errors.Join(all...); err != nil {
		return nil, err
	}
	return &m, nil
}

// ColumnAttr labels a measurement with the column it concerns
func ColumnAttr(column string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("column", column))
}

// WriteMetricsTextfile flushes the collected metrics in the Prometheus text
// format, suitable for the node_exporter textfile collector.
func (t *Telemetry) WriteMetricsTextfile(path string) error {
	if t.registry == nil {
		return errors.New("metrics are disabled")
	}
	return prometheus.WriteToTextfile(path, t.registry)
}

// Shutdown flushes pending spans and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	if t.meterProvider != nil {
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

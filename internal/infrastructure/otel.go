package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"scanadherence/internal/config"
	"scanadherence/pkg/contracts"
)

const (
	ServiceName = "scan-adherence"
	MeterName   = "scanadherence"
)

// Telemetry bundles the tracer and run metrics of one summary run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *RunMetrics
	Logger         *slog.Logger

	metricsTextfile string
	traceFile       *os.File
}

// RunMetrics are the counters recorded while a pipeline runs
type RunMetrics struct {
	RowsRead        metric.Int64Counter
	RowsDropped     metric.Int64Counter
	GroupsProcessed metric.Int64Counter
	GroupsSkipped   metric.Int64Counter
	SheetsWritten   metric.Int64Counter
	StageDuration   metric.Float64Histogram
}

// InitializeTelemetry sets up run tracing and a prometheus-backed meter.
// Tracing is a no-op unless cfg.EnableTracing is set.
func InitializeTelemetry(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(contracts.Version),
	)

	tel := &Telemetry{
		Logger:          logger,
		metricsTextfile: cfg.MetricsTextfile,
	}

	if err := tel.initializeTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := tel.initializeMetrics(res); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Debug("Telemetry initialized",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.String("metrics_textfile", cfg.MetricsTextfile))

	return tel, nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	if !cfg.EnableTracing {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
		return nil
	}

	var out io.Writer = os.Stdout
	if cfg.TraceOutput != "" && cfg.TraceOutput != "stdout" {
		file, err := os.OpenFile(cfg.TraceOutput, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace output %s: %w", cfg.TraceOutput, err)
		}
		t.traceFile = file
		out = file
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Synchronous export, a CLI run ends before a batcher would flush
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(contracts.Version))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.Registry = registry
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(contracts.Version))

	metrics, err := CreateRunMetrics(t.Meter)
	if err != nil {
		return err
	}
	t.Metrics = metrics
	return nil
}

// CreateRunMetrics registers the run counters on meter
func CreateRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	rowsRead, err := meter.Int64Counter(
		"scan_rows_read",
		metric.WithDescription("Raw scan rows read from the input sheet"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"scan_rows_dropped",
		metric.WithDescription("Scan rows removed by the subject or device filters"),
	)
	if err != nil {
		return nil, err
	}

	groupsProcessed, err := meter.Int64Counter(
		"scan_groups_processed",
		metric.WithDescription("Patient-eye groups summarized"),
	)
	if err != nil {
		return nil, err
	}

	groupsSkipped, err := meter.Int64Counter(
		"scan_groups_skipped",
		metric.WithDescription("Patient-eye groups without a summary row"),
	)
	if err != nil {
		return nil, err
	}

	sheetsWritten, err := meter.Int64Counter(
		"scan_sheets_written",
		metric.WithDescription("Summary sheets written back to the workbook"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"scan_stage_duration_seconds",
		metric.WithDescription("Duration of each pipeline stage"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		RowsRead:        rowsRead,
		RowsDropped:     rowsDropped,
		GroupsProcessed: groupsProcessed,
		GroupsSkipped:   groupsSkipped,
		SheetsWritten:   sheetsWritten,
		StageDuration:   stageDuration,
	}, nil
}

// StartStage opens a span for a pipeline stage. The returned func ends the
// span, records err on it and observes the stage duration.
func (t *Telemetry) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := t.Tracer.Start(ctx, stage, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		t.Metrics.StageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", stage)))
	}
}

// WriteMetrics dumps the run metrics to the configured textfile, if any
func (t *Telemetry) WriteMetrics() error {
	if t.metricsTextfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(t.metricsTextfile, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", t.metricsTextfile, err)
	}
	return nil
}

// Shutdown flushes and releases the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if t.traceFile != nil {
		if err := t.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace output close: %w", err))
		}
		t.traceFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %v", errs)
	}
	return nil
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

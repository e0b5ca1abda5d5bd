package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/oteladapters"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	defaultExportInterval  = 5 * time.Second
)

// ErrCreatingObservabilityFailed is returned when an OpenTelemetry provider cannot be built.
var ErrCreatingObservabilityFailed = errors.New("creating observability providers failed")

// Observability holds the adapters the building blocks accept as options.
// All adapters are nil when observability is disabled.
type Observability struct {
	ContextualLogger loadtest.ContextualLogger
	MetricsCollector loadtest.MetricsCollector
	TracingCollector loadtest.TracingCollector

	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
}

// NewObservability builds OTLP gRPC exporting providers, registers them globally and wraps them in
// the oteladapters implementations. It returns an empty Observability when cfg.Enabled is false.
func NewObservability(ctx context.Context, cfg ObservabilityConfig, serviceVersion string) (*Observability, error) {
	if !cfg.Enabled {
		return &Observability{}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	traceOptions := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TracesEndpoint)}
	metricOptions := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.MetricsEndpoint)}
	if cfg.Insecure {
		traceOptions = append(traceOptions, otlptracegrpc.WithInsecure())
		metricOptions = append(metricOptions, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOptions...)
	if err != nil {
		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions...)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, errors.Join(ErrCreatingObservabilityFailed, err)
	}

	exportInterval := cfg.ExportInterval
	if exportInterval <= 0 {
		exportInterval = defaultExportInterval
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
	)

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(exportInterval))),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Observability{
		ContextualLogger: oteladapters.NewSlogBridgeLogger(cfg.ServiceName),
		MetricsCollector: oteladapters.NewMetricsCollector(meterProvider.Meter(cfg.ServiceName)),
		TracingCollector: oteladapters.NewTracingCollector(tracerProvider.Tracer(cfg.ServiceName)),
		tracerProvider:   tracerProvider,
		meterProvider:    meterProvider,
	}, nil
}

// Enabled reports whether exporting providers are running.
func (o *Observability) Enabled() bool {
	return o.tracerProvider != nil
}

// Shutdown flushes and stops the providers. It is a no-op when observability is disabled.
func (o *Observability) Shutdown() error {
	if !o.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	return errors.Join(o.tracerProvider.Shutdown(ctx), o.meterProvider.Shutdown(ctx))
}

package observe

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jonwraymond/toolflow/observe/exporters"
)

// Config configures the telemetry providers.
type Config struct {
	// ServiceName identifies this service in exported telemetry. Required.
	ServiceName string

	// Version is the service version. Optional.
	Version string

	// MetricsExporter selects the metrics backend: stdout|otlp|prometheus|none.
	MetricsExporter string

	// TracingExporter selects the tracing backend: stdout|otlp|none.
	TracingExporter string

	// SampleRatio is the trace sampling ratio in [0, 1]. Default: 1.
	SampleRatio float64
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return errors.New("observe: service name is required")
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("observe: sample ratio must be in [0, 1], got %g", c.SampleRatio)
	}
	return nil
}

// NewMeterProvider builds an SDK meter provider for the configured exporter.
// The caller owns shutdown.
func NewMeterProvider(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reader, err := exporters.NewMetricsReader(ctx, cfg.MetricsExporter)
	if err != nil {
		return nil, err
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	), nil
}

// NewTracerProvider builds an SDK tracer provider for the configured
// exporter. The caller owns shutdown.
func NewTracerProvider(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exporter, err := exporters.NewTracingExporter(ctx, cfg.TracingExporter)
	if err != nil {
		return nil, err
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, err
	}

	ratio := cfg.SampleRatio
	if ratio == 0 {
		ratio = 1
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}

func newResource(cfg Config) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	}
	return resource.New(context.Background(), attrs...)
}

package telemetry

import (
	"context"
	"washfamily/config"

	logger "github.com/Bparsons0904/goLogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs the global tracer provider used by the upstream and geocode
// transports. Tracing stays off when no OTLP endpoint is configured.
func Setup(ctx context.Context, config config.Config) ShutdownFunc {
	log := logger.New("telemetry").Function("Setup")

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if config.OtelExporterEndpoint == "" {
		log.Info("OTLP endpoint not set, tracing disabled")
		return noop
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.OtelExporterEndpoint)}
	if config.OtelExporterInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		log.Er("failed to create OTLP exporter", err, "endpoint", config.OtelExporterEndpoint)
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(config.OtelServiceName),
		semconv.ServiceVersion(config.GeneralVersion),
		semconv.DeploymentEnvironment(config.Environment),
	))
	if err != nil {
		log.Warn("failed to build telemetry resource", "error", err)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	log.Info("Tracing enabled", "endpoint", config.OtelExporterEndpoint, "service", config.OtelServiceName)
	return provider.Shutdown
}

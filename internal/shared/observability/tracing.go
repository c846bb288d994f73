package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Tracer delegates to whichever provider is installed globally, so spans are
// no-ops until InitTracing runs.
var Tracer = otel.Tracer("typewalk")

type TracingOptions struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
}

// InitTracing installs an OTLP/gRPC exporting tracer provider. The returned
// function flushes and shuts it down.
func InitTracing(ctx context.Context, opts TracingOptions) (func(context.Context) error, error) {
	clientOpts := []otlptracegrpc.Option{}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		clientOpts = append(clientOpts, otlptracegrpc.WithEndpoint(endpoint))
	}
	if opts.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}

	name := opts.ServiceName
	if name == "" {
		name = "typewalk"
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(provider)
	return provider.Shutdown, nil
}

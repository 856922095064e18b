// Package telemetry configures OpenTelemetry trace export.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/matzehuels/locallore/pkg/buildinfo"
)

// Config selects the OTLP/HTTP collector. An empty Endpoint disables export.
type Config struct {
	Endpoint string
	Insecure bool
	Service  string
}

// Init installs a global tracer provider exporting to cfg.Endpoint and
// returns its shutdown function. With no endpoint it returns a no-op
// shutdown and leaves the default (no-op) provider in place.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(3*time.Second)),
		sdktrace.WithResource(newResource(cfg.Service)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func newResource(service string) *resource.Resource {
	attrs := resource.NewSchemaless(
		attribute.String("service.name", service),
		attribute.String("service.version", buildinfo.Version),
	)
	res, err := resource.Merge(resource.Default(), attrs)
	if err != nil {
		return attrs
	}
	return res
}

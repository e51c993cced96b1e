// Package telemetry installs the global OpenTelemetry tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Options struct {
	Exporter     string
	ServiceName  string
	OTLPEndpoint string    // host:port, plain HTTP
	Stdout       io.Writer // stdout exporter target
}

// Setup installs a tracer provider for the chosen exporter and returns its
// shutdown func. With ExporterNone the global no-op provider stays in place.
func Setup(ctx context.Context, opts Options) (func(context.Context) error, error) {
	var exp sdktrace.SpanExporter
	var err error

	switch strings.ToLower(strings.TrimSpace(opts.Exporter)) {
	case "", ExporterNone:
		return func(context.Context) error { return nil }, nil
	case ExporterStdout:
		stdoutOpts := []stdouttrace.Option{}
		if opts.Stdout != nil {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithWriter(opts.Stdout))
		}
		exp, err = stdouttrace.New(stdoutOpts...)
	case ExporterOTLP:
		httpOpts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
		if opts.OTLPEndpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(opts.OTLPEndpoint))
		}
		exp, err = otlptracehttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", opts.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s exporter: %w", opts.Exporter, err)
	}

	name := opts.ServiceName
	if name == "" {
		name = "taskboard"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

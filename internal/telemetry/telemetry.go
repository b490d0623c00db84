// Package telemetry configures OpenTelemetry tracing for noderegistry.
//
// Registry operations always create spans through the global tracer
// provider. Without NewProvider (or with tracing disabled) that provider is
// a no-op; with tracing enabled, spans are written as JSON to the configured
// writer by the stdouttrace exporter.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName identifies this service in exported spans.
const DefaultServiceName = "noderegistry"

// Config configures the tracing subsystem.
type Config struct {
	// Enabled controls whether spans are exported.
	Enabled bool

	// Writer receives exported spans. Default: os.Stderr.
	Writer io.Writer

	// PrettyPrint indents exported JSON.
	PrettyPrint bool

	// ServiceName overrides DefaultServiceName.
	ServiceName string

	// Global installs the provider as the otel global provider.
	Global bool
}

// Provider wraps the tracer provider and its shutdown.
type Provider struct {
	provider *sdktrace.TracerProvider
	noop     trace.TracerProvider
}

// NewProvider creates the tracer provider described by cfg. When tracing is
// disabled a no-op provider is returned and the global provider is left
// untouched.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{noop: noop.NewTracerProvider()}, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	// NewSchemaless avoids schema URL conflicts with resource.Default().
	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	// CLI invocations are short-lived; export synchronously so nothing is
	// lost on exit.
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSyncer(exporter),
	)
	if cfg.Global {
		otel.SetTracerProvider(provider)
	}
	return &Provider{provider: provider}, nil
}

// Tracer returns a tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.provider == nil {
		return p.noop.Tracer(name)
	}
	return p.provider.Tracer(name)
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes pending spans and shuts the provider down.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

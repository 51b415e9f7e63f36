// Package trace wraps OpenTelemetry setup and the span helpers used by the
// capture loop and the downstream stages.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer every span in the assistant is started from.
const TracerName = "github.com/realtime-ai/talk-assist"

// Exporter kinds accepted by Config.Exporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvExporter     = "TALK_ASSIST_TRACE"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvSampleRatio  = "TALK_ASSIST_TRACE_RATIO"
)

var (
	mu       sync.RWMutex
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
)

// Config selects where spans go.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Exporter is one of ExporterNone, ExporterStdout or ExporterOTLP.
	// With ExporterNone spans still carry valid ids for log correlation
	// but are never exported.
	Exporter string
	// OTLPEndpoint is a host:port gRPC collector address.
	OTLPEndpoint string
	// SampleRatio is the fraction of root spans kept, 0..1.
	SampleRatio float64
	// Writer receives stdout exporter output. Defaults to os.Stdout.
	Writer io.Writer
}

// DefaultConfig returns a config with export disabled.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "talk-assist",
		ServiceVersion: "0.1.0",
		Exporter:       ExporterNone,
		OTLPEndpoint:   "localhost:4317",
		SampleRatio:    1.0,
	}
}

// ConfigFromEnv overlays DefaultConfig with the variables lookup reports.
func ConfigFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if v, ok := lookup(EnvExporter); ok && v != "" {
		cfg.Exporter = v
	}
	if v, ok := lookup(EnvOTLPEndpoint); ok && v != "" {
		cfg.OTLPEndpoint = v
	}
	if v, ok := lookup(EnvSampleRatio); ok && v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSampleRatio, err)
		}
		cfg.SampleRatio = ratio
	}
	return cfg, cfg.Validate()
}

// Validate checks the exporter kind and the sample ratio.
func (c *Config) Validate() error {
	switch c.Exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("unsupported trace exporter %q", c.Exporter)
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio %v outside [0, 1]", c.SampleRatio)
	}
	return nil
}

func newExporter(ctx context.Context, cfg *Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		return stdouttrace.New(opts...)
	case ExporterOTLP:
		client := otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		return otlptrace.New(ctx, client)
	}
	return nil, nil
}

// Initialize installs the global tracer provider. It fails if one is
// already installed.
func Initialize(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if provider != nil {
		return errors.New("tracer provider already initialized")
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("trace resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s exporter: %w", cfg.Exporter, err)
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer = provider.Tracer(TracerName)

	log.Printf("[Trace] Tracing initialized, exporter=%s ratio=%.2f", cfg.Exporter, cfg.SampleRatio)
	return nil
}

// Shutdown flushes and removes the tracer provider. Safe to call when
// Initialize never ran.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider, tracer = nil, nil
	if err != nil {
		return fmt.Errorf("trace shutdown: %w", err)
	}
	return nil
}

// GetTracer returns the installed tracer, or the global no-op one.
func GetTracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	if tracer == nil {
		return otel.Tracer(TracerName)
	}
	return tracer
}

// StartSpan starts a span on GetTracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name, opts...)
}

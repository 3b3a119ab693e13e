// Package tracing wires OpenTelemetry distributed tracing for the JoinMe API
// server: provider setup derived from the application config, plus span
// helpers for domain and database operations.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/SWENT-team09-2025/joinme-backend/internal/config"
)

// serviceVersion is stamped onto every exported span.
const serviceVersion = "0.1.0"

// Config holds the tracing configuration. An empty Endpoint disables
// tracing; the provider then hands out no-op tracers.
type Config struct {
	// ServiceName identifies this service in traces.
	ServiceName string

	// Environment tags exported spans with the deployment environment.
	Environment string

	// Protocol selects the OTLP transport: "grpc" or "http".
	Protocol string

	// Endpoint is the OTLP collector address. Empty disables tracing.
	Endpoint string

	// SamplingRate is the fraction of root traces to sample, 0.0 to 1.0.
	SamplingRate float64

	// Insecure disables TLS on the collector connection (dev only).
	Insecure bool
}

// FromAppConfig derives the tracing configuration from the application
// config. Development samples every trace over a plaintext connection; any
// other environment samples one trace in ten and requires TLS.
func FromAppConfig(cfg *config.Config) Config {
	rate := 0.1
	if cfg.Env == config.DefaultEnv {
		rate = 1.0
	}
	return Config{
		ServiceName:  "joinme-api",
		Environment:  cfg.Env,
		Protocol:     cfg.OTLPProtocol,
		Endpoint:     cfg.OTLPEndpoint,
		SamplingRate: rate,
		Insecure:     cfg.Env == config.DefaultEnv,
	}
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	config Config
}

// NewProvider creates and registers a tracer provider. With no endpoint
// configured it returns a provider whose tracers are no-ops.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		slog.Info("tracing disabled, no OTLP endpoint configured")
		return &Provider{config: cfg}, nil
	}
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if cfg.SamplingRate < 0 || cfg.SamplingRate > 1 {
		return nil, fmt.Errorf("sampling rate must be between 0 and 1, got %f", cfg.SamplingRate)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceNamespace("joinme"),
			semconv.ServiceVersion(serviceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(5*time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("tracing initialized",
		"service", cfg.ServiceName,
		"protocol", cfg.Protocol,
		"endpoint", cfg.Endpoint,
		"sampling_rate", cfg.SamplingRate,
		"environment", cfg.Environment,
	)

	return &Provider{tp: tp, config: cfg}, nil
}

// newSampler keeps children of sampled traces; a fractional rate applies to
// root spans only.
func newSampler(rate float64) sdktrace.Sampler {
	switch rate {
	case 1.0:
		return sdktrace.AlwaysSample()
	case 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.Protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol: %q", cfg.Protocol)
	}
}

// Shutdown flushes pending spans and stops exporting.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	slog.Info("shutting down tracer provider")
	if err := p.tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a tracer for the given name.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// IsEnabled reports whether spans are exported.
func (p *Provider) IsEnabled() bool {
	return p.tp != nil
}

package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name         string
		env          string
		wantRate     float64
		wantInsecure bool
	}{
		{"development samples everything", config.DefaultEnv, 1.0, true},
		{"production samples a fraction", "production", 0.1, false},
		{"staging samples a fraction", "staging", 0.1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAppConfig(&config.Config{
				Env:          tt.env,
				OTLPEndpoint: "collector:4317",
				OTLPProtocol: "grpc",
			})
			if got.ServiceName != "joinme-api" {
				t.Errorf("service name = %q", got.ServiceName)
			}
			if got.Environment != tt.env {
				t.Errorf("environment = %q, want %q", got.Environment, tt.env)
			}
			if got.Endpoint != "collector:4317" || got.Protocol != "grpc" {
				t.Errorf("endpoint/protocol = %q/%q", got.Endpoint, got.Protocol)
			}
			if got.SamplingRate != tt.wantRate {
				t.Errorf("sampling rate = %v, want %v", got.SamplingRate, tt.wantRate)
			}
			if got.Insecure != tt.wantInsecure {
				t.Errorf("insecure = %v, want %v", got.Insecure, tt.wantInsecure)
			}
		})
	}
}

func TestNewProvider_DisabledWithoutEndpoint(t *testing.T) {
	provider, err := NewProvider(Config{ServiceName: "joinme-api"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if provider.IsEnabled() {
		t.Error("provider enabled without an endpoint")
	}
	if tracer := provider.Tracer("joinme-test"); tracer == nil {
		t.Error("disabled provider returned nil tracer")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider: %v", err)
	}
}

func TestNewProvider_MissingServiceName(t *testing.T) {
	_, err := NewProvider(Config{Endpoint: "localhost:4317", Protocol: "grpc", SamplingRate: 0.1})
	if err == nil {
		t.Fatal("expected error for missing service name")
	}
}

func TestNewProvider_InvalidSamplingRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
	}{
		{"negative", -0.1},
		{"greater than one", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(Config{
				ServiceName:  "joinme-api",
				Endpoint:     "localhost:4317",
				Protocol:     "grpc",
				SamplingRate: tt.rate,
			})
			if err == nil {
				t.Fatalf("expected error for sampling rate %v", tt.rate)
			}
		})
	}
}

func TestNewProvider_UnsupportedProtocol(t *testing.T) {
	_, err := NewProvider(Config{
		ServiceName:  "joinme-api",
		Endpoint:     "localhost:4317",
		Protocol:     "thrift",
		SamplingRate: 0.1,
	})
	if err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}

func TestNewProvider_ValidConfig(t *testing.T) {
	tests := []struct {
		name         string
		protocol     string
		endpoint     string
		samplingRate float64
	}{
		{"grpc sampling everything", "grpc", "localhost:4317", 1.0},
		{"http sampling a fraction", "http", "localhost:4318", 0.1},
		{"grpc sampling nothing", "grpc", "localhost:4317", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(Config{
				ServiceName:  "joinme-api",
				Environment:  "test",
				Protocol:     tt.protocol,
				Endpoint:     tt.endpoint,
				SamplingRate: tt.samplingRate,
				Insecure:     true,
			})
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if !provider.IsEnabled() {
				t.Error("provider not enabled")
			}

			tracer := provider.Tracer("joinme-test")
			_, span := tracer.Start(context.Background(), "duration-edit")
			span.End()

			// The flush fails without a live collector; only the sampled
			// spans depend on it.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = provider.Shutdown(ctx)
		})
	}
}

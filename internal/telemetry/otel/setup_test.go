package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	ctx := context.Background()
	for _, endpoint := range []string{"", "   "} {
		providers, err := NewProviders(ctx, endpoint, "test-service", false)
		if err != nil {
			t.Fatalf("NewProviders(%q): %v", endpoint, err)
		}
		if providers.TracerProvider == nil || providers.MeterProvider == nil || providers.LoggerProvider == nil {
			t.Error("no-op providers should all be non-nil")
		}
		if err := providers.Shutdown(ctx); err != nil {
			t.Errorf("shutdown should be no-op for empty endpoint, got error: %v", err)
		}
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name     string
		endpoint string
	}{
		{"invalid characters", "://invalid"},
		{"malformed URL", "http://[invalid"},
		{"missing host", "http://"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProviders(ctx, tc.endpoint, "test-service", false)
			if err == nil {
				t.Errorf("NewProviders(%q) should return error", tc.endpoint)
			}
		})
	}
}

func TestNewProviders_EndpointNormalization(t *testing.T) {
	ctx := context.Background()
	// These normalize to a valid host:port; exporter creation is lazy so no collector is needed.
	testCases := []struct {
		name     string
		endpoint string
	}{
		{"with http", "http://localhost:4317"},
		{"with https", "https://localhost:4317"},
		{"without protocol", "localhost:4317"},
		{"with path", "http://localhost:4317/v1/traces"},
		{"with query", "http://localhost:4317?param=value"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			providers, err := NewProviders(ctx, tc.endpoint, "test-service", false)
			if err != nil {
				t.Fatalf("NewProviders(%q): %v", tc.endpoint, err)
			}
			shutdownCtx, cancel := context.WithCancel(ctx)
			cancel()
			_ = providers.Shutdown(shutdownCtx)
		})
	}
}

func TestSetGlobal_WithProviders(t *testing.T) {
	providers, err := NewProviders(context.Background(), "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	oldTracerProvider := otel.GetTracerProvider()
	oldMeterProvider := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracerProvider)
		otel.SetMeterProvider(oldMeterProvider)
	}()

	providers.SetGlobal()

	if otel.GetTracerProvider() == oldTracerProvider {
		t.Error("TracerProvider should be updated")
	}
	if otel.GetMeterProvider() == oldMeterProvider {
		t.Error("MeterProvider should be updated")
	}
}

func TestSetGlobal_PartialProviders(t *testing.T) {
	ctx := context.Background()
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(ctx) }()

	providers := &Providers{
		TracerProvider: tp,
		Shutdown:       func(context.Context) error { return nil },
	}

	oldTracerProvider := otel.GetTracerProvider()
	oldMeterProvider := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(oldTracerProvider)
		otel.SetMeterProvider(oldMeterProvider)
	}()

	providers.SetGlobal()

	if otel.GetTracerProvider() == oldTracerProvider {
		t.Error("TracerProvider should be updated")
	}
	if otel.GetMeterProvider() != oldMeterProvider {
		t.Error("MeterProvider should not be updated when nil")
	}
}

func TestProviders_ShutdownIdempotent(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, "", "test-service", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}

	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("first shutdown: %v", err)
	}
	if err := providers.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

// Package telemetry wires OpenTelemetry tracing for the analysis pipeline.
//
// Tracing is configured from the standard OTEL_* environment variables and is
// off unless OTEL_ENABLED=true. When off, the global no-op TracerProvider stays
// in place and StartSpan costs almost nothing.
//
//	OTEL_ENABLED                    - enable tracing (default: false)
//	OTEL_SERVICE_NAME               - service name (default: threaddump-analysis)
//	OTEL_SERVICE_VERSION            - service version (default: unknown)
//	OTEL_EXPORTER_OTLP_ENDPOINT     - OTLP collector endpoint
//	OTEL_EXPORTER_OTLP_PROTOCOL     - grpc or http/protobuf (default: grpc)
//	OTEL_EXPORTER_OTLP_HEADERS      - exporter headers, key=value,...
//	OTEL_EXPORTER_OTLP_INSECURE     - plaintext transport (default: false)
//	OTEL_TRACES_SAMPLER             - sampler name (default: always_on)
//	OTEL_TRACES_SAMPLER_ARG         - sampler argument, e.g. a ratio
//	OTEL_RESOURCE_ATTRIBUTES        - extra resource attributes, key=value,...
//
// Usage:
//
//	shutdown, err := telemetry.Init(ctx)
//	if err != nil {
//	    logger.Warn("telemetry disabled: %v", err)
//	}
//	defer shutdown(ctx)
//
//	ctx, span := telemetry.StartSpan(ctx, "service.AnalyzeDump")
//	defer telemetry.EndSpan(span, err)
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	globalConfig *Config
	configOnce   sync.Once
)

// ShutdownFunc flushes and stops the TracerProvider.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(_ context.Context) error {
	return nil
}

// Init installs the global TracerProvider and propagator. When tracing is
// disabled it returns a no-op ShutdownFunc and leaves the globals untouched.
func Init(ctx context.Context) (ShutdownFunc, error) {
	cfg := loadConfig()
	if !cfg.Enabled {
		return noopShutdown, nil
	}

	tp, err := newTracerProvider(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg *Config) (*sdktrace.TracerProvider, error) {
	res, err := buildResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	exporter, err := createExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(createSampler(cfg)),
	), nil
}

// Enabled returns whether OpenTelemetry tracing is enabled.
func Enabled() bool {
	return loadConfig().Enabled
}

// GetConfig returns the current telemetry configuration.
func GetConfig() *Config {
	return loadConfig()
}

func loadConfig() *Config {
	configOnce.Do(func() {
		globalConfig = LoadFromEnv()
	})
	return globalConfig
}

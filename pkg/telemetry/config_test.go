package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var otelEnvKeys = []string{
	"OTEL_ENABLED",
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_HEADERS",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_SAMPLER",
	"OTEL_TRACES_SAMPLER_ARG",
	"OTEL_RESOURCE_ATTRIBUTES",
}

func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, k := range otelEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearOTelEnv(t)

		cfg := LoadFromEnv()

		assert.False(t, cfg.Enabled)
		assert.Equal(t, "threaddump-analysis", cfg.ServiceName)
		assert.Equal(t, "unknown", cfg.ServiceVersion)
		assert.Equal(t, "grpc", cfg.Protocol)
		assert.Empty(t, cfg.Headers)
		assert.Empty(t, cfg.ResourceAttrs)
	})

	t.Run("configured", func(t *testing.T) {
		clearOTelEnv(t)
		t.Setenv("OTEL_ENABLED", "TRUE")
		t.Setenv("OTEL_SERVICE_NAME", "dump-api")
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://collector:4318")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
		t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Bearer abc")
		t.Setenv("OTEL_TRACES_SAMPLER", "traceidratio")
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
		t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment=production,team=jvm")

		cfg := LoadFromEnv()

		assert.True(t, cfg.Enabled)
		assert.Equal(t, "dump-api", cfg.ServiceName)
		assert.Equal(t, "http://collector:4318", cfg.Endpoint)
		assert.Equal(t, "http/protobuf", cfg.Protocol)
		assert.Equal(t, "Bearer abc", cfg.Headers["Authorization"])
		assert.Equal(t, "traceidratio", cfg.Sampler)
		assert.Equal(t, "0.25", cfg.SamplerArg)
		assert.Len(t, cfg.ResourceAttrs, 2)
		assert.Equal(t, "production", cfg.ResourceAttrs["deployment.environment"])
	})
}

func TestParseKeyValuePairs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single_pair", "key=value", map[string]string{"key": "value"}},
		{"multiple_pairs", "key1=value1,key2=value2", map[string]string{"key1": "value1", "key2": "value2"}},
		{"with_spaces", " key1 = value1 , key2 = value2 ", map[string]string{"key1": "value1", "key2": "value2"}},
		{"value_with_equals", "Authorization=Bearer token=abc", map[string]string{"Authorization": "Bearer token=abc"}},
		{"empty_value", "key=", map[string]string{"key": ""}},
		{"invalid_no_equals", "invalid", map[string]string{}},
		{"empty_key", "=value", map[string]string{}},
		{"mixed_valid_invalid", "valid=value,invalid,another=test", map[string]string{"valid": "value", "another": "test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseKeyValuePairs(tt.input))
		})
	}
}

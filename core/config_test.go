package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "fabric", cfg.Name)
	assert.Equal(t, "default", cfg.Namespace)

	assert.Equal(t, "balanced", cfg.Routing.DefaultProvider)
	assert.True(t, cfg.Routing.EnableFallback)
	assert.True(t, cfg.Routing.EnableQualityRouting)
	assert.Equal(t, 60, cfg.Routing.RejectionThreshold)
	assert.Equal(t, 80, cfg.Routing.HybridThreshold)
	assert.Equal(t, 80, cfg.Routing.ValidationThreshold)
	assert.Equal(t, 2, cfg.Routing.MaxRetries)
	assert.Equal(t, 8000, cfg.Routing.ContextTargetTokens)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "inmemory", cfg.Memory.Provider)
	assert.Equal(t, 1000, cfg.Memory.MaxSize)
	assert.True(t, cfg.Resilience.CircuitBreaker.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	testEnv := map[string]string{
		"FABRIC_AGENT_NAME":           "test-agent",
		"FABRIC_AGENT_ID":             "test-123",
		"FABRIC_NAMESPACE":            "testing",
		"FABRIC_DEFAULT_PROVIDER":     "premium",
		"FABRIC_REJECTION_THRESHOLD":  "50",
		"FABRIC_HYBRID_THRESHOLD":     "75",
		"FABRIC_MAX_RETRIES":          "4",
		"FABRIC_LOG_LEVEL":            "debug",
		"FABRIC_LOG_FORMAT":           "json",
		"FABRIC_MEMORY_REDIS_URL":     "redis://test-redis:6379",
		"FABRIC_DEV_MODE":             "true",
		"FABRIC_MOCK_PROVIDER":        "true",
	}

	for k, v := range testEnv {
		_ = os.Setenv(k, v)
		defer func(k string) { _ = os.Unsetenv(k) }(k)
	}

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-agent", cfg.Name)
	assert.Equal(t, "test-123", cfg.ID)
	assert.Equal(t, "testing", cfg.Namespace)
	assert.Equal(t, "premium", cfg.Routing.DefaultProvider)
	assert.Equal(t, 50, cfg.Routing.RejectionThreshold)
	assert.Equal(t, 75, cfg.Routing.HybridThreshold)
	assert.Equal(t, 4, cfg.Routing.MaxRetries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format) // dev mode forces text format
	assert.Equal(t, "redis://test-redis:6379", cfg.Memory.RedisURL)
	assert.True(t, cfg.Development.Enabled)
	assert.True(t, cfg.Development.MockProvider)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")

	configData := map[string]interface{}{
		"name":      "file-agent",
		"namespace": "file-namespace",
		"logging": map[string]interface{}{
			"level":  "warn",
			"format": "text",
		},
	}

	jsonData, err := json.MarshalIndent(configData, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, jsonData, 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(configFile))

	assert.Equal(t, "file-agent", cfg.Name)
	assert.Equal(t, "file-namespace", cfg.Namespace)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Config)
		wantErr string
	}{
		{
			name:    "valid configuration",
			setup:   func(cfg *Config) {},
			wantErr: "",
		},
		{
			name: "missing agent name",
			setup: func(cfg *Config) {
				cfg.Name = ""
			},
			wantErr: "agent name is required",
		},
		{
			name: "rejection threshold out of range",
			setup: func(cfg *Config) {
				cfg.Routing.RejectionThreshold = 150
			},
			wantErr: "invalid rejection threshold",
		},
		{
			name: "hybrid threshold below rejection threshold",
			setup: func(cfg *Config) {
				cfg.Routing.RejectionThreshold = 80
				cfg.Routing.HybridThreshold = 60
			},
			wantErr: "hybrid threshold must be",
		},
		{
			name: "telemetry enabled without endpoint",
			setup: func(cfg *Config) {
				cfg.Telemetry.Enabled = true
				cfg.Telemetry.Endpoint = ""
			},
			wantErr: "telemetry endpoint is required",
		},
		{
			name: "redis memory provider without URL",
			setup: func(cfg *Config) {
				cfg.Memory.Provider = "redis"
				cfg.Memory.RedisURL = ""
			},
			wantErr: "redis URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.setup(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFunctionalOptions(t *testing.T) {
	t.Run("WithName", func(t *testing.T) {
		cfg, err := NewConfig(WithName("custom-agent"))
		require.NoError(t, err)
		assert.Equal(t, "custom-agent", cfg.Name)
	})

	t.Run("WithNamespace", func(t *testing.T) {
		cfg, err := NewConfig(WithNamespace("production"))
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Namespace)
	})

	t.Run("WithDefaultProvider", func(t *testing.T) {
		cfg, err := NewConfig(WithDefaultProvider("premium"))
		require.NoError(t, err)
		assert.Equal(t, "premium", cfg.Routing.DefaultProvider)
	})

	t.Run("WithRejectionThreshold", func(t *testing.T) {
		cfg, err := NewConfig(WithRejectionThreshold(50))
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Routing.RejectionThreshold)

		_, err = NewConfig(WithRejectionThreshold(200))
		assert.Error(t, err)
	})

	t.Run("WithHybridThreshold", func(t *testing.T) {
		cfg, err := NewConfig(WithHybridThreshold(90))
		require.NoError(t, err)
		assert.Equal(t, 90, cfg.Routing.HybridThreshold)
	})

	t.Run("WithMaxRetries", func(t *testing.T) {
		cfg, err := NewConfig(WithMaxRetries(5))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Routing.MaxRetries)
	})

	t.Run("WithContextTargetTokens", func(t *testing.T) {
		cfg, err := NewConfig(WithContextTargetTokens(4000))
		require.NoError(t, err)
		assert.Equal(t, 4000, cfg.Routing.ContextTargetTokens)
	})

	t.Run("WithRedisURL", func(t *testing.T) {
		url := "redis://custom-redis:6379"
		cfg, err := NewConfig(WithRedisURL(url))
		require.NoError(t, err)
		assert.Equal(t, url, cfg.Memory.RedisURL)
		assert.Equal(t, "redis", cfg.Memory.Provider)
	})

	t.Run("WithTelemetry", func(t *testing.T) {
		cfg, err := NewConfig(WithTelemetry(true, "http://otel:4317"))
		require.NoError(t, err)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "http://otel:4317", cfg.Telemetry.Endpoint)
	})

	t.Run("WithLogLevel", func(t *testing.T) {
		cfg, err := NewConfig(WithLogLevel("debug"))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("WithCircuitBreaker", func(t *testing.T) {
		cfg, err := NewConfig(WithCircuitBreaker(10, 60*time.Second))
		require.NoError(t, err)
		assert.True(t, cfg.Resilience.CircuitBreaker.Enabled)
		assert.Equal(t, 10, cfg.Resilience.CircuitBreaker.Threshold)
	})

	t.Run("WithRetry", func(t *testing.T) {
		cfg, err := NewConfig(WithRetry(5, 2*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5, cfg.Resilience.Retry.MaxAttempts)
	})

	t.Run("WithDevelopmentMode", func(t *testing.T) {
		cfg, err := NewConfig(WithDevelopmentMode(true))
		require.NoError(t, err)
		assert.True(t, cfg.Development.Enabled)
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("WithMockProvider", func(t *testing.T) {
		cfg, err := NewConfig(WithMockProvider(true))
		require.NoError(t, err)
		assert.True(t, cfg.Development.MockProvider)
	})
}

func TestConfigPriority(t *testing.T) {
	_ = os.Setenv("FABRIC_REJECTION_THRESHOLD", "40")
	defer func() { _ = os.Unsetenv("FABRIC_REJECTION_THRESHOLD") }()

	cfg, err := NewConfig(WithRejectionThreshold(55))
	require.NoError(t, err)

	// Functional option should win over environment variable.
	assert.Equal(t, 55, cfg.Routing.RejectionThreshold)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"True", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseBool(tt.input), "input: %s", tt.input)
	}
}

func TestConfigWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test-config.json")

	configData := map[string]interface{}{
		"name": "file-loaded-agent",
	}

	jsonData, err := json.MarshalIndent(configData, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, jsonData, 0644))

	cfg, err := NewConfig(
		WithConfigFile(configFile),
		WithNamespace("overridden"), // functional option applied after file
	)
	require.NoError(t, err)

	assert.Equal(t, "file-loaded-agent", cfg.Name)
	assert.Equal(t, "overridden", cfg.Namespace)
}

func BenchmarkNewConfig(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = NewConfig(
			WithName("bench-agent"),
			WithRejectionThreshold(60),
			WithRedisURL("redis://localhost:6379"),
		)
	}
}

func BenchmarkValidate(b *testing.B) {
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.Validate()
	}
}

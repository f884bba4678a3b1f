package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration options for the fabric runtime.
// It supports three-layer configuration priority:
//  1. Default values (lowest priority)
//  2. Environment variables (medium priority)
//  3. Functional options (highest priority)
//
// Example usage:
//
//	cfg, err := NewConfig(
//	    WithName("delegation-fabric"),
//	    WithDefaultProvider("balanced"),
//	    WithRejectionThreshold(60),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	// Core identity
	Name      string `json:"name" env:"FABRIC_AGENT_NAME"`
	ID        string `json:"id" env:"FABRIC_AGENT_ID"`
	Namespace string `json:"namespace" env:"FABRIC_NAMESPACE" default:"default"`

	// Routing configuration
	Routing RoutingConfig `json:"routing"`

	// Telemetry configuration (optional module)
	Telemetry TelemetryConfig `json:"telemetry"`

	// Memory configuration (session/cost/A2A backing store)
	Memory MemoryConfig `json:"memory"`

	// Resilience configuration
	Resilience ResilienceConfig `json:"resilience"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Development configuration
	Development DevelopmentConfig `json:"development"`

	// Logger instance for configuration operations (excluded from JSON)
	logger Logger `json:"-"`
}

// RoutingConfig contains the thresholds and switches that drive the
// quality-aware task router and orchestrators.
type RoutingConfig struct {
	DefaultProvider       string  `json:"default_provider" env:"FABRIC_DEFAULT_PROVIDER" default:"balanced"`
	EnableFallback        bool    `json:"enable_fallback" env:"FABRIC_ENABLE_FALLBACK" default:"true"`
	EnableQualityRouting  bool    `json:"enable_quality_routing" env:"FABRIC_ENABLE_QUALITY_ROUTING" default:"true"`
	RejectionThreshold    int     `json:"rejection_threshold" env:"FABRIC_REJECTION_THRESHOLD" default:"60"`
	HybridThreshold       int     `json:"hybrid_threshold" env:"FABRIC_HYBRID_THRESHOLD" default:"80"`
	ValidationThreshold   int     `json:"validation_threshold" env:"FABRIC_VALIDATION_THRESHOLD" default:"80"`
	MaxRetries            int     `json:"max_retries" env:"FABRIC_MAX_RETRIES" default:"2"`
	ContextTargetTokens   int     `json:"context_target_tokens" env:"FABRIC_CONTEXT_TARGET_TOKENS" default:"8000"`
	QualityCeilingDefault float64 `json:"quality_ceiling_default" default:"70"`
}

// TelemetryConfig contains observability configuration for metrics and
// distributed tracing. This is an optional module — telemetry is only
// initialized when Enabled=true. Supports OpenTelemetry (OTEL).
type TelemetryConfig struct {
	Enabled        bool    `json:"enabled" env:"FABRIC_TELEMETRY_ENABLED" default:"false"`
	Provider       string  `json:"provider" env:"FABRIC_TELEMETRY_PROVIDER" default:"otel"`
	Endpoint       string  `json:"endpoint" env:"FABRIC_TELEMETRY_ENDPOINT,OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string  `json:"service_name" env:"FABRIC_TELEMETRY_SERVICE_NAME,OTEL_SERVICE_NAME"`
	MetricsEnabled bool    `json:"metrics_enabled" env:"FABRIC_TELEMETRY_METRICS" default:"true"`
	TracingEnabled bool    `json:"tracing_enabled" env:"FABRIC_TELEMETRY_TRACING" default:"true"`
	SamplingRate   float64 `json:"sampling_rate" env:"FABRIC_TELEMETRY_SAMPLING_RATE" default:"1.0"`
	Insecure       bool    `json:"insecure" env:"FABRIC_TELEMETRY_INSECURE" default:"true"`
}

// MemoryConfig contains state storage configuration, shared by the
// session continuity core, the cost tracker, and the A2A bus's optional
// distributed backing store.
// Supports in-memory storage (default) or Redis for distributed state.
type MemoryConfig struct {
	Provider        string        `json:"provider" env:"FABRIC_MEMORY_PROVIDER" default:"inmemory"`
	RedisURL        string        `json:"redis_url" env:"FABRIC_MEMORY_REDIS_URL,REDIS_URL"`
	MaxSize         int           `json:"max_size" env:"FABRIC_MEMORY_MAX_SIZE" default:"1000"`
	DefaultTTL      time.Duration `json:"default_ttl" env:"FABRIC_MEMORY_DEFAULT_TTL" default:"1h"`
	CleanupInterval time.Duration `json:"cleanup_interval" env:"FABRIC_MEMORY_CLEANUP_INTERVAL" default:"10m"`
}

// ResilienceConfig contains fault tolerance and resilience patterns
// configuration for the LLM client's provider fallback chain.
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
	Retry          RetryConfig          `json:"retry"`
	Timeout        TimeoutConfig        `json:"timeout"`
}

// CircuitBreakerConfig defines circuit breaker pattern settings. The
// circuit breaker prevents hammering an unhealthy provider by failing
// fast once a threshold of consecutive errors is reached.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled" env:"FABRIC_CB_ENABLED" default:"true"`
	Threshold        int           `json:"threshold" env:"FABRIC_CB_THRESHOLD" default:"5"`
	Timeout          time.Duration `json:"timeout" env:"FABRIC_CB_TIMEOUT" default:"30s"`
	HalfOpenRequests int           `json:"half_open_requests" env:"FABRIC_CB_HALF_OPEN" default:"3"`
}

// RetryConfig defines retry pattern settings with exponential backoff.
// Formula: interval = min(InitialInterval * (Multiplier ^ attempt), MaxInterval)
type RetryConfig struct {
	MaxAttempts     int           `json:"max_attempts" env:"FABRIC_RETRY_MAX_ATTEMPTS" default:"3"`
	InitialInterval time.Duration `json:"initial_interval" env:"FABRIC_RETRY_INITIAL_INTERVAL" default:"1s"`
	MaxInterval     time.Duration `json:"max_interval" env:"FABRIC_RETRY_MAX_INTERVAL" default:"30s"`
	Multiplier      float64       `json:"multiplier" env:"FABRIC_RETRY_MULTIPLIER" default:"2.0"`
}

// TimeoutConfig defines timeout settings for various operations,
// including A2A send_and_wait futures.
type TimeoutConfig struct {
	DefaultTimeout time.Duration `json:"default_timeout" env:"FABRIC_TIMEOUT_DEFAULT" default:"30s"`
	MaxTimeout     time.Duration `json:"max_timeout" env:"FABRIC_TIMEOUT_MAX" default:"5m"`
	A2ATimeout     time.Duration `json:"a2a_timeout" env:"FABRIC_A2A_TIMEOUT" default:"60s"`
}

// LoggingConfig contains logging configuration. Supports structured
// (JSON) and human-readable (text) formats.
type LoggingConfig struct {
	Level      string `json:"level" env:"FABRIC_LOG_LEVEL" default:"info"`
	Format     string `json:"format" env:"FABRIC_LOG_FORMAT" default:"json"`
	Output     string `json:"output" env:"FABRIC_LOG_OUTPUT" default:"stdout"`
	TimeFormat string `json:"time_format" env:"FABRIC_LOG_TIME_FORMAT" default:"2006-01-02T15:04:05.000Z07:00"`
}

// DevelopmentConfig contains settings for local development and testing.
// When Enabled=true, the framework uses development-friendly defaults:
// human-readable logs at debug level. The mock LLM provider is switched
// separately by MockProvider.
type DevelopmentConfig struct {
	Enabled      bool `json:"enabled" env:"FABRIC_DEV_MODE" default:"false"`
	MockProvider bool `json:"mock_provider" env:"FABRIC_MOCK_PROVIDER" default:"false"`
	DebugLogging bool `json:"debug_logging" env:"FABRIC_DEBUG" default:"false"`
	PrettyLogs   bool `json:"pretty_logs" env:"FABRIC_PRETTY_LOGS" default:"false"`
}

// Option is a functional option for configuring the framework. Options
// are applied in order and can return an error if the configuration is
// invalid.
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{
		Name:      "fabric",
		Namespace: "default",
		Routing: RoutingConfig{
			DefaultProvider:       "balanced",
			EnableFallback:        true,
			EnableQualityRouting:  true,
			RejectionThreshold:    60,
			HybridThreshold:       80,
			ValidationThreshold:   80,
			MaxRetries:            2,
			ContextTargetTokens:   8000,
			QualityCeilingDefault: 70,
		},
		Telemetry: TelemetryConfig{
			Enabled:        false,
			Provider:       "otel",
			MetricsEnabled: true,
			TracingEnabled: true,
			SamplingRate:   1.0,
			Insecure:       true,
		},
		Memory: MemoryConfig{
			Provider:        "inmemory",
			MaxSize:         1000,
			DefaultTTL:      1 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				Threshold:        5,
				Timeout:          30 * time.Second,
				HalfOpenRequests: 3,
			},
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 1 * time.Second,
				MaxInterval:     30 * time.Second,
				Multiplier:      2.0,
			},
			Timeout: TimeoutConfig{
				DefaultTimeout: 30 * time.Second,
				MaxTimeout:     5 * time.Minute,
				A2ATimeout:     60 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Output:     "stdout",
			TimeFormat: time.RFC3339Nano,
		},
		Development: DevelopmentConfig{
			Enabled:      false,
			MockProvider: false,
			DebugLogging: false,
			PrettyLogs:   false,
		},
	}

	cfg.DetectEnvironment()

	return cfg
}

// DetectEnvironment turns on development mode with pretty text logs when
// FABRIC_DEV_MODE hasn't been set explicitly.
func (c *Config) DetectEnvironment() {
	if os.Getenv("FABRIC_DEV_MODE") == "" {
		c.Development.Enabled = true
		c.Development.PrettyLogs = true
		c.Logging.Format = "text"
	}
}

// LoadFromEnv loads configuration from environment variables and
// validates the result. Environment variables take precedence over
// defaults but are overridden by functional options.
func (c *Config) LoadFromEnv() error {
	if c.logger != nil {
		c.logger.Info("loading configuration from environment", map[string]interface{}{
			"config_source": "environment_variables",
		})
	}

	if v := os.Getenv("FABRIC_AGENT_NAME"); v != "" {
		c.Name = v
	}
	if v := os.Getenv("FABRIC_AGENT_ID"); v != "" {
		c.ID = v
	}
	if v := os.Getenv("FABRIC_NAMESPACE"); v != "" {
		c.Namespace = v
	}

	// Routing settings
	if v := os.Getenv("FABRIC_DEFAULT_PROVIDER"); v != "" {
		c.Routing.DefaultProvider = v
	}
	if v := os.Getenv("FABRIC_ENABLE_FALLBACK"); v != "" {
		c.Routing.EnableFallback = parseBool(v)
	}
	if v := os.Getenv("FABRIC_ENABLE_QUALITY_ROUTING"); v != "" {
		c.Routing.EnableQualityRouting = parseBool(v)
	}
	if v := os.Getenv("FABRIC_REJECTION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Routing.RejectionThreshold = n
		}
	}
	if v := os.Getenv("FABRIC_HYBRID_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Routing.HybridThreshold = n
		}
	}
	if v := os.Getenv("FABRIC_VALIDATION_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Routing.ValidationThreshold = n
		}
	}
	if v := os.Getenv("FABRIC_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Routing.MaxRetries = n
		}
	}
	if v := os.Getenv("FABRIC_CONTEXT_TARGET_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Routing.ContextTargetTokens = n
		}
	}

	// Telemetry settings
	if v := os.Getenv("FABRIC_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	if v := os.Getenv("FABRIC_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	} else if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
		c.Telemetry.Enabled = true
	}
	if v := os.Getenv("FABRIC_TELEMETRY_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	} else if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		c.Telemetry.ServiceName = v
	} else if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}

	// Memory settings
	if v := os.Getenv("FABRIC_MEMORY_PROVIDER"); v != "" {
		c.Memory.Provider = v
	}
	if v := os.Getenv("FABRIC_MEMORY_REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" {
		c.Memory.RedisURL = v
	}

	// Logging settings
	if v := os.Getenv("FABRIC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FABRIC_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	// Development settings
	if v := os.Getenv("FABRIC_DEV_MODE"); v != "" {
		c.Development.Enabled = parseBool(v)
		if c.Development.Enabled {
			c.Development.PrettyLogs = true
			c.Logging.Level = "debug"
			c.Logging.Format = "text"
		}
	}
	if v := os.Getenv("FABRIC_MOCK_PROVIDER"); v != "" {
		c.Development.MockProvider = parseBool(v)
	}
	if v := os.Getenv("FABRIC_DEBUG"); v != "" {
		c.Development.DebugLogging = parseBool(v)
		if c.Development.DebugLogging {
			c.Logging.Level = "debug"
		}
	}

	if err := c.Validate(); err != nil {
		if c.logger != nil {
			c.logger.Error("configuration validation failed", map[string]interface{}{
				"error":         err.Error(),
				"config_source": "environment_variables",
			})
		}
		return err
	}

	return nil
}

// LoadFromFile loads configuration from a JSON file. File settings
// override environment variables but are overridden by functional
// options.
func (c *Config) LoadFromFile(path string) error {
	cleanPath := filepath.Clean(path)

	ext := filepath.Ext(cleanPath)
	if ext != ".json" {
		return fmt.Errorf("unsupported config file extension %s: %w", ext, ErrInvalidConfiguration)
	}

	if !filepath.IsAbs(cleanPath) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		cleanPath = filepath.Join(wd, cleanPath)
	}

	data, err := os.ReadFile(filepath.Clean(cleanPath)) // nosec G304 -- path is validated above
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cleanPath, err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse JSON config file: %w", ErrInvalidConfiguration)
	}

	return nil
}

// Validate checks if the configuration is valid and returns an error if
// not. Called automatically by NewConfig, but may be called manually
// after modifying configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "agent name is required",
			Err:     ErrMissingConfiguration,
		}
	}

	if c.Routing.RejectionThreshold < 0 || c.Routing.RejectionThreshold > 100 {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: fmt.Sprintf("invalid rejection threshold: %d", c.Routing.RejectionThreshold),
			Err:     ErrInvalidConfiguration,
		}
	}

	if c.Routing.HybridThreshold < c.Routing.RejectionThreshold {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "hybrid threshold must be >= rejection threshold",
			Err:     ErrInvalidConfiguration,
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "telemetry endpoint is required when telemetry is enabled",
			Err:     ErrMissingConfiguration,
		}
	}

	if c.Memory.Provider == "redis" && c.Memory.RedisURL == "" {
		return &FrameworkError{
			Op:      "Config.Validate",
			Kind:    "config",
			Message: "redis URL is required for the redis memory provider",
			Err:     ErrMissingConfiguration,
		}
	}

	return nil
}

// Helper functions

// parseBool converts a string to a boolean value. Accepts "true", "1",
// "yes", "on" (case-insensitive) as true. Everything else is false.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Functional Options

// WithName sets the agent name.
func WithName(name string) Option {
	return func(c *Config) error {
		c.Name = name
		return nil
	}
}

// WithNamespace sets the logical namespace, used for multi-tenancy and
// environment separation (e.g. "production", "staging").
func WithNamespace(namespace string) Option {
	return func(c *Config) error {
		c.Namespace = namespace
		return nil
	}
}

// WithDefaultProvider sets the provider tier used when the router's
// recommendation isn't overridden by the caller.
func WithDefaultProvider(provider string) Option {
	return func(c *Config) error {
		c.Routing.DefaultProvider = provider
		return nil
	}
}

// WithRejectionThreshold sets the minimum predicted quality score (0-100)
// below which a task is rejected outright.
func WithRejectionThreshold(threshold int) Option {
	return func(c *Config) error {
		if threshold < 0 || threshold > 100 {
			return &FrameworkError{
				Op:      "WithRejectionThreshold",
				Kind:    "config",
				Message: fmt.Sprintf("invalid rejection threshold: %d", threshold),
				Err:     ErrInvalidConfiguration,
			}
		}
		c.Routing.RejectionThreshold = threshold
		return nil
	}
}

// WithHybridThreshold sets the minimum predicted quality score above
// which a task is delegated outright rather than routed to hybrid
// generate+validate.
func WithHybridThreshold(threshold int) Option {
	return func(c *Config) error {
		c.Routing.HybridThreshold = threshold
		return nil
	}
}

// WithValidationThreshold sets the minimum validation rubric score
// (0-100) the hybrid orchestrator accepts without retrying generation.
func WithValidationThreshold(threshold int) Option {
	return func(c *Config) error {
		c.Routing.ValidationThreshold = threshold
		return nil
	}
}

// WithMaxRetries sets the maximum number of hybrid generate/validate
// retries before escalating.
func WithMaxRetries(n int) Option {
	return func(c *Config) error {
		c.Routing.MaxRetries = n
		return nil
	}
}

// WithContextTargetTokens sets the context_target_tokens setting. The
// session and a2a packages do not read it; the APC adapter's
// prepare_context has its own 8000-token default.
func WithContextTargetTokens(tokens int) Option {
	return func(c *Config) error {
		c.Routing.ContextTargetTokens = tokens
		return nil
	}
}

// WithRedisURL sets the Redis connection URL for the distributed memory
// backend and auto-selects the "redis" memory provider.
func WithRedisURL(url string) Option {
	return func(c *Config) error {
		c.Memory.RedisURL = url
		c.Memory.Provider = "redis"
		return nil
	}
}

// WithMemoryProvider sets the state storage provider ("inmemory" or
// "redis"; "redis" requires WithRedisURL).
func WithMemoryProvider(provider string) Option {
	return func(c *Config) error {
		c.Memory.Provider = provider
		return nil
	}
}

// WithTelemetry enables telemetry with the specified OTLP endpoint.
func WithTelemetry(enabled bool, endpoint string) Option {
	return func(c *Config) error {
		c.Telemetry.Enabled = enabled
		c.Telemetry.Endpoint = endpoint
		if c.Telemetry.ServiceName == "" {
			c.Telemetry.ServiceName = c.Name
		}
		return nil
	}
}

// WithEnableMetrics enables or disables metrics collection.
func WithEnableMetrics(enabled bool) Option {
	return func(c *Config) error {
		c.Telemetry.MetricsEnabled = enabled
		return nil
	}
}

// WithEnableTracing enables or disables distributed tracing.
func WithEnableTracing(enabled bool) Option {
	return func(c *Config) error {
		c.Telemetry.TracingEnabled = enabled
		return nil
	}
}

// WithLogLevel sets the minimum logging level ("error", "warn", "info",
// "debug").
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.Logging.Level = level
		return nil
	}
}

// WithLogFormat sets the logging output format ("json" or "text").
func WithLogFormat(format string) Option {
	return func(c *Config) error {
		c.Logging.Format = format
		return nil
	}
}

// WithCircuitBreaker enables the circuit breaker pattern for provider
// fallback, tripping after threshold consecutive failures and staying
// open for timeout before probing again.
func WithCircuitBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) error {
		c.Resilience.CircuitBreaker.Enabled = true
		c.Resilience.CircuitBreaker.Threshold = threshold
		c.Resilience.CircuitBreaker.Timeout = timeout
		return nil
	}
}

// WithRetry configures automatic retry with exponential backoff for
// transient provider failures.
func WithRetry(maxAttempts int, initialInterval time.Duration) Option {
	return func(c *Config) error {
		c.Resilience.Retry.MaxAttempts = maxAttempts
		c.Resilience.Retry.InitialInterval = initialInterval
		return nil
	}
}

// WithConfigFile loads configuration from a JSON file before later
// options are applied.
func WithConfigFile(path string) Option {
	return func(c *Config) error {
		return c.LoadFromFile(path)
	}
}

// WithDevelopmentMode enables development mode with developer-friendly
// defaults: pretty logs, debug level, text format.
func WithDevelopmentMode(enabled bool) Option {
	return func(c *Config) error {
		c.Development.Enabled = enabled
		if enabled {
			c.Development.PrettyLogs = true
			c.Logging.Format = "text"
			c.Logging.Level = "debug"
		}
		return nil
	}
}

// WithMockProvider enables the mock-bulk LLM provider for testing
// without API calls or credentials.
func WithMockProvider(enabled bool) Option {
	return func(c *Config) error {
		c.Development.MockProvider = enabled
		return nil
	}
}

// WithLogger sets a logger for configuration operations. If not set,
// configuration operations are performed silently.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// NewConfig creates a new configuration with the provided options,
// applied in the order: defaults, environment variables, then
// functional options (highest priority), followed by validation.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if cfg.logger == nil {
		logger := NewProductionLogger(cfg.Logging, cfg.Development, cfg.Name)

		if prodLogger, ok := logger.(*ProductionLogger); ok {
			trackLogger(prodLogger)
		}

		cfg.logger = logger
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ============================================================================
// ProductionLogger Implementation - Layered Observability Architecture
// ============================================================================

// ProductionLogger provides layered observability for framework operations.
type ProductionLogger struct {
	level       string
	debug       bool
	serviceName string
	format      string
	output      io.Writer

	// Metrics layer (enabled when telemetry available)
	metricsEnabled bool
}

// NewProductionLogger creates a logger from LoggingConfig.
func NewProductionLogger(logging LoggingConfig, dev DevelopmentConfig, serviceName string) Logger {
	var output io.Writer = os.Stdout
	if logging.Output == "stderr" {
		output = os.Stderr
	}

	return &ProductionLogger{
		level:          strings.ToLower(logging.Level),
		debug:          dev.DebugLogging || logging.Level == "debug",
		serviceName:    serviceName,
		format:         logging.Format,
		output:         output,
		metricsEnabled: false,
	}
}

// EnableMetrics is called by the telemetry module to enable the metrics
// emission layer once it becomes available.
func (p *ProductionLogger) EnableMetrics() {
	p.metricsEnabled = true
}

func (p *ProductionLogger) Info(msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, nil)
}

func (p *ProductionLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("INFO", msg, fields, ctx)
}

func (p *ProductionLogger) Error(msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, nil)
}

func (p *ProductionLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("ERROR", msg, fields, ctx)
}

func (p *ProductionLogger) Warn(msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, nil)
}

func (p *ProductionLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	p.logEvent("WARN", msg, fields, ctx)
}

func (p *ProductionLogger) Debug(msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, nil)
	}
}

func (p *ProductionLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.debug {
		p.logEvent("DEBUG", msg, fields, ctx)
	}
}

// WithComponent returns a logger that tags every entry with component,
// satisfying core.ComponentAwareLogger.
func (p *ProductionLogger) WithComponent(component string) Logger {
	return &componentLogger{base: p, component: component}
}

// Core logging implementation with all three layers.
func (p *ProductionLogger) logEvent(level, msg string, fields map[string]interface{}, ctx context.Context) {
	p.logEventComponent(level, "", msg, fields, ctx)
}

func (p *ProductionLogger) logEventComponent(level, component, msg string, fields map[string]interface{}, ctx context.Context) {
	timestamp := time.Now().Format(time.RFC3339)

	if p.format == "json" {
		logEntry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level,
			"service":   p.serviceName,
			"message":   msg,
		}
		if component != "" {
			logEntry["component"] = component
		}

		if ctx != nil && p.metricsEnabled {
			if baggage := getContextBaggage(ctx); len(baggage) > 0 {
				for k, v := range baggage {
					logEntry["trace."+k] = v
				}
			}
		}

		for k, v := range fields {
			logEntry[k] = v
		}

		if data, err := json.Marshal(logEntry); err == nil {
			fmt.Fprintln(p.output, string(data))
		}
	} else {
		traceInfo := ""
		if ctx != nil && p.metricsEnabled {
			if baggage := getContextBaggage(ctx); baggage["request_id"] != "" {
				traceInfo = fmt.Sprintf("[req=%s] ", baggage["request_id"])
			}
		}

		tag := p.serviceName
		if component != "" {
			tag = component
		}

		var fieldStr strings.Builder
		if len(fields) > 0 {
			fieldStr.WriteString(" ")
			for k, v := range fields {
				fieldStr.WriteString(fmt.Sprintf("%s=%v ", k, v))
			}
		}

		fmt.Fprintf(p.output, "%s [%s] [%s] %s%s%s\n",
			timestamp, level, tag, traceInfo, msg, fieldStr.String())
	}

	if p.metricsEnabled {
		p.emitFrameworkMetric(level, component, fields, ctx)
	}
}

// Metrics emission with cardinality protection.
func (p *ProductionLogger) emitFrameworkMetric(level, component string, fields map[string]interface{}, ctx context.Context) {
	labels := []string{
		"level", level,
		"service", p.serviceName,
	}
	if component != "" {
		labels = append(labels, "component", component)
	}

	for k, v := range fields {
		switch k {
		case "operation", "status", "error_type", "provider", "task_type":
			labels = append(labels, k, fmt.Sprintf("%v", v))
		}
	}

	if ctx != nil {
		emitMetricWithContext(ctx, "fabric.framework.operations", 1.0, labels...)
	} else {
		emitMetric("fabric.framework.operations", 1.0, labels...)
	}
}

// componentLogger tags every log entry with a fixed component name,
// e.g. "llm", "routing", "orchestration", "a2a", "session".
type componentLogger struct {
	base      *ProductionLogger
	component string
}

func (c *componentLogger) Info(msg string, fields map[string]interface{}) {
	c.base.logEventComponent("INFO", c.component, msg, fields, nil)
}
func (c *componentLogger) Error(msg string, fields map[string]interface{}) {
	c.base.logEventComponent("ERROR", c.component, msg, fields, nil)
}
func (c *componentLogger) Warn(msg string, fields map[string]interface{}) {
	c.base.logEventComponent("WARN", c.component, msg, fields, nil)
}
func (c *componentLogger) Debug(msg string, fields map[string]interface{}) {
	if c.base.debug {
		c.base.logEventComponent("DEBUG", c.component, msg, fields, nil)
	}
}
func (c *componentLogger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	c.base.logEventComponent("INFO", c.component, msg, fields, ctx)
}
func (c *componentLogger) ErrorWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	c.base.logEventComponent("ERROR", c.component, msg, fields, ctx)
}
func (c *componentLogger) WarnWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	c.base.logEventComponent("WARN", c.component, msg, fields, ctx)
}
func (c *componentLogger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	if c.base.debug {
		c.base.logEventComponent("DEBUG", c.component, msg, fields, ctx)
	}
}

// Helper functions for weak coupling to telemetry.
func emitMetric(name string, value float64, labels ...string) {
	if globalMetricsRegistry != nil {
		globalMetricsRegistry.Counter(name, labels...)
	}
}

func emitMetricWithContext(ctx context.Context, name string, value float64, labels ...string) {
	if globalMetricsRegistry != nil {
		globalMetricsRegistry.EmitWithContext(ctx, name, value, labels...)
	}
}

func getContextBaggage(ctx context.Context) map[string]string {
	if globalMetricsRegistry != nil {
		return globalMetricsRegistry.GetBaggage(ctx)
	}
	return make(map[string]string)
}

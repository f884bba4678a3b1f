package resilience

import (
	"context"
	"testing"

	"github.com/delegatefabric/fabric/core"
)

type fakeTelemetry struct{}

func (fakeTelemetry) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	return ctx, nil
}
func (fakeTelemetry) RecordMetric(name string, value float64, labels map[string]string) {}

func TestCreateCircuitBreakerEnablesTelemetryMetricsWhenDepsProvided(t *testing.T) {
	cb, err := CreateCircuitBreaker("test-breaker", ResilienceDependencies{Telemetry: fakeTelemetry{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cb.config.Metrics.(*TelemetryMetrics); !ok {
		t.Errorf("config.Metrics = %T, want *TelemetryMetrics", cb.config.Metrics)
	}
}

func TestCreateCircuitBreakerDefaultsToNoopMetricsWithoutTelemetry(t *testing.T) {
	cb, err := CreateCircuitBreaker("test-breaker-noop", ResilienceDependencies{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cb.config.Metrics.(*TelemetryMetrics); ok {
		t.Error("expected noop metrics without telemetry.GetRegistry() and no explicit Telemetry dep")
	}
}

func TestCreateRetryConfigReturnsUsableDefaults(t *testing.T) {
	cfg := CreateRetryConfig(ResilienceDependencies{})
	if cfg.MaxAttempts <= 0 {
		t.Errorf("MaxAttempts = %d, want > 0", cfg.MaxAttempts)
	}
	if cfg.InitialDelay <= 0 {
		t.Errorf("InitialDelay = %v, want > 0", cfg.InitialDelay)
	}
}

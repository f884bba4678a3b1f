package llm

import (
	"context"
	"sync"
	"testing"

	"github.com/delegatefabric/fabric/core"
)

// fakeMetricsRegistry records every emission so tests can assert on metric
// names and labels without standing up real telemetry.
type fakeMetricsRegistry struct {
	mu         sync.Mutex
	counters   []string
	histograms []string
}

func (f *fakeMetricsRegistry) Counter(name string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, name)
}

func (f *fakeMetricsRegistry) EmitWithContext(ctx context.Context, name string, value float64, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, name)
}

func (f *fakeMetricsRegistry) GetBaggage(ctx context.Context) map[string]string { return nil }

func (f *fakeMetricsRegistry) Gauge(name string, value float64, labels ...string) {}

func (f *fakeMetricsRegistry) Histogram(name string, value float64, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, name)
}

func (f *fakeMetricsRegistry) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range append(append([]string{}, f.counters...), f.histograms...) {
		if n == name {
			return true
		}
	}
	return false
}

func installFakeRegistry(t *testing.T) *fakeMetricsRegistry {
	t.Helper()
	reg := &fakeMetricsRegistry{}
	core.SetMetricsRegistry(reg)
	t.Cleanup(func() { core.SetMetricsRegistry(nil) })
	return reg
}

func TestClientCallEmitsLatencyAndCostMetrics(t *testing.T) {
	reg, cheap, _ := newTestRegistry(t)
	cheap.SetResponses("hello world")
	metrics := installFakeRegistry(t)

	client := NewClient(WithRegistry(reg))
	if _, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !metrics.has("llm.call.duration_ms") {
		t.Error("expected llm.call.duration_ms to be emitted")
	}
	if !metrics.has("llm.call.cost_usd") {
		t.Error("expected llm.call.cost_usd to be emitted")
	}
}

func TestClientCallEmitsErrorAndExhaustionMetrics(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetFailures(10, core.ErrAuthFailed)
	premium.SetFailures(10, core.ErrAuthFailed)
	metrics := installFakeRegistry(t)

	client := NewClient(WithRegistry(reg), WithRetryConfig(fastRetryConfig()))
	_, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"})
	if err == nil {
		t.Fatal("expected ProvidersExhausted error")
	}

	if !metrics.has("llm.call.errors") {
		t.Error("expected llm.call.errors to be emitted")
	}
	if !metrics.has("llm.provider.marked_failed") {
		t.Error("expected llm.provider.marked_failed to be emitted")
	}
	if !metrics.has("llm.fallback.exhausted") {
		t.Error("expected llm.fallback.exhausted to be emitted")
	}
}

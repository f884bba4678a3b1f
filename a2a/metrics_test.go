package a2a

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/delegatefabric/fabric/core"
)

type fakeMetricsRegistry struct {
	mu       sync.Mutex
	counters []string
	gauges   map[string]float64
}

func (f *fakeMetricsRegistry) Counter(name string, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, name)
}

func (f *fakeMetricsRegistry) EmitWithContext(ctx context.Context, name string, value float64, labels ...string) {
}

func (f *fakeMetricsRegistry) GetBaggage(ctx context.Context) map[string]string { return nil }

func (f *fakeMetricsRegistry) Gauge(name string, value float64, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gauges == nil {
		f.gauges = make(map[string]float64)
	}
	f.gauges[name] = value
}

func (f *fakeMetricsRegistry) Histogram(name string, value float64, labels ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, name)
}

func (f *fakeMetricsRegistry) has(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.counters {
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

func TestMessageBusEmitsRegisteredAgentsGauge(t *testing.T) {
	metrics := installFakeRegistry(t)
	bus := NewMessageBus()

	if err := bus.RegisterAgent(AgentRegistration{AgentID: "worker"}); err != nil {
		t.Fatalf("RegisterAgent: %v", err)
	}
	metrics.mu.Lock()
	got := metrics.gauges["a2a.agents.registered"]
	metrics.mu.Unlock()
	if got != 1 {
		t.Errorf("a2a.agents.registered = %v after register, want 1", got)
	}

	if err := bus.UnregisterAgent("worker"); err != nil {
		t.Fatalf("UnregisterAgent: %v", err)
	}
	metrics.mu.Lock()
	got = metrics.gauges["a2a.agents.registered"]
	metrics.mu.Unlock()
	if got != 0 {
		t.Errorf("a2a.agents.registered = %v after unregister, want 0", got)
	}
}

func TestMessageBusSendEmitsMessagesSent(t *testing.T) {
	metrics := installFakeRegistry(t)
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "worker"}); err != nil {
		t.Fatalf("RegisterAgent: %v", err)
	}

	if err := bus.Send(context.Background(), Message{FromAgent: "caller", ToAgent: "worker", Type: Event}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !metrics.has("a2a.messages.sent") {
		t.Error("expected a2a.messages.sent to be emitted")
	}
}

func TestSendAndWaitTimeoutEmitsMetric(t *testing.T) {
	metrics := installFakeRegistry(t)
	bus := NewMessageBus()
	if err := bus.RegisterAgent(AgentRegistration{AgentID: "worker"}); err != nil {
		t.Fatalf("RegisterAgent: %v", err)
	}

	_, err := bus.SendAndWait(context.Background(), Message{FromAgent: "caller", ToAgent: "worker", Type: Query}, 5*time.Millisecond)
	if err == nil {
		t.Fatal("expected a Timeout error, since nothing drains worker's queue")
	}
	if !metrics.has("a2a.send_and_wait.timeouts") {
		t.Error("expected a2a.send_and_wait.timeouts to be emitted")
	}
}

package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/resilience"
)

func fastRetryConfig() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  1 * time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func newTestRegistry(t *testing.T) (*ProviderRegistry, *mockProvider, *mockProvider) {
	t.Helper()
	reg := &ProviderRegistry{providers: make(map[string]ProviderFactory)}

	cheap := &mockProvider{name: "cheap", descriptor: ProviderDescriptor{
		Name: "cheap", DefaultModel: "cheap-v1",
		InputPricePerToken: 0.000001, OutputPricePerToken: 0.000002,
		MaxOutputTokens: 1000, Tier: 0,
	}}
	premium := &mockProvider{name: "premium", descriptor: ProviderDescriptor{
		Name: "premium", DefaultModel: "premium-v1",
		InputPricePerToken: 0.00001, OutputPricePerToken: 0.00002,
		MaxOutputTokens: 1000, Tier: 1,
	}}

	if err := reg.Register(staticFactory{p: cheap}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(staticFactory{p: premium}); err != nil {
		t.Fatal(err)
	}
	return reg, cheap, premium
}

// staticFactory wraps a pre-built mockProvider so tests can hold a pointer
// to the exact instance a Client will call into.
type staticFactory struct {
	p *mockProvider
}

func (f staticFactory) Name() string                   { return f.p.name }
func (f staticFactory) Descriptor() ProviderDescriptor { return f.p.descriptor }
func (f staticFactory) Available() bool                { return true }
func (f staticFactory) Create() Provider               { return f.p }

func TestClientCallSuccess(t *testing.T) {
	reg, cheap, _ := newTestRegistry(t)
	cheap.SetResponses("hello world")

	client := NewClient(WithRegistry(reg))
	resp, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "hello world" {
		t.Errorf("Text = %q, want %q", resp.Text, "hello world")
	}
	if resp.Provider != "cheap" {
		t.Errorf("Provider = %q, want cheap", resp.Provider)
	}

	summary := client.CostTracker().CostSummary()
	if summary.TotalCalls != 1 {
		t.Errorf("TotalCalls = %d, want 1", summary.TotalCalls)
	}
	if summary.TotalCost <= 0 {
		t.Errorf("TotalCost = %v, want > 0", summary.TotalCost)
	}
}

func TestClientFallsBackOnFailure(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetFailures(10, core.ErrTransientNetwork)
	premium.SetResponses("premium response")

	client := NewClient(WithRegistry(reg), WithRetryConfig(fastRetryConfig()))
	resp, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "premium" {
		t.Errorf("Provider = %q, want premium (cheap should have failed over)", resp.Provider)
	}
}

func TestClientProvidersExhausted(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetFailures(10, core.ErrTransientNetwork)
	premium.SetFailures(10, core.ErrTransientNetwork)

	client := NewClient(WithRegistry(reg), WithRetryConfig(fastRetryConfig()))
	_, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"})

	var exhausted *ProvidersExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ProvidersExhausted, got %v", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Errorf("Attempts = %d, want 2", len(exhausted.Attempts))
	}
}

func TestClientNonRetryableSkipsToFallback(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetFailures(1, core.ErrAuthFailed)
	premium.SetResponses("premium response")

	client := NewClient(WithRegistry(reg), WithRetryConfig(fastRetryConfig()))
	resp, err := client.Call(context.Background(), Request{Prompt: "hi", Operation: "test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Provider != "premium" {
		t.Errorf("Provider = %q, want premium", resp.Provider)
	}
}

func TestResetSession(t *testing.T) {
	reg, cheap, premium := newTestRegistry(t)
	cheap.SetFailures(10, core.ErrTransientNetwork)
	premium.SetResponses("premium response")

	client := NewClient(WithRegistry(reg), WithRetryConfig(fastRetryConfig()))
	if _, err := client.Call(context.Background(), Request{Prompt: "hi"}); err != nil {
		t.Fatal(err)
	}

	client.ResetSession(context.Background())
	cheap.SetFailures(0, nil)
	cheap.SetResponses("cheap is back")

	resp, err := client.Call(context.Background(), Request{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Provider != "cheap" {
		t.Errorf("Provider = %q, want cheap after ResetSession", resp.Provider)
	}
}

func TestBackoffDelay(t *testing.T) {
	d := backoffDelay(1*time.Second, 3, 10*time.Second)
	if d != 8*time.Second {
		t.Errorf("backoffDelay(1s, 3, 10s) = %v, want 8s", d)
	}
	capped := backoffDelay(1*time.Second, 10, 10*time.Second)
	if capped != 10*time.Second {
		t.Errorf("backoffDelay should cap at max, got %v", capped)
	}
}

package llm

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// Built-in provider tiers, registered at package init so a Client built
// with no explicit providers still has a usable fallback chain in tests
// and local development. Fallback order is fixed cheapest-bulk to
// most-reliable per the provider registry's Tier ordering: mockBulk (0) →
// fastCheap (1) → balanced (2) → premium (3).
func init() {
	MustRegister(&mockFactory{
		name: "mock-bulk",
		descriptor: ProviderDescriptor{
			Name:                "mock-bulk",
			DefaultModel:        "bulk-mini",
			InputPricePerToken:  0.0000001,
			OutputPricePerToken: 0.0000002,
			MaxOutputTokens:     4096,
			Tier:                0,
			Encoding:            "cl100k_base",
		},
	})
	MustRegister(&mockFactory{
		name: "fast-cheap",
		descriptor: ProviderDescriptor{
			Name:                "fast-cheap",
			DefaultModel:        "fast-cheap-v1",
			InputPricePerToken:  0.00000015,
			OutputPricePerToken: 0.0000006,
			MaxOutputTokens:     8192,
			AuthEnvNames:        []string{"FABRIC_FAST_CHEAP_API_KEY"},
			Tier:                1,
			Encoding:            "cl100k_base",
		},
	})
	MustRegister(&mockFactory{
		name: "balanced",
		descriptor: ProviderDescriptor{
			Name:                "balanced",
			DefaultModel:        "balanced-v1",
			InputPricePerToken:  0.0000025,
			OutputPricePerToken: 0.00001,
			MaxOutputTokens:     8192,
			AuthEnvNames:        []string{"FABRIC_BALANCED_API_KEY"},
			Tier:                2,
			Encoding:            "cl100k_base",
		},
	})
	MustRegister(&mockFactory{
		name: "premium",
		descriptor: ProviderDescriptor{
			Name:                "premium",
			DefaultModel:        "premium-v1",
			InputPricePerToken:  0.000015,
			OutputPricePerToken: 0.00006,
			MaxOutputTokens:     16384,
			AuthEnvNames:        []string{"FABRIC_PREMIUM_API_KEY"},
			Tier:                3,
			Encoding:            "cl100k_base",
		},
	})
}

// mockFactory builds deterministic providers for the four built-in cost
// tiers. Real vendor transports (HTTP clients to external LLM APIs) are out
// of scope; these providers exercise the full retry/fallback/cost-tracking
// machinery without a network dependency, and let a caller register a
// real ProviderFactory under the same name to replace one in production.
type mockFactory struct {
	name       string
	descriptor ProviderDescriptor
}

func (f *mockFactory) Name() string                   { return f.name }
func (f *mockFactory) Descriptor() ProviderDescriptor { return f.descriptor }

// Available reports true for mock-bulk unconditionally (it needs no
// credentials) and otherwise checks the descriptor's auth env names, same
// as a real provider's credential-presence check would.
func (f *mockFactory) Available() bool {
	if len(f.descriptor.AuthEnvNames) == 0 {
		return true
	}
	for _, name := range f.descriptor.AuthEnvNames {
		if os.Getenv(name) != "" {
			return true
		}
	}
	// Mock providers remain usable for local development and tests even
	// without credentials; a real transport would return false here.
	return os.Getenv("FABRIC_DEV_MODE") == "true"
}

func (f *mockFactory) Create() Provider {
	return &mockProvider{name: f.name, descriptor: f.descriptor}
}

// mockProvider is a deterministic Provider: it echoes a canned response
// shaped by the request, sized so cost/latency accounting is exercisable.
type mockProvider struct {
	name       string
	descriptor ProviderDescriptor

	mu        sync.Mutex
	responses []string
	failNext  int32 // calls remaining that should return an error, via SetFailures
	failErr   error
}

// SetResponses overrides the canned response queue, for tests that need a
// specific completion text from a specific tier.
func (p *mockProvider) SetResponses(responses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
}

// SetFailures makes the next n calls return err, useful for exercising the
// retry and fallback chain deterministically.
func (p *mockProvider) SetFailures(n int, err error) {
	atomic.StoreInt32(&p.failNext, int32(n))
	p.failErr = err
}

func (p *mockProvider) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	if remaining := atomic.LoadInt32(&p.failNext); remaining > 0 {
		atomic.AddInt32(&p.failNext, -1)
		return Response{}, p.failErr
	}

	text := p.nextResponse(req)

	return Response{
		Text:     text,
		Provider: p.name,
		Model:    p.descriptor.DefaultModel,
		Usage:    tokenUsageFor(req.Prompt, text, p.descriptor.Encoding),
	}, nil
}

func (p *mockProvider) nextResponse(req Request) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.responses) == 0 {
		return fmt.Sprintf("[%s mock response for operation %q]", p.name, req.Operation)
	}
	next := p.responses[0]
	if len(p.responses) > 1 {
		p.responses = p.responses[1:]
	}
	return next
}

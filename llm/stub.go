package llm

import (
	"context"
	"sync"
)

// StubProvider is an exported, deterministic Provider for use by other
// packages' tests: it never calls a real vendor API, and lets callers
// queue canned responses or inject failures, mirroring the unexported
// mockProvider used by this package's own tests.
type StubProvider struct {
	Name       string
	Descriptor ProviderDescriptor

	mu        sync.Mutex
	responses []string
	failNext  int
	failErr   error
}

// NewStubProvider builds a StubProvider with the given descriptor.
func NewStubProvider(name string, descriptor ProviderDescriptor) *StubProvider {
	descriptor.Name = name
	return &StubProvider{Name: name, Descriptor: descriptor}
}

// SetResponses overrides the canned response queue. The last response
// repeats once exhausted.
func (p *StubProvider) SetResponses(responses ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses = responses
}

// SetFailures makes the next n calls fail with err.
func (p *StubProvider) SetFailures(n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = n
	p.failErr = err
}

func (p *StubProvider) Generate(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}

	p.mu.Lock()
	if p.failNext > 0 {
		p.failNext--
		err := p.failErr
		p.mu.Unlock()
		return Response{}, err
	}
	text := "[stub response]"
	if len(p.responses) > 0 {
		text = p.responses[0]
		if len(p.responses) > 1 {
			p.responses = p.responses[1:]
		}
	}
	p.mu.Unlock()

	return Response{
		Text:     text,
		Provider: p.Name,
		Model:    p.Descriptor.DefaultModel,
		Usage:    tokenUsageFor(req.Prompt, text, p.Descriptor.Encoding),
	}, nil
}

// StubFactory adapts a pre-built *StubProvider to ProviderFactory, so
// tests can hold a pointer to the exact instance a Client will call into.
type StubFactory struct {
	Provider    *StubProvider
	IsAvailable bool
}

// NewStubFactory builds a ProviderFactory over provider, available to a
// Client's fallback chain unconditionally.
func NewStubFactory(provider *StubProvider) *StubFactory {
	return &StubFactory{Provider: provider, IsAvailable: true}
}

func (f *StubFactory) Name() string                   { return f.Provider.Name }
func (f *StubFactory) Descriptor() ProviderDescriptor { return f.Provider.Descriptor }
func (f *StubFactory) Available() bool                { return f.IsAvailable }
func (f *StubFactory) Create() Provider               { return f.Provider }

package llm

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderRegistry holds provider factories registered via Register or
// MustRegister, typically from an init() in the package that defines the
// concrete provider.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// defaultRegistry is the package-level registry built-in providers and
// caller-supplied providers both register into.
var defaultRegistry = &ProviderRegistry{
	providers: make(map[string]ProviderFactory),
}

// NewRegistry builds an empty ProviderRegistry, for callers (typically
// tests) that want an isolated fallback chain instead of the package's
// shared default.
func NewRegistry() *ProviderRegistry {
	return &ProviderRegistry{providers: make(map[string]ProviderFactory)}
}

// Register adds a provider factory to the default registry.
func Register(factory ProviderFactory) error {
	return defaultRegistry.Register(factory)
}

// MustRegister registers a provider and panics on error. Use from init().
func MustRegister(factory ProviderFactory) {
	if err := Register(factory); err != nil {
		panic(fmt.Sprintf("llm: failed to register provider: %v", err))
	}
}

// Register adds factory under its own name, rejecting duplicates.
func (r *ProviderRegistry) Register(factory ProviderFactory) error {
	if factory == nil {
		return fmt.Errorf("llm: factory cannot be nil")
	}
	name := factory.Name()
	if name == "" {
		return fmt.Errorf("llm: factory.Name() cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("llm: provider %q already registered", name)
	}
	r.providers[name] = factory
	return nil
}

// Get retrieves a registered factory by name.
func (r *ProviderRegistry) Get(name string) (ProviderFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.providers[name]
	return f, ok
}

// FallbackChain returns the available providers ordered by ascending Tier
// (cheapest-bulk first), the order the client walks on failure.
func (r *ProviderRegistry) FallbackChain() []ProviderFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]ProviderFactory, 0, len(r.providers))
	for _, f := range r.providers {
		if f.Available() {
			chain = append(chain, f)
		}
	}
	sort.Slice(chain, func(i, j int) bool {
		ti, tj := chain[i].Descriptor().Tier, chain[j].Descriptor().Tier
		if ti != tj {
			return ti < tj
		}
		return chain[i].Name() < chain[j].Name()
	})
	return chain
}

// Names returns every registered provider name, sorted.
func (r *ProviderRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns the package-level registry that built-in mock
// providers register into at init time.
func DefaultRegistry() *ProviderRegistry {
	return defaultRegistry
}

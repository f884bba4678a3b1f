package llm

import (
	"context"
)

// Provider is a single LLM backend capable of producing a completion.
// Concrete providers (mock or real vendor transports) implement this; the
// client never depends on a concrete provider type directly.
type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// ProviderFactory builds a Provider for a descriptor and reports whether it
// can currently be used (e.g. credentials configured).
type ProviderFactory interface {
	// Create returns a ready-to-call Provider.
	Create() Provider

	// Name is the registry key and the fallback-chain identifier.
	Name() string

	// Descriptor returns the pricing/limits metadata used by the cost
	// tracker and the fallback-chain ordering.
	Descriptor() ProviderDescriptor

	// Available reports whether the provider has what it needs (API keys,
	// local daemon reachable, etc.) to accept calls right now.
	Available() bool
}

// ProviderDescriptor is the immutable pricing/limits metadata for one
// provider, as held by the provider registry.
type ProviderDescriptor struct {
	Name                string
	DefaultModel        string
	InputPricePerToken  float64
	OutputPricePerToken float64
	MaxOutputTokens     int
	AuthEnvNames        []string
	// Tier orders the built-in fallback chain cheapest-bulk to
	// most-reliable: lower values are tried first.
	Tier int
	// Encoding names the tiktoken-go encoding (e.g. "cl100k_base") used to
	// size prompts/completions for this provider's cost accounting. Empty
	// falls back to the length/4 heuristic.
	Encoding string
}

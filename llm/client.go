package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/resilience"
)

// Client is the single entry point for completions: it hides provider
// differences, applies retries, walks a fallback chain, and records
// token/cost/latency per call on its CostTracker.
type Client struct {
	registry *ProviderRegistry
	cost     *CostTracker
	logger   core.Logger

	retryConfig  *resilience.RetryConfig
	failureStore ProviderFailureStore

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
	failed   map[string]bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger used for retry/fallback diagnostics.
func WithLogger(logger core.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRegistry overrides the default package-level provider registry,
// letting tests and callers register a narrower provider set.
func WithRegistry(r *ProviderRegistry) Option {
	return func(c *Client) { c.registry = r }
}

// WithRetryConfig overrides the default exponential-backoff policy.
func WithRetryConfig(cfg *resilience.RetryConfig) Option {
	return func(c *Client) { c.retryConfig = cfg }
}

// WithFailureStore backs the per-session provider-failed marker with a
// shared store (e.g. a RedisProviderFailureStore) in addition to the
// in-memory map, so other Client instances (other processes, other
// machines) skip a provider this one already exhausted. Client still
// trusts its own in-memory map first; the store is consulted only when
// the local map says a provider hasn't failed yet, and a store error never
// blocks a call — it just leaves the local map as the only signal.
func WithFailureStore(store ProviderFailureStore) Option {
	return func(c *Client) { c.failureStore = store }
}

// NewClient builds a Client with the given options. With no WithRegistry
// option it uses the package's default registry, which already carries the
// four built-in cost tiers.
func NewClient(opts ...Option) *Client {
	c := &Client{
		registry: defaultRegistry,
		cost:     NewCostTracker(),
		logger:   &core.NoOpLogger{},
		retryConfig: &resilience.RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  1 * time.Second,
			MaxDelay:      10 * time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: false,
		},
		breakers: make(map[string]*resilience.CircuitBreaker),
		failed:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CostTracker returns the client's cost tracker, for CurrentCost/Tokens/
// CostSummary reads.
func (c *Client) CostTracker() *CostTracker { return c.cost }

// Call runs req against the fallback chain: it tries the active (first
// non-failed, available) provider with up to 3 retry attempts, and on
// exhaustion marks that provider failed for this session and moves to the
// next. When req.PreferredProvider names a provider present in the chain,
// that provider is tried first; Call still falls back to the rest of the
// chain, in its normal order, if the preferred provider fails. Returns
// ProvidersExhausted when every provider in the chain fails.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	chain := c.registry.FallbackChain()
	if len(chain) == 0 {
		return Response{}, fmt.Errorf("llm: no providers registered")
	}
	chain = preferProvider(chain, req.PreferredProvider)

	var attempts []ProviderAttempt

	for _, factory := range chain {
		name := factory.Name()
		if c.isFailed(ctx, name) {
			continue
		}

		resp, err := c.callProvider(ctx, factory, req)
		if err == nil {
			return resp, nil
		}

		attempts = append(attempts, ProviderAttempt{Provider: name, Err: err})

		retryable := isRetryableFailure(err)
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Counter("llm.call.errors", "provider", name, "operation", req.Operation, "retryable", fmt.Sprint(retryable))
			registry.Counter("llm.provider.marked_failed", "provider", name)
		}

		if !retryable {
			// Non-retryable (auth, schema/parse) still marks the provider
			// failed for this session so subsequent calls skip straight
			// past it.
			c.markFailed(ctx, name)
			continue
		}
		c.markFailed(ctx, name)
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("llm.fallback.exhausted", "operation", req.Operation)
	}
	return Response{}, &ProvidersExhausted{Attempts: attempts}
}

// preferProvider moves the named provider to the front of chain, leaving
// the rest in their existing order. A name not present in chain (unknown,
// unavailable, or empty) leaves chain untouched.
func preferProvider(chain []ProviderFactory, name string) []ProviderFactory {
	if name == "" {
		return chain
	}
	for i, f := range chain {
		if f.Name() == name {
			reordered := make([]ProviderFactory, 0, len(chain))
			reordered = append(reordered, f)
			reordered = append(reordered, chain[:i]...)
			reordered = append(reordered, chain[i+1:]...)
			return reordered
		}
	}
	return chain
}

// callProvider runs the retry loop (exponential backoff, up to MaxAttempts)
// against a single provider, guarded by that provider's circuit breaker.
func (c *Client) callProvider(ctx context.Context, factory ProviderFactory, req Request) (Response, error) {
	provider := factory.Create()
	desc := factory.Descriptor()
	breaker := c.breakerFor(desc.Name)

	if req.MaxTokens == 0 {
		req.MaxTokens = desc.MaxOutputTokens
	}

	var resp Response
	var permanent error
	start := time.Now()

	// A non-retryable failure cancels retryCtx so the retry loop stops
	// instead of spending its remaining attempts on the same error.
	retryCtx, cancelRetry := context.WithCancel(ctx)
	defer cancelRetry()

	err := resilience.RetryWithCircuitBreaker(retryCtx, c.retryConfig, breaker, func() error {
		r, err := provider.Generate(ctx, req)
		if err != nil {
			c.logger.Debug("llm provider attempt failed", map[string]interface{}{
				"provider":  desc.Name,
				"operation": req.Operation,
				"error":     err.Error(),
			})
			if !isRetryableFailure(err) {
				permanent = err
				cancelRetry()
			}
			return err
		}
		resp = r
		return nil
	})

	if permanent != nil {
		return Response{}, permanent
	}
	if err != nil {
		return Response{}, err
	}

	latency := time.Since(start)
	usage := tokenUsage{prompt: resp.Usage.PromptTokens, completion: resp.Usage.CompletionTokens}
	taskCost := newTaskCost(desc.Name, resp.Model, req.Operation, desc, usage, latency)
	c.cost.Add(taskCost)
	resp.Cost = taskCost.TotalCost

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.EmitWithContext(ctx, "llm.call.duration_ms", float64(latency.Milliseconds()),
			"provider", desc.Name, "model", resp.Model, "operation", req.Operation)
		registry.EmitWithContext(ctx, "llm.call.cost_usd", taskCost.TotalCost,
			"provider", desc.Name, "model", resp.Model, "operation", req.Operation)
	}

	return resp, nil
}

func (c *Client) breakerFor(name string) *resilience.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.breakers[name]; ok {
		return b
	}
	b, err := resilience.CreateCircuitBreaker(fmt.Sprintf("llm.%s", name), resilience.ResilienceDependencies{Logger: c.logger})
	if err != nil {
		// DefaultConfig is always valid; CreateCircuitBreaker only fails
		// on malformed config, which cannot happen here.
		panic(fmt.Sprintf("llm: unexpected circuit breaker error: %v", err))
	}
	c.breakers[name] = b
	return b
}

func (c *Client) isFailed(ctx context.Context, name string) bool {
	c.mu.Lock()
	local := c.failed[name]
	c.mu.Unlock()
	if local || c.failureStore == nil {
		return local
	}

	failed, err := c.failureStore.IsFailed(ctx, name)
	if err != nil {
		c.logger.Debug("llm failure store check failed, trusting local state", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
		return false
	}
	return failed
}

func (c *Client) markFailed(ctx context.Context, name string) {
	c.mu.Lock()
	c.failed[name] = true
	c.mu.Unlock()

	if c.failureStore == nil {
		return
	}
	if err := c.failureStore.MarkFailed(ctx, name); err != nil {
		c.logger.Debug("llm failure store mark failed, session state stays local-only", map[string]interface{}{
			"provider": name,
			"error":    err.Error(),
		})
	}
}

// ResetSession clears every provider's failed-for-session flag, letting the
// client retry providers that previously exhausted their fallback slot.
func (c *Client) ResetSession(ctx context.Context) {
	c.mu.Lock()
	c.failed = make(map[string]bool)
	c.mu.Unlock()

	if c.failureStore == nil {
		return
	}
	if err := c.failureStore.Reset(ctx); err != nil {
		c.logger.Debug("llm failure store reset failed, session state stays local-only", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// isRetryableFailure classifies retry eligibility: network errors,
// timeouts, and rate-limits are retryable; auth and parse/schema errors are
// not.
func isRetryableFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, core.ErrAuthFailed) || errors.Is(err, core.ErrResponseParse) {
		return false
	}
	return core.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
}

// backoffDelay computes min(base*2^attempt, max); resilience.RetryConfig
// already implements this via BackoffFactor, this helper exists for tests
// that want to assert the formula directly.
func backoffDelay(base time.Duration, attempt int, max time.Duration) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > max {
		return max
	}
	return d
}

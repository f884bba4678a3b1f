package llm

import (
	"sync"
	"time"
)

// CostTracker accumulates TaskCost records and exposes aggregated summaries.
// Append-only: callers read current_cost/tokens/cost_summary at any time;
// Reset clears all recorded state.
type CostTracker struct {
	mu      sync.RWMutex
	records []TaskCost
}

// NewCostTracker returns an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{}
}

// Add appends a fully-formed TaskCost record, as produced by Client.Call.
func (t *CostTracker) Add(cost TaskCost) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, cost)
}

// CurrentCost returns the running total cost across every recorded call.
func (t *CostTracker) CurrentCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total float64
	for _, r := range t.records {
		total += r.TotalCost
	}
	return total
}

// Tokens returns the running total of input and output tokens.
func (t *CostTracker) Tokens() (input, output int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.records {
		input += r.InputTokens
		output += r.OutputTokens
	}
	return input, output
}

// CostSummary groups every recorded call by provider and by operation
// label, each with averages and cost-efficiency metrics.
func (t *CostTracker) CostSummary() CostSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	summary := CostSummary{
		ByProvider:  make(map[string]ProviderStats),
		ByOperation: make(map[string]ProviderStats),
	}

	for _, r := range t.records {
		summary.TotalCost += r.TotalCost
		summary.TotalCalls++

		p := summary.ByProvider[r.Provider]
		p.Calls++
		p.InputTokens += r.InputTokens
		p.OutputTokens += r.OutputTokens
		p.TotalCost += r.TotalCost
		p.TotalLatencyMS += r.LatencyMS
		summary.ByProvider[r.Provider] = p

		op := summary.ByOperation[r.Operation]
		op.Calls++
		op.InputTokens += r.InputTokens
		op.OutputTokens += r.OutputTokens
		op.TotalCost += r.TotalCost
		op.TotalLatencyMS += r.LatencyMS
		summary.ByOperation[r.Operation] = op
	}

	return summary
}

// Reset clears every recorded TaskCost.
func (t *CostTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}

// Records returns a copy of every recorded TaskCost, oldest first.
func (t *CostTracker) Records() []TaskCost {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TaskCost, len(t.records))
	copy(out, t.records)
	return out
}

func newTaskCost(provider, model, operation string, desc ProviderDescriptor, usage tokenUsage, latency time.Duration) TaskCost {
	inputCost := float64(usage.prompt) * desc.InputPricePerToken
	outputCost := float64(usage.completion) * desc.OutputPricePerToken
	return TaskCost{
		Provider:     provider,
		Model:        model,
		Operation:    operation,
		InputTokens:  usage.prompt,
		OutputTokens: usage.completion,
		InputCost:    inputCost,
		OutputCost:   outputCost,
		TotalCost:    inputCost + outputCost,
		LatencyMS:    latency.Milliseconds(),
		Timestamp:    time.Now(),
	}
}

type tokenUsage struct {
	prompt     int
	completion int
}

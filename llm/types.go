// Package llm provides a cost-tracking, multi-provider LLM client with
// retry and fallback chains. It hides provider differences behind a single
// Call entry point and records token usage, latency, and cost per call.
package llm

import (
	"time"

	"github.com/delegatefabric/fabric/core"
)

// Request describes a single completion call. Prompt is sent verbatim as a
// single user message; SystemPrompt, when set, becomes a provider-appropriate
// system hint.
type Request struct {
	Prompt        string
	SystemPrompt  string
	MaxTokens     int
	Deterministic bool // low temperature (~0.1), for pattern-replication tasks
	Operation     string
	// PreferredProvider, when set, pins Call to attempt that provider
	// first instead of starting the fallback chain from the cheapest
	// tier. Call still falls back to the rest of the chain if the
	// preferred provider fails. Empty means no preference.
	PreferredProvider string
}

// Response is the generated text plus the usage it cost to produce.
// Provider/Model name whichever provider actually served the call, which
// may differ from a caller's PreferredProvider if it failed over.
type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    core.TokenUsage
	Cost     float64
}

// TaskCost is one append-only cost record produced per successful call.
type TaskCost struct {
	Provider    string
	Model       string
	Operation   string
	InputTokens int
	OutputTokens int
	InputCost   float64
	OutputCost  float64
	TotalCost   float64
	LatencyMS   int64
	Timestamp   time.Time
}

// ProviderStats aggregates TaskCost records for one provider or operation.
type ProviderStats struct {
	Calls           int
	InputTokens     int
	OutputTokens    int
	TotalCost       float64
	TotalLatencyMS  int64
}

// AverageLatencyMS returns the mean latency across recorded calls, or 0.
func (s ProviderStats) AverageLatencyMS() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.TotalLatencyMS) / float64(s.Calls)
}

// CostPer1K returns the cost per 1000 total tokens, or 0 when no tokens were
// recorded.
func (s ProviderStats) CostPer1K() float64 {
	total := s.InputTokens + s.OutputTokens
	if total == 0 {
		return 0
	}
	return s.TotalCost / float64(total) * 1000
}

// InputOutputRatio returns InputTokens/OutputTokens, or 0 when no output
// tokens were recorded.
func (s ProviderStats) InputOutputRatio() float64 {
	if s.OutputTokens == 0 {
		return 0
	}
	return float64(s.InputTokens) / float64(s.OutputTokens)
}

// CostSummary groups recorded cost by provider and by operation label.
type CostSummary struct {
	TotalCost   float64
	TotalCalls  int
	ByProvider  map[string]ProviderStats
	ByOperation map[string]ProviderStats
}

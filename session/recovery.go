package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/llm"
)

const (
	defaultManifestPath = "session_recovery_latest.json"
	manifestSizeCapBytes = 2048
)

// RecoveryFallback is logged (never returned) when the recovery LLM call
// fails or its output doesn't parse: the agent falls back to a reduced
// manifest built from git state alone.
type RecoveryFallback struct {
	Reason string
}

func (e *RecoveryFallback) Error() string { return "session: recovery fallback: " + e.Reason }

// RecoveryAgent builds and persists a RecoveryManifest summarizing enough
// state to resume a session after a context reset.
type RecoveryAgent struct {
	client  *llm.Client
	logger  core.Logger
	repoDir string
	store   ManifestStore
}

// RecoveryOption configures a RecoveryAgent.
type RecoveryOption func(*RecoveryAgent)

func WithRecoveryLogger(logger core.Logger) RecoveryOption {
	return func(r *RecoveryAgent) { r.logger = logger }
}

// WithRepoDir sets the working directory git commands run in. Defaults to
// the process's current directory.
func WithRepoDir(dir string) RecoveryOption {
	return func(r *RecoveryAgent) { r.repoDir = dir }
}

// WithManifestStore persists recovery manifests through store (e.g. a
// RedisManifestStore) instead of the local filesystem, letting a
// BootstrapManager in another process pick them up.
func WithManifestStore(store ManifestStore) RecoveryOption {
	return func(r *RecoveryAgent) { r.store = store }
}

func NewRecoveryAgent(client *llm.Client, opts ...RecoveryOption) *RecoveryAgent {
	r := &RecoveryAgent{client: client, logger: &core.NoOpLogger{}, repoDir: "."}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PrepareRecoveryOptions customizes one PrepareRecovery call.
type PrepareRecoveryOptions struct {
	ConversationHistory string
	OutputPath          string
	ContextLimitTokens  int // used only to log the compression ratio; 0 disables the log line
}

// PrepareRecovery gathers git state, asks the LLM for a strict-JSON
// RecoveryManifest, falls back to a git-state-only manifest on any LLM or
// parse failure, and writes the result atomically to OutputPath (default
// session_recovery_latest.json).
func (r *RecoveryAgent) PrepareRecovery(ctx context.Context, opts PrepareRecoveryOptions) (Manifest, error) {
	outputPath := opts.OutputPath
	if outputPath == "" {
		outputPath = defaultManifestPath
	}

	state := gatherGitState(ctx, r.repoDir)

	manifest, err := r.requestManifest(ctx, state, opts.ConversationHistory)
	outcome := "success"
	if err != nil {
		r.logger.Warn("session recovery falling back to git-state-only manifest", map[string]interface{}{
			"reason": err.Error(),
		})
		manifest = fallbackManifest(state)
		outcome = "fallback"
	}
	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("session.recovery.prepared", "outcome", outcome)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("session: marshal recovery manifest: %w", err)
	}

	if len(data) > manifestSizeCapBytes {
		r.logger.Warn("session recovery manifest exceeds target size", map[string]interface{}{
			"bytes": len(data),
			"cap":   manifestSizeCapBytes,
		})
	}

	if r.store != nil {
		if err := r.store.Save(ctx, outputPath, data); err != nil {
			return Manifest{}, err
		}
	} else if err := atomicWriteFile(outputPath, data, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("session: write recovery manifest: %w", err)
	}

	if opts.ContextLimitTokens > 0 {
		ratio := 1 - float64(len(data))/float64(opts.ContextLimitTokens*4)
		r.logger.Info("session recovery manifest written", map[string]interface{}{
			"path":              outputPath,
			"bytes":             len(data),
			"compression_ratio": ratio,
		})
	}

	return manifest, nil
}

func (r *RecoveryAgent) requestManifest(ctx context.Context, state gitState, history string) (Manifest, error) {
	resp, err := r.client.Call(ctx, llm.Request{
		Prompt:    buildRecoveryPrompt(state, history),
		Operation: "prepare_recovery",
	})
	if err != nil {
		return Manifest{}, err
	}

	var manifest Manifest
	if err := json.Unmarshal([]byte(resp.Text), &manifest); err != nil {
		return Manifest{}, &RecoveryFallback{Reason: "LLM response was not valid JSON: " + err.Error()}
	}
	return manifest, nil
}

// buildRecoveryPrompt instructs strict JSON output matching Manifest's
// schema, with per-field character caps chosen so a well-behaved response
// stays under the 2 KB total cap.
func buildRecoveryPrompt(state gitState, history string) string {
	return fmt.Sprintf(`Summarize this session into a RecoveryManifest as STRICT JSON, no prose, no markdown fences.

Schema (all fields required):
{
  "session_metadata": {"phase": string <= 80 chars, "project": string <= 80 chars},
  "completed_tasks": [string <= 120 chars, max 10 entries],
  "pending_tasks": [{"task": string <= 120 chars, "priority": "low"|"medium"|"high", "status": string <= 40 chars, "context": string <= 200 chars}, max 10 entries],
  "active_state": {object, <= 300 chars serialized},
  "critical_context": {"key_decisions": [string <= 120 chars, max 5], "blockers": [string <= 120 chars, max 5], "next_steps": [string <= 120 chars, max 5]},
  "memory_pointers": {"project_state_file": string, "session_logs": string, "modified_files": [string], "git_branch": %q},
  "bootstrap_instructions": string <= 300 chars
}

Total serialized output MUST be under 2048 bytes.

Git branch: %s
Modified files: %v

Conversation history:
%s`, state.Branch, state.Branch, state.ModifiedFiles, history)
}

// fallbackManifest carries only git state and a generic pending task, per
// the RecoveryFallback contract: never an error surfaced to the caller.
func fallbackManifest(state gitState) Manifest {
	return Manifest{
		SessionMetadata: map[string]interface{}{
			"phase": "Unknown (fallback)",
		},
		PendingTasks: []PendingTask{
			{Task: "Manual review required", Priority: "high", Status: "pending", Context: "recovery LLM call failed or returned unparseable output"},
		},
		ActiveState: map[string]interface{}{},
		CriticalContext: CriticalContext{
			Blockers: []string{"automated recovery summary unavailable"},
		},
		MemoryPointers: MemoryPointers{
			ModifiedFiles: state.ModifiedFiles,
			GitBranch:     state.Branch,
		},
		BootstrapInstructions: "Review modified files and git log manually; automated summary was unavailable.",
	}
}

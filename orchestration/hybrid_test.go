package orchestration

import (
	"context"
	"testing"
)

func TestHybridOrchestratorPassesOnFirstAttempt(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("a complete, production-ready implementation with error handling and tests:\n```go\nfunc Handle() error { return nil }\n```\nThis addresses the task requirements fully.")

	hybrid := NewHybridOrchestrator(client, WithValidationThreshold(10))
	result, err := hybrid.Run(context.Background(), "implement a handler", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Errorf("expected pass, got score=%d issues=%v", result.Report.Score, result.Report.Issues)
	}
	if result.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", result.Iterations)
	}
}

func TestHybridOrchestratorUsesConfiguredModel(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("a complete, production-ready implementation with error handling and tests, fully addressing requirements.")

	hybrid := NewHybridOrchestrator(client, WithValidationThreshold(10), WithHybridModel("premium", "premium-v1"))
	if hybrid.provider != "premium" || hybrid.model != "premium-v1" {
		t.Fatalf("provider/model = %q/%q, want premium/premium-v1", hybrid.provider, hybrid.model)
	}
	if _, err := hybrid.Run(context.Background(), "implement a handler", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHybridOrchestratorExhaustsRetries(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("TODO")

	hybrid := NewHybridOrchestrator(client, WithMaxRetries(1), WithValidationThreshold(80))
	result, err := hybrid.Run(context.Background(), "implement a handler", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Error("expected failure on persistently poor output")
	}
	if result.Status != "failed_validation" {
		t.Errorf("Status = %q, want failed_validation", result.Status)
	}
	if result.Iterations != 2 {
		t.Errorf("Iterations = %d, want 2 (max_retries=1 -> 2 attempts)", result.Iterations)
	}
}

func TestBuildFixPromptEscalatesSpecificity(t *testing.T) {
	report := ValidationReport{
		Score: 40,
		Issues: []ValidationIssue{
			{Component: "correctness", Issue: "missing edge case", FixInstruction: "handle nil input"},
		},
	}

	p1 := buildFixPrompt("task", "output", report, 1)
	p2 := buildFixPrompt("task", "output", report, 2)
	p3 := buildFixPrompt("task", "output", report, 3)

	if p1 == p2 || p2 == p3 {
		t.Error("fix prompts should differ by iteration")
	}
}

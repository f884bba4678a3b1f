package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/delegatefabric/fabric/llm"
)

func newTestClient(t *testing.T) (*llm.Client, *llm.StubProvider) {
	t.Helper()
	stub := llm.NewStubProvider("test", llm.ProviderDescriptor{
		DefaultModel: "test-v1", MaxOutputTokens: 1000,
	})
	reg := llm.NewRegistry()
	if err := reg.Register(llm.NewStubFactory(stub)); err != nil {
		t.Fatal(err)
	}
	return llm.NewClient(llm.WithRegistry(reg)), stub
}

func TestAnalyzeAndPlanSuccess(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses(`{"complexity":"medium","decompose":true,"subtasks":[
		{"id":"a","description":"do a","difficulty":"low","error_risk":"low"},
		{"id":"b","description":"do b","dependencies":["a"],"difficulty":"low","error_risk":"low"}
	]}`)

	plan, err := analyzeAndPlan(context.Background(), client, "task", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(plan.Subtasks))
	}
}

func TestAnalyzeAndPlanRepromptsOnceThenFatal(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("not json", "still not json")

	_, err := analyzeAndPlan(context.Background(), client, "task", nil, "")
	var parseErr *PlanParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *PlanParseError, got %v", err)
	}
}

func TestAnalyzeAndPlanRepromptRecovers(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("not json", `{"complexity":"low","decompose":false,"subtasks":[]}`)

	plan, err := analyzeAndPlan(context.Background(), client, "task", nil, "")
	if err != nil {
		t.Fatalf("unexpected error after reprompt recovery: %v", err)
	}
	if plan.Decompose {
		t.Error("expected Decompose=false")
	}
}

func TestAnalyzeAndPlanRejectsCycles(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses(`{"complexity":"low","decompose":true,"subtasks":[
		{"id":"a","dependencies":["b"],"difficulty":"low","error_risk":"low"},
		{"id":"b","dependencies":["a"],"difficulty":"low","error_risk":"low"}
	]}`)

	_, err := analyzeAndPlan(context.Background(), client, "task", nil, "")
	var cycleErr *PlanCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *PlanCycleError, got %v", err)
	}
}

func TestAssignWorkersExcludesOverloaded(t *testing.T) {
	subtasks := []Subtask{{ID: "a", Description: "audit the code"}}
	workers := map[string]WorkerInfo{
		"overloaded": {Quality: 0.9, Load: 3, BestFor: []string{"audit"}},
		"ok":         {Quality: 0.7, Load: 0, BestFor: []string{"audit"}},
	}

	assignments, err := assignWorkers(subtasks, workers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments["a"] != "ok" {
		t.Errorf("assignments[a] = %q, want ok", assignments["a"])
	}
}

func TestAssignWorkersExcludesHighPriorityLowReliability(t *testing.T) {
	subtasks := []Subtask{{ID: "a", Description: "task"}}
	workers := map[string]WorkerInfo{
		"risky": {Quality: 0.5, Load: 0, Priority: 4},
		"safe":  {Quality: 0.6, Load: 0, Priority: 1},
	}

	assignments, err := assignWorkers(subtasks, workers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments["a"] != "safe" {
		t.Errorf("assignments[a] = %q, want safe", assignments["a"])
	}
}

func TestAssignWorkersNoCapableWorker(t *testing.T) {
	subtasks := []Subtask{{ID: "a", Description: "task"}}
	workers := map[string]WorkerInfo{
		"overloaded": {Quality: 0.9, Load: 3},
	}

	_, err := assignWorkers(subtasks, workers)
	var noWorker *NoCapableWorker
	if !errors.As(err, &noWorker) {
		t.Fatalf("expected *NoCapableWorker, got %v", err)
	}
}

func TestAssignWorkersTieBreaksByReliabilityThenID(t *testing.T) {
	subtasks := []Subtask{{ID: "a", Description: "task"}}
	workers := map[string]WorkerInfo{
		"zeta":  {Quality: 0.5, Load: 0},
		"alpha": {Quality: 0.5, Load: 0},
	}

	assignments, err := assignWorkers(subtasks, workers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assignments["a"] != "alpha" {
		t.Errorf("tie-break should prefer lexicographically smaller id, got %q", assignments["a"])
	}
}

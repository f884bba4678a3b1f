package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/delegatefabric/fabric/routing"
)

func TestFacadeDelegatesSimpleTask(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("a health check endpoint implementation")

	router := routing.NewRouter(routing.DefaultThresholds(), "balanced", "balanced-v1")
	facade := NewQualityAwareOrchestrator(router, client)

	result, err := facade.Orchestrate(context.Background(), "implement a health check endpoint", routing.Requirements{}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrchestratorName != "smart" {
		t.Errorf("OrchestratorName = %q, want smart", result.OrchestratorName)
	}
	if result.Workflow != "delegate" {
		t.Errorf("Workflow = %q, want delegate", result.Workflow)
	}
}

func TestFacadeEscalatesAnalyticalTask(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("a thorough audit result")

	router := routing.NewRouter(routing.DefaultThresholds(), "balanced", "balanced-v1")
	facade := NewQualityAwareOrchestrator(router, client)

	task := "audit and review this code for bugs, identify issues, examine closely"
	result, err := facade.Orchestrate(context.Background(), task, routing.Requirements{AllowPremium: true, NeedsFileLineRefs: true, NoPlaceholders: true}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrchestratorName != "premium" {
		t.Errorf("OrchestratorName = %q, want premium", result.OrchestratorName)
	}
	if result.CostEstimate != 3.0 {
		t.Errorf("CostEstimate = %v, want 3.0", result.CostEstimate)
	}
}

func TestFacadeRejectsUnsuitableTask(t *testing.T) {
	client, _ := newTestClient(t)
	router := routing.NewRouter(routing.DefaultThresholds(), "balanced", "balanced-v1")
	facade := NewQualityAwareOrchestrator(router, client)

	task := "audit and review this code for bugs, identify issues, examine closely"
	_, err := facade.Orchestrate(context.Background(), task, routing.Requirements{NeedsFileLineRefs: true, NoPlaceholders: true}, false)

	var rejection *routing.TaskRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *routing.TaskRejection, got %v", err)
	}
}

func TestFacadeExplainRoutingHasNoSideEffects(t *testing.T) {
	client, stub := newTestClient(t)
	stub.SetResponses("should never be called")

	router := routing.NewRouter(routing.DefaultThresholds(), "balanced", "balanced-v1")
	facade := NewQualityAwareOrchestrator(router, client)

	decision, err := facade.ExplainRouting("implement a health check endpoint", routing.Requirements{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != routing.ActionDelegate {
		t.Errorf("Action = %v, want Delegate", decision.Action)
	}
	if client.CostTracker().CurrentCost() != 0 {
		t.Error("ExplainRouting must not incur any cost")
	}
}

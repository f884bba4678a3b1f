package orchestration

import (
	"context"
	"errors"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/llm"
	"github.com/delegatefabric/fabric/routing"
)

// QualityAwareOrchestrator is the single entry point: it routes a task to
// the cheapest adequate path (delegate / hybrid / escalate / reject) and
// dispatches accordingly.
type QualityAwareOrchestrator struct {
	router              *routing.Router
	smart               *SmartOrchestrator
	client              *llm.Client
	validationThreshold int
	premiumProvider     string
	premiumModel        string
}

// FacadeOption configures a QualityAwareOrchestrator.
type FacadeOption func(*QualityAwareOrchestrator)

func WithFacadeValidationThreshold(threshold int) FacadeOption {
	return func(q *QualityAwareOrchestrator) { q.validationThreshold = threshold }
}

func WithPremiumModel(provider, model string) FacadeOption {
	return func(q *QualityAwareOrchestrator) { q.premiumProvider, q.premiumModel = provider, model }
}

// NewQualityAwareOrchestrator wires a Router and an llm.Client into the
// full decision-to-execution pipeline.
func NewQualityAwareOrchestrator(router *routing.Router, client *llm.Client, opts ...FacadeOption) *QualityAwareOrchestrator {
	q := &QualityAwareOrchestrator{
		router:              router,
		smart:               NewSmartOrchestrator(client),
		client:              client,
		validationThreshold: 80,
		premiumProvider:     "premium",
		premiumModel:        "premium-v1",
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Orchestrate routes task through the router and dispatches to the
// matching orchestration path, unless forceDelegate bypasses routing
// entirely.
func (q *QualityAwareOrchestrator) Orchestrate(ctx context.Context, task string, requirements routing.Requirements, forceDelegate bool) (OrchestrationResult, error) {
	if forceDelegate {
		emitRoutingDecision("delegate")
		return q.runDelegate(ctx, task, routing.Decision{Provider: q.smart.provider, Model: q.smart.model})
	}

	decision, err := q.router.Route(task, requirements)
	if err != nil {
		// Route only returns an error alongside a *routing.TaskRejection;
		// there is no ActionReject case to dispatch on below.
		emitRoutingDecision("reject")
		return OrchestrationResult{}, err
	}

	switch decision.Action {
	case routing.ActionDelegate:
		emitRoutingDecision("delegate")
		return q.runDelegate(ctx, task, decision)
	case routing.ActionHybrid:
		emitRoutingDecision("hybrid")
		return q.runHybrid(ctx, task, decision)
	default: // routing.ActionEscalate
		emitRoutingDecision("escalate")
		return q.runEscalate(ctx, task, decision)
	}
}

func emitRoutingDecision(action string) {
	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Counter("orchestration.routing.decisions", "action", action)
	}
}

func (q *QualityAwareOrchestrator) runDelegate(ctx context.Context, task string, decision routing.Decision) (OrchestrationResult, error) {
	resp, err := q.client.Call(ctx, llm.Request{
		Prompt:            task,
		Operation:         "delegate",
		PreferredProvider: decision.Provider,
	})
	if err != nil {
		return OrchestrationResult{}, err
	}
	return OrchestrationResult{
		Result:           resp.Text,
		OrchestratorName: "smart",
		CostEstimate:     resp.Cost,
		QualityScore:     decision.PredictedQuality,
		Workflow:         "delegate",
		Provider:         resp.Provider,
		Model:            resp.Model,
		Iterations:       1,
		ValidationPassed: true,
	}, nil
}

func (q *QualityAwareOrchestrator) runHybrid(ctx context.Context, task string, decision routing.Decision) (OrchestrationResult, error) {
	hybrid := NewHybridOrchestrator(q.client, WithValidationThreshold(q.validationThreshold))
	result, err := hybrid.Run(ctx, task, nil)
	if err != nil {
		return OrchestrationResult{}, err
	}
	return OrchestrationResult{
		Result:           result.Text,
		OrchestratorName: "hybrid",
		CostEstimate:     0.10 * float64(result.Iterations),
		QualityScore:     result.Report.Score,
		Workflow:         decision.Workflow,
		Iterations:       result.Iterations,
		ValidationPassed: result.Passed,
	}, nil
}

func (q *QualityAwareOrchestrator) runEscalate(ctx context.Context, task string, decision routing.Decision) (OrchestrationResult, error) {
	preferred := decision.Provider
	if preferred == "" {
		preferred = q.premiumProvider
	}
	resp, err := q.client.Call(ctx, llm.Request{
		Prompt:            task,
		Operation:         "escalate",
		PreferredProvider: preferred,
	})
	if err != nil {
		return OrchestrationResult{}, err
	}
	return OrchestrationResult{
		Result:           resp.Text,
		OrchestratorName: "premium",
		// Escalation is annotated with the typical premium single-shot
		// cost estimate rather than the call's tracked cost.
		CostEstimate:     3.0,
		QualityScore:     decision.PredictedQuality,
		Workflow:         "escalate",
		Provider:         resp.Provider,
		Model:            resp.Model,
		Iterations:       1,
		ValidationPassed: true,
	}, nil
}

// ExplainRouting performs the same routing decision as Orchestrate but
// never executes it: a side-effect-free dry run for callers that want to
// preview cost/quality tradeoffs.
func (q *QualityAwareOrchestrator) ExplainRouting(task string, requirements routing.Requirements) (routing.Decision, error) {
	decision, err := q.router.Route(task, requirements)
	if err != nil {
		var rejection *routing.TaskRejection
		if errors.As(err, &rejection) {
			return rejection.Decision, err
		}
		return routing.Decision{}, err
	}
	return decision, nil
}

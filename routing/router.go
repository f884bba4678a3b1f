package routing

import (
	"fmt"
	"strings"
)

// Router is a pure function over (task, requirements): no I/O, no shared
// mutable state touched by Route itself. Safe for concurrent use.
type Router struct {
	thresholds      Thresholds
	defaultProvider string
	defaultModel    string
	premiumProvider string
	premiumModel    string
}

// NewRouter builds a Router. Zero-value Thresholds fields fall back to
// spec defaults (60/80).
func NewRouter(t Thresholds, defaultProvider, defaultModel string) *Router {
	if t.RejectionThreshold == 0 {
		t.RejectionThreshold = DefaultThresholds().RejectionThreshold
	}
	if t.HybridThreshold == 0 {
		t.HybridThreshold = DefaultThresholds().HybridThreshold
	}
	if defaultProvider == "" {
		defaultProvider = "balanced"
	}
	if defaultModel == "" {
		defaultModel = "balanced-v1"
	}
	return &Router{
		thresholds:      t,
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
		premiumProvider: "premium",
		premiumModel:    "premium-v1",
	}
}

// TaskRejection is raised when a task is unsuitable for cost-effective
// delegation and premium escalation was not allowed. It carries the full
// Decision so callers can present the rejection alongside its reasoning.
type TaskRejection struct {
	Decision Decision
}

func (e *TaskRejection) Error() string {
	return fmt.Sprintf("task rejected: %s (predicted quality: %d/100)",
		strings.Join(e.Decision.Reasoning, "; "), e.Decision.PredictedQuality)
}

// Route classifies task, predicts its quality, and returns a routing
// Decision, or a *TaskRejection error when the task is unsuitable and
// premium escalation is not allowed.
func (r *Router) Route(task string, req Requirements) (Decision, error) {
	taskType := classify(task, req)
	meta := extractMetadata(task, req, taskType)
	quality, reasoning := predictQuality(meta, req)

	switch {
	case quality >= r.thresholds.HybridThreshold:
		return Decision{
			Action:           ActionDelegate,
			PredictedQuality: quality,
			Reasoning:        append([]string{fmt.Sprintf("high quality prediction (%d/100) with cost-effective model", quality)}, reasoning...),
			Provider:         r.defaultProvider,
			Model:            r.defaultModel,
			Metadata:         meta,
		}, nil

	case quality >= r.thresholds.RejectionThreshold:
		return Decision{
			Action:           ActionHybrid,
			PredictedQuality: quality,
			Reasoning:        append([]string{fmt.Sprintf("task requires validation (%d/100 predicted)", quality)}, reasoning...),
			Workflow:         "free_gen_premium_validation",
			Metadata:         meta,
		}, nil

	default:
		if req.AllowPremium {
			return Decision{
				Action:           ActionEscalate,
				PredictedQuality: quality,
				Reasoning:        append([]string{fmt.Sprintf("complex task requires premium model (%d/100 with cost-effective model)", quality)}, reasoning...),
				Provider:         r.premiumProvider,
				Model:            r.premiumModel,
				Metadata:         meta,
			}, nil
		}

		decision := Decision{
			Action:           ActionReject,
			PredictedQuality: quality,
			Reasoning: append([]string{
				fmt.Sprintf("task unsuitable for cost-effective delegation (%d/100 predicted)", quality),
				"alternative: use the premium model directly",
				"alternative: enable premium escalation",
				"alternative: simplify the task",
			}, reasoning...),
			Metadata: meta,
		}
		return Decision{}, &TaskRejection{Decision: decision}
	}
}

package routing

import (
	"errors"
	"strings"
	"testing"
)

func TestClassifyGenerative(t *testing.T) {
	if got := classify("Please implement a new REST endpoint for users", Requirements{}); got != Generative {
		t.Errorf("classify() = %v, want Generative", got)
	}
}

func TestClassifyAnalytical(t *testing.T) {
	task := "Audit this module and review for bugs, analyze the error handling"
	if got := classify(task, Requirements{}); got != Analytical {
		t.Errorf("classify() = %v, want Analytical", got)
	}
}

func TestClassifyHybridOnTie(t *testing.T) {
	task := "write a plain summary" // 1 generative keyword ("write"), 0 analytical
	if got := classify(task, Requirements{}); got != Generative {
		t.Errorf("single generative keyword should classify as Generative, got %v", got)
	}

	tied := "no matching keywords here at all"
	if got := classify(tied, Requirements{}); got != Hybrid {
		t.Errorf("classify() with no keyword matches = %v, want Hybrid", got)
	}
}

func TestClassifyAnalyticalFromEmbeddedCode(t *testing.T) {
	big := "```\n" + strings.Repeat("x", 10_001) + "\n```"
	if got := classify(big, Requirements{}); got != Analytical {
		t.Errorf("large embedded code block should tip classification to Analytical, got %v", got)
	}
}

func TestPredictQualityPenalties(t *testing.T) {
	meta := TaskMetadata{TaskType: Analytical, InputSizeBytes: 150_000, HasEmbeddedCode: true, CodeBlockCount: 2}
	req := Requirements{NeedsFileLineRefs: true, NoPlaceholders: true}

	score, reasoning := predictQuality(meta, req)
	want := 85 - 30 - 20 - 15 - 15 - 10 // clamped at 0 if negative
	if want < 0 {
		want = 0
	}
	if score != want {
		t.Errorf("predictQuality() = %d, want %d", score, want)
	}
	if len(reasoning) == 0 {
		t.Error("expected non-empty reasoning for penalized task")
	}
}

func TestPredictQualityNoPenalties(t *testing.T) {
	score, reasoning := predictQuality(TaskMetadata{TaskType: Generative}, Requirements{})
	if score != 85 {
		t.Errorf("predictQuality() = %d, want 85", score)
	}
	if len(reasoning) != 1 || reasoning[0] != "no penalties" {
		t.Errorf("reasoning = %v, want [no penalties]", reasoning)
	}
}

func TestRouteDelegate(t *testing.T) {
	router := NewRouter(DefaultThresholds(), "balanced", "balanced-v1")
	decision, err := router.Route("implement a health check endpoint", Requirements{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != ActionDelegate {
		t.Errorf("Action = %v, want Delegate", decision.Action)
	}
}

func TestRouteHybrid(t *testing.T) {
	router := NewRouter(DefaultThresholds(), "balanced", "balanced-v1")
	// Hybrid task type (one analytical keyword, one generative keyword,
	// tied score): -15, lands at 70, within [60,80).
	decision, err := router.Route("review and implement the change", Requirements{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != ActionHybrid {
		t.Errorf("Action = %v, want Hybrid, quality=%d", decision.Action, decision.PredictedQuality)
	}
	if decision.Workflow != "free_gen_premium_validation" {
		t.Errorf("Workflow = %q", decision.Workflow)
	}
}

func TestRouteEscalate(t *testing.T) {
	router := NewRouter(DefaultThresholds(), "balanced", "balanced-v1")
	task := "audit and review this code for bugs, identify issues, examine closely"
	decision, err := router.Route(task, Requirements{AllowPremium: true, NeedsFileLineRefs: true, NoPlaceholders: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decision.Action != ActionEscalate {
		t.Errorf("Action = %v, want Escalate, quality=%d", decision.Action, decision.PredictedQuality)
	}
	if decision.Provider != "premium" {
		t.Errorf("Provider = %q, want premium", decision.Provider)
	}
}

func TestRouteReject(t *testing.T) {
	router := NewRouter(DefaultThresholds(), "balanced", "balanced-v1")
	task := "audit and review this code for bugs, identify issues, examine closely"
	_, err := router.Route(task, Requirements{NeedsFileLineRefs: true, NoPlaceholders: true})

	var rejection *TaskRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *TaskRejection, got %v", err)
	}
	if len(rejection.Decision.Reasoning) < 3 {
		t.Errorf("rejection reasoning should list at least 3 alternatives, got %v", rejection.Decision.Reasoning)
	}
	hasAlternatives := false
	for _, r := range rejection.Decision.Reasoning {
		if strings.Contains(r, "alternative:") {
			hasAlternatives = true
		}
	}
	if !hasAlternatives {
		t.Error("expected reasoning to include alternative suggestions")
	}
}

func TestModelCapabilitiesFallback(t *testing.T) {
	c := ModelCapabilities("nonexistent-tier")
	if c.QualityCeiling != 70 {
		t.Errorf("unknown tier should fall back to conservative default, got QualityCeiling=%d", c.QualityCeiling)
	}
}

func TestModelCapabilitiesKnownTier(t *testing.T) {
	c := ModelCapabilities("premium")
	if c.QualityCeiling != 95 {
		t.Errorf("premium QualityCeiling = %d, want 95", c.QualityCeiling)
	}
}

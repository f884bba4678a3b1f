package orchestration

import (
	"context"
	"fmt"
	"strings"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/llm"
)

// HybridOrchestrator drives the generate -> validate -> fix loop: delegate,
// score the result against the validation rubric, and on failure
// re-delegate with progressively more specific fix instructions.
type HybridOrchestrator struct {
	client             *llm.Client
	maxRetries         int
	validationThreshold int
	provider           string
	model              string
}

// HybridOption configures a HybridOrchestrator.
type HybridOption func(*HybridOrchestrator)

func WithMaxRetries(n int) HybridOption {
	return func(h *HybridOrchestrator) { h.maxRetries = n }
}

func WithValidationThreshold(threshold int) HybridOption {
	return func(h *HybridOrchestrator) { h.validationThreshold = threshold }
}

func WithHybridModel(provider, model string) HybridOption {
	return func(h *HybridOrchestrator) { h.provider, h.model = provider, model }
}

// NewHybridOrchestrator builds a HybridOrchestrator with spec defaults:
// max_retries=2 (3 attempts), validation_threshold=80.
func NewHybridOrchestrator(client *llm.Client, opts ...HybridOption) *HybridOrchestrator {
	h := &HybridOrchestrator{
		client:               client,
		maxRetries:           2,
		validationThreshold: 80,
		provider:             "balanced",
		model:                "balanced-v1",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HybridResult is the outcome of a Run: the final output text, whether it
// passed validation, how many iterations were spent, and the last
// validation report.
type HybridResult struct {
	Text       string
	Passed     bool
	Iterations int
	Report     ValidationReport
	Status     string
}

// Run generates a response to task, validates it against the rubric, and
// re-delegates with fix instructions until score >= threshold or
// max_retries is exhausted.
func (h *HybridOrchestrator) Run(ctx context.Context, task string, requirements map[string]string) (HybridResult, error) {
	var (
		lastText   string
		lastReport ValidationReport
		prompt     = task
	)

	attempts := h.maxRetries + 1
	for iteration := 1; iteration <= attempts; iteration++ {
		resp, err := h.client.Call(ctx, llm.Request{
			Prompt:            prompt,
			Operation:         "hybrid_generate",
			PreferredProvider: h.provider,
		})
		if err != nil {
			return HybridResult{}, err
		}
		lastText = resp.Text

		report := validate(lastText, task, requirements, "hybrid")
		lastReport = report

		if report.Score >= h.validationThreshold {
			return HybridResult{
				Text:       lastText,
				Passed:     true,
				Iterations: iteration,
				Report:     report,
				Status:     "passed",
			}, nil
		}

		if iteration == attempts {
			break
		}
		prompt = buildFixPrompt(task, lastText, report, iteration)
	}

	return HybridResult{
		Text:       lastText,
		Passed:     false,
		Iterations: attempts,
		Report:     lastReport,
		Status:     "failed_validation",
	}, nil
}

// ValidateText scores text against the completeness/correctness/
// production-readiness rubric using rule-based heuristics. Exported so
// callers outside this package (the APC adapter's validate_output query,
// for instance) can reuse the same rubric without duplicating it.
func ValidateText(text, task string, requirements map[string]string) ValidationReport {
	return validate(text, task, requirements, "apc_validate_output")
}

// validate scores text against the completeness/correctness/production-
// readiness rubric using rule-based heuristics. caller identifies the
// calling component for the emitted validation-score metric only.
func validate(text, task string, requirements map[string]string, caller string) ValidationReport {
	completeness := scoreCompleteness(text)
	correctness := scoreCorrectness(text, task)
	production := scoreProductionReadiness(text)

	score := completeness + correctness + production
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if registry := core.GetGlobalMetricsRegistry(); registry != nil {
		registry.Histogram("orchestration.validation.score", float64(score), "caller", caller)
	}

	var issues []ValidationIssue
	if completeness < 30 {
		issues = append(issues, ValidationIssue{
			Component:      "completeness",
			Severity:       "major",
			Issue:          "output appears to have missing components or placeholders",
			FixInstruction: "fill in every placeholder and TODO with concrete content",
		})
	}
	if correctness < 40 {
		issues = append(issues, ValidationIssue{
			Component:      "correctness",
			Severity:       "major",
			Issue:          "output does not clearly address the stated requirements",
			FixInstruction: "re-read the task and address each requirement explicitly",
		})
	}
	if production < 30 {
		issues = append(issues, ValidationIssue{
			Component:      "production-readiness",
			Severity:       "minor",
			Issue:          "no visible error handling or test coverage",
			FixInstruction: "add error handling and note how this would be tested",
		})
	}

	return ValidationReport{
		Score:           score,
		Issues:          issues,
		Completeness:    completeness,
		Correctness:     correctness,
		ProductionReady: production,
	}
}

func scoreCompleteness(text string) int {
	score := 30
	lower := strings.ToLower(text)
	if strings.Contains(lower, "todo") || strings.Contains(lower, "placeholder") || strings.Contains(lower, "...") {
		score -= 20
	}
	if len(text) < 50 {
		score -= 15
	}
	if score < 0 {
		score = 0
	}
	return score
}

func scoreCorrectness(text, task string) int {
	score := 20
	lower := strings.ToLower(text)
	taskWords := strings.Fields(strings.ToLower(task))
	overlap := 0
	for _, w := range taskWords {
		if len(w) > 3 && strings.Contains(lower, w) {
			overlap++
		}
	}
	if len(taskWords) > 0 {
		score += int(20 * float64(overlap) / float64(len(taskWords)))
	}
	if strings.Contains(text, "```") {
		score += 10
	}
	if score > 40 {
		score = 40
	}
	return score
}

func scoreProductionReadiness(text string) int {
	score := 0
	lower := strings.ToLower(text)
	if strings.Contains(lower, "error") || strings.Contains(lower, "err !=") || strings.Contains(lower, "exception") {
		score += 15
	}
	if strings.Contains(lower, "test") {
		score += 15
	}
	if score > 30 {
		score = 30
	}
	return score
}

// buildFixPrompt escalates specificity by iteration: iteration 1 is broad,
// iteration 2 cites exact issues with examples, iteration 3+ is itemized
// and exact.
func buildFixPrompt(task, priorOutput string, report ValidationReport, iteration int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	fmt.Fprintf(&b, "Previous attempt (iteration %d, score %d/100):\n%s\n\n", iteration, report.Score, truncate(priorOutput, 4000))

	switch {
	case iteration == 1:
		b.WriteString("The above is missing components and needs broad fixes. Issues:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- %s\n", issue.Issue)
		}
	case iteration == 2:
		b.WriteString("Address each issue precisely:\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- [%s] %s — fix: %s\n", issue.Component, issue.Issue, issue.FixInstruction)
		}
	default:
		b.WriteString("Apply these exact, itemized corrections:\n")
		for i, issue := range report.Issues {
			fmt.Fprintf(&b, "%d. %s: %s (%s)\n", i+1, issue.Component, issue.FixInstruction, issue.Location)
		}
	}

	b.WriteString("\nRegenerate the complete output incorporating all fixes.")
	return b.String()
}

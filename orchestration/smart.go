package orchestration

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/delegatefabric/fabric/core"
	"github.com/delegatefabric/fabric/llm"
)

// SmartOrchestrator decomposes complex tasks into subtasks, assigns
// workers, generates worker-specific specs, validates outputs, and
// assembles a final deliverable. A task whose plan needs no decomposition
// is forwarded as a single LLM call.
type SmartOrchestrator struct {
	client    *llm.Client
	provider  string
	model     string
	workflows *WorkflowLibrary
}

// SmartOption configures a SmartOrchestrator.
type SmartOption func(*SmartOrchestrator)

func WithSmartModel(provider, model string) SmartOption {
	return func(s *SmartOrchestrator) { s.provider, s.model = provider, model }
}

// WithWorkflowLibrary attaches pre-seeded workflow patterns that bypass
// the planner LLM when a task matches one of their triggers.
func WithWorkflowLibrary(lib *WorkflowLibrary) SmartOption {
	return func(s *SmartOrchestrator) { s.workflows = lib }
}

func NewSmartOrchestrator(client *llm.Client, opts ...SmartOption) *SmartOrchestrator {
	s := &SmartOrchestrator{client: client, provider: "balanced", model: "balanced-v1"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Orchestrate runs the plan -> assign -> generate -> assemble pipeline end
// to end. A task matching the workflow library skips the planner LLM; a
// plan with Decompose false or no subtasks is sent as a single LLM call.
// Subtask outputs are not scored with ValidateOutputs on this path.
func (s *SmartOrchestrator) Orchestrate(ctx context.Context, task string, capabilities []string, workers map[string]WorkerInfo, taskContext string) (string, error) {
	plan, err := s.AnalyzeAndPlan(ctx, task, capabilities, taskContext)
	if err != nil {
		return "", err
	}

	if !plan.Decompose || len(plan.Subtasks) == 0 {
		resp, err := s.client.Call(ctx, llm.Request{
			Prompt:            task,
			Operation:         "orchestrate_single_shot",
			PreferredProvider: s.provider,
		})
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}

	assignments, err := s.AssignWorkers(plan.Subtasks, workers)
	if err != nil {
		return "", err
	}

	subtaskByID := make(map[string]Subtask, len(plan.Subtasks))
	for _, subtask := range plan.Subtasks {
		subtaskByID[subtask.ID] = subtask
	}

	graph := newDAG(plan.Subtasks)
	results := make(map[string]string, len(plan.Subtasks))
	for _, level := range graph.executionLevels() {
		levelStart := time.Now()
		levelResults, err := s.runLevel(ctx, graph, level, subtaskByID, assignments, workers, plan, taskContext)
		if registry := core.GetGlobalMetricsRegistry(); registry != nil {
			registry.Histogram("orchestration.level.duration_ms", float64(time.Since(levelStart).Milliseconds()))
		}
		if err != nil {
			return "", err
		}
		for id, text := range levelResults {
			results[id] = text
		}
	}

	return s.AssembleAndPolish(ctx, results, plan)
}

// runLevel generates every subtask in one DAG execution level
// concurrently, marking each node Running/Completed/Failed in graph as it
// goes. A subtask panic is recovered and reported as that subtask's
// error rather than crashing the orchestration; the first error (panic or
// otherwise) observed in the level cancels the rest of it and is
// returned once every worker goroutine has exited.
func (s *SmartOrchestrator) runLevel(ctx context.Context, graph *dag, level []string, subtaskByID map[string]Subtask, assignments map[string]string, workers map[string]WorkerInfo, plan Plan, taskContext string) (map[string]string, error) {
	levelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  = make(map[string]string, len(level))
		firstErr error
	)

	for _, id := range level {
		subtask := subtaskByID[id]
		graph.markStatus(id, NodeRunning)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					defer mu.Unlock()
					graph.markStatus(id, NodeFailed)
					emitSubtaskExecuted(NodeFailed)
					if firstErr == nil {
						firstErr = fmt.Errorf("subtask %q panicked: %v\n%s", id, r, debug.Stack())
						cancel()
					}
				}
			}()

			workerName := assignments[id]
			spec := s.GenerateSpecs(subtask, workers[workerName], taskContext)

			subtaskCtx, subCancel := context.WithTimeout(levelCtx, subtaskTimeout(plan, id))
			resp, err := s.client.Call(subtaskCtx, llm.Request{
				Prompt:            spec,
				Operation:         "generate_spec_output",
				PreferredProvider: s.provider,
			})
			subCancel()

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				graph.markStatus(id, NodeFailed)
				emitSubtaskExecuted(NodeFailed)
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			graph.markStatus(id, NodeCompleted)
			emitSubtaskExecuted(NodeCompleted)
			results[id] = resp.Text
		}()
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// emitSubtaskExecuted reports one subtask's terminal status.
func emitSubtaskExecuted(status NodeStatus) {
	registry := core.GetGlobalMetricsRegistry()
	if registry == nil {
		return
	}
	label := "failed"
	if status == NodeCompleted {
		label = "completed"
	}
	registry.Counter("orchestration.subtasks.executed", "status", label)
}

// AnalyzeAndPlan asks the LLM to emit a JSON plan, parsing strictly with a
// single re-prompt retry on failure, and validates the resulting DAG. A
// task matching a pre-seeded WorkflowDefinition bypasses the LLM entirely.
func (s *SmartOrchestrator) AnalyzeAndPlan(ctx context.Context, task string, capabilities []string, taskContext string) (Plan, error) {
	if s.workflows != nil {
		if def, ok := s.workflows.Match(task); ok {
			plan := def.toPlan()
			if err := newDAG(plan.Subtasks).validate(); err != nil {
				return Plan{}, err
			}
			return plan, nil
		}
	}
	return analyzeAndPlan(ctx, s.client, task, capabilities, taskContext)
}

// AssignWorkers maps each subtask to its best-scoring available worker.
func (s *SmartOrchestrator) AssignWorkers(subtasks []Subtask, workers map[string]WorkerInfo) (map[string]string, error) {
	return assignWorkers(subtasks, workers)
}

// GenerateSpecs produces a worker-tuned prompt embedding the subtask
// description, the worker's strengths/weaknesses, an acceptance checklist,
// and relevant context excerpts.
func (s *SmartOrchestrator) GenerateSpecs(subtask Subtask, worker WorkerInfo, fullContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subtask: %s\n\n", subtask.Description)
	if len(worker.BestFor) > 0 {
		fmt.Fprintf(&b, "You excel at: %s\n", strings.Join(worker.BestFor, ", "))
	}
	if len(worker.Weaknesses) > 0 {
		fmt.Fprintf(&b, "Avoid relying on: %s\n", strings.Join(worker.Weaknesses, ", "))
	}
	b.WriteString("\nAcceptance checklist:\n")
	b.WriteString("- addresses the subtask description completely\n")
	b.WriteString("- no placeholders or TODO markers\n")
	b.WriteString("- consistent with dependencies already produced\n")
	if fullContext != "" {
		fmt.Fprintf(&b, "\nRelevant context:\n%s\n", truncate(fullContext, 2000))
	}
	return b.String()
}

// ValidateOutputs scores every subtask result against the validation
// rubric and returns the per-subtask reports plus an aggregate.
func (s *SmartOrchestrator) ValidateOutputs(results map[string]string, requirements map[string]string) AggregateValidation {
	reports := make(map[string]ValidationReport, len(results))
	total := 0.0
	allPassed := true

	for id, text := range results {
		report := validate(text, "", requirements, "smart")
		reports[id] = report
		total += float64(report.Score)
		if report.Score < 80 {
			allPassed = false
		}
	}

	avg := 0.0
	if len(results) > 0 {
		avg = total / float64(len(results))
	}

	return AggregateValidation{Reports: reports, AllPassed: allPassed, AvgScore: avg}
}

// AssembleAndPolish concatenates subtask outputs in topological order and
// asks the LLM for a final cohesion pass.
func (s *SmartOrchestrator) AssembleAndPolish(ctx context.Context, results map[string]string, plan Plan) (string, error) {
	order := newDAG(plan.Subtasks).topologicalOrder()

	var combined strings.Builder
	for _, id := range order {
		text, ok := results[id]
		if !ok {
			continue
		}
		fmt.Fprintf(&combined, "## %s\n\n%s\n\n", id, text)
	}

	resp, err := s.client.Call(ctx, llm.Request{
		Prompt:            "Combine and polish the following subtask outputs into one cohesive deliverable, removing duplication and fixing transitions:\n\n" + combined.String(),
		Operation:         "assemble_and_polish",
		PreferredProvider: s.provider,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

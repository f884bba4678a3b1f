package orchestration

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/delegatefabric/fabric/llm"
)

// PlanParseError is raised when the planner LLM's output cannot be parsed
// as a valid Plan after the single allowed re-prompt.
type PlanParseError struct {
	Raw string
	Err error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("plan parse failed: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error { return e.Err }

// NoCapableWorker is raised when a subtask cannot be matched to any
// available worker.
type NoCapableWorker struct {
	SubtaskID string
}

func (e *NoCapableWorker) Error() string {
	return fmt.Sprintf("no capable worker for subtask %q", e.SubtaskID)
}

const planReprompt = "Your previous response was not valid JSON matching the Plan schema. " +
	"Return ONLY valid JSON, no prose, no markdown fences."

// analyzeAndPlan asks client to emit a JSON Plan for task, parses it
// strictly, and validates the resulting subtask DAG. On a parse failure it
// retries once with an explicit re-prompt; a second failure is fatal.
func analyzeAndPlan(ctx context.Context, client *llm.Client, task string, capabilities []string, taskContext string) (Plan, error) {
	prompt := buildPlanPrompt(task, capabilities, taskContext)

	plan, raw, err := requestPlan(ctx, client, prompt)
	if err != nil {
		reprompt := prompt + "\n\n" + planReprompt + "\n\nYour previous output was:\n" + raw
		plan, raw, err = requestPlan(ctx, client, reprompt)
		if err != nil {
			return Plan{}, &PlanParseError{Raw: raw, Err: err}
		}
	}

	if err := newDAG(plan.Subtasks).validate(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func requestPlan(ctx context.Context, client *llm.Client, prompt string) (Plan, string, error) {
	resp, err := client.Call(ctx, llm.Request{
		Prompt:    prompt,
		Operation: "analyze_and_plan",
	})
	if err != nil {
		return Plan{}, "", err
	}
	var plan Plan
	if err := json.Unmarshal([]byte(resp.Text), &plan); err != nil {
		return Plan{}, resp.Text, err
	}
	return plan, resp.Text, nil
}

func buildPlanPrompt(task string, capabilities []string, taskContext string) string {
	return fmt.Sprintf(
		"Decompose the following task into a JSON Plan.\n"+
			"Task: %s\n"+
			"Available worker capabilities: %v\n"+
			"Context: %s\n"+
			"Respond with ONLY JSON matching: "+
			`{"complexity":"low|medium|high","decompose":bool,"subtasks":[{"id":string,"description":string,"dependencies":[string],"difficulty":"low|medium|high","error_risk":"low|medium|high","estimated_tokens":int}],"requirements":{}}`,
		task, capabilities, taskContext)
}

// assignWorkers scores each candidate worker for every subtask and returns
// the chosen subtask_id → worker_name mapping, per the weighted-selection
// rule: relevance 60%, reliability 30%, inverse load 10%; workers with
// load >= 3, or priority >= 4 with reliability < 0.8, are excluded.
func assignWorkers(subtasks []Subtask, workers map[string]WorkerInfo) (map[string]string, error) {
	assignments := make(map[string]string, len(subtasks))

	for _, subtask := range subtasks {
		bestWorker := ""
		bestScore := -1.0

		names := make([]string, 0, len(workers))
		for name := range workers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			info := workers[name]
			if info.Load >= 3 {
				continue
			}
			if info.Priority >= 4 && info.Quality < 0.8 {
				continue
			}

			relevance := skillOverlap(subtask, info)
			inverseLoad := 1.0 / float64(info.Load+1)
			score := relevance*0.6 + info.Quality*0.3 + inverseLoad*0.1

			if score > bestScore ||
				(score == bestScore && info.Quality > workers[bestWorker].Quality) ||
				(score == bestScore && info.Quality == workers[bestWorker].Quality && name < bestWorker) {
				bestScore = score
				bestWorker = name
			}
		}

		if bestWorker == "" {
			return nil, &NoCapableWorker{SubtaskID: subtask.ID}
		}
		assignments[subtask.ID] = bestWorker
	}
	return assignments, nil
}

// skillOverlap estimates relevance in [0,1] from the fraction of the
// worker's best_for tags that appear in the subtask's description, with a
// penalty for matched weaknesses.
func skillOverlap(subtask Subtask, info WorkerInfo) float64 {
	if len(info.BestFor) == 0 && len(info.Weaknesses) == 0 {
		return 0.5
	}

	score := 0.0
	for _, tag := range info.BestFor {
		if containsFold(subtask.Description, tag) {
			score += 1.0 / float64(len(info.BestFor))
		}
	}
	for _, tag := range info.Weaknesses {
		if containsFold(subtask.Description, tag) {
			score -= 0.25
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

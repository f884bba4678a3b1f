package orchestration

import (
	"errors"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WorkflowLibrary is a set of pre-seeded WorkflowDefinitions that bypass
// the planner LLM for common task shapes, matched by trigger keyword or
// pattern.
type WorkflowLibrary struct {
	definitions []WorkflowDefinition
}

// LoadWorkflowLibrary parses one or more YAML documents, each describing a
// WorkflowDefinition, separated by "---".
func LoadWorkflowLibrary(yamlDocs string) (*WorkflowLibrary, error) {
	lib := &WorkflowLibrary{}
	decoder := yaml.NewDecoder(strings.NewReader(yamlDocs))
	for {
		var def WorkflowDefinition
		err := decoder.Decode(&def)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		lib.definitions = append(lib.definitions, def)
	}
	return lib, nil
}

// Match returns the first WorkflowDefinition whose triggers fire for task,
// or false if none match.
func (l *WorkflowLibrary) Match(task string) (WorkflowDefinition, bool) {
	lower := strings.ToLower(task)
	for _, def := range l.definitions {
		for _, kw := range def.Triggers.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return def, true
			}
		}
		for _, pattern := range def.Triggers.Patterns {
			if strings.Contains(lower, strings.ToLower(pattern)) {
				return def, true
			}
		}
	}
	return WorkflowDefinition{}, false
}

// timeoutRequirementKey namespaces a subtask's resolved timeout inside
// Plan.Requirements, since Subtask itself has no timeout field.
func timeoutRequirementKey(subtaskID string) string {
	return "timeout:" + subtaskID
}

// toPlan converts a matched WorkflowDefinition into a Plan whose Subtasks
// mirror the workflow's steps, preserving dependency order so the
// existing DAG/assignment machinery applies unchanged. Each step's
// resolved timeout is carried through Plan.Requirements so the executor
// can bound the corresponding LLM call.
func (def WorkflowDefinition) toPlan() Plan {
	subtasks := make([]Subtask, 0, len(def.Steps))
	requirements := make(map[string]string, len(def.Steps))
	for _, step := range def.Steps {
		subtasks = append(subtasks, Subtask{
			ID:           step.Name,
			Description:  step.Instruction,
			Dependencies: step.DependsOn,
			Difficulty:   DifficultyMedium,
			ErrorRisk:    DifficultyLow,
		})
		requirements[timeoutRequirementKey(step.Name)] = step.timeoutOrDefault(defaultStepTimeout).String()
	}
	return Plan{
		Complexity:   ComplexityMedium,
		Decompose:    len(subtasks) > 1,
		Subtasks:     subtasks,
		Requirements: requirements,
	}
}

const defaultStepTimeout = 5 * time.Minute

// subtaskTimeout resolves a subtask's configured timeout from a Plan's
// Requirements map, defaulting when absent or malformed.
func subtaskTimeout(plan Plan, subtaskID string) time.Duration {
	raw, ok := plan.Requirements[timeoutRequirementKey(subtaskID)]
	if !ok {
		return defaultStepTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultStepTimeout
	}
	return d
}

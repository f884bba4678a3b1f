// Package orchestration decomposes tasks into subtasks, assigns them to
// workers, drives a generate-validate-fix loop, and assembles a final
// deliverable. It sits above llm.Client and routing.Router.
package orchestration

import "time"

// Complexity classifies a Plan's overall difficulty.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Difficulty and ErrorRisk share the same three-value scale as Complexity.
type Difficulty string

const (
	DifficultyLow    Difficulty = "low"
	DifficultyMedium Difficulty = "medium"
	DifficultyHigh   Difficulty = "high"
)

// Plan is the decomposition of a task into an ordered, dependency-linked
// set of subtasks.
type Plan struct {
	Complexity   Complexity        `json:"complexity"`
	Decompose    bool              `json:"decompose"`
	Subtasks     []Subtask         `json:"subtasks"`
	Requirements map[string]string `json:"requirements,omitempty"`
}

// Subtask is one unit of work within a Plan. Dependencies must reference
// other subtask IDs within the same Plan; the DAG they form must be
// acyclic.
type Subtask struct {
	ID               string     `json:"id"`
	Description      string     `json:"description"`
	Dependencies     []string   `json:"dependencies,omitempty"`
	Difficulty       Difficulty `json:"difficulty"`
	ErrorRisk        Difficulty `json:"error_risk"`
	EstimatedTokens  int        `json:"estimated_tokens"`
}

// WorkerInfo describes one candidate worker for assignment.
type WorkerInfo struct {
	Price       float64
	Quality     float64 // reliability, 0-1
	Speed       float64
	Load        int // current in-flight assignment count
	Priority    int
	BestFor     []string
	Weaknesses  []string
}

// ValidationIssue is one defect found by the validation rubric.
type ValidationIssue struct {
	Component    string
	Severity     string
	Issue        string
	FixInstruction string
	CodeExample  string
	Location     string
}

// ValidationReport is the output of the generate→validate loop's scoring
// pass against the completeness/correctness/production-readiness rubric.
type ValidationReport struct {
	Score             int
	Issues            []ValidationIssue
	Strengths         []string
	Completeness      int
	Correctness       int
	ProductionReady   int
	ImprovementSummary string
	FixInstructions   []string
}

// AggregateValidation summarizes a batch of ValidationReports, as returned
// by SmartOrchestrator.ValidateOutputs.
type AggregateValidation struct {
	Reports   map[string]ValidationReport
	AllPassed bool
	AvgScore  float64
}

// OrchestrationResult is returned by the facade's Orchestrate call.
type OrchestrationResult struct {
	Result           string
	OrchestratorName string
	CostEstimate     float64
	QualityScore     int
	Workflow         string
	Provider         string
	Model            string
	Iterations       int
	ValidationPassed bool
}

// WorkflowDefinition is an optional pre-seeded task shape, loaded from
// YAML, that bypasses the planner LLM for common task shapes.
type WorkflowDefinition struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Triggers    WorkflowTriggers  `yaml:"triggers" json:"triggers"`
	Steps       []WorkflowStep    `yaml:"steps" json:"steps"`
	Variables   map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
	OnError     string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// WorkflowTriggers defines what activates a WorkflowDefinition.
type WorkflowTriggers struct {
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// WorkflowStep is one step of a pre-seeded WorkflowDefinition.
type WorkflowStep struct {
	Name        string   `yaml:"name" json:"name"`
	Instruction string   `yaml:"instruction" json:"instruction"`
	DependsOn   []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Required    bool     `yaml:"required,omitempty" json:"required,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// timeoutOrDefault parses WorkflowStep.Timeout, falling back when empty or
// malformed.
func (s WorkflowStep) timeoutOrDefault(def time.Duration) time.Duration {
	if s.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return def
	}
	return d
}

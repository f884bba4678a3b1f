// Package routing implements the quality-aware task router: a pure
// function over (task, requirements) that classifies a task, predicts a
// quality score, and decides whether to delegate it to a cheap model,
// route it through generate-then-validate, escalate to a premium model,
// or reject it outright.
package routing

// TaskType classifies a task by the shape of work it asks for.
type TaskType string

const (
	Generative TaskType = "generative"
	Analytical TaskType = "analytical"
	Hybrid     TaskType = "hybrid"
)

// TaskMetadata is derived once per task from its text and requirements.
type TaskMetadata struct {
	InputSizeBytes       int
	HasEmbeddedCode      bool
	CodeBlockCount       int
	EstimatedOutputLines int
	TaskType             TaskType
}

// Requirements are the caller-supplied routing hints referenced by §4.2.
type Requirements struct {
	NeedsFileLineRefs bool
	NoPlaceholders    bool
	AllowPremium      bool
}

// Action is the routing verdict.
type Action string

const (
	ActionDelegate Action = "delegate"
	ActionHybrid   Action = "hybrid"
	ActionEscalate Action = "escalate"
	ActionReject   Action = "reject"
)

// Decision is produced once per task.
type Decision struct {
	Action           Action
	PredictedQuality int
	Reasoning        []string
	Provider         string
	Model            string
	Workflow         string
	Metadata         TaskMetadata
}

// Thresholds configures the router; zero values fall back to spec
// defaults via NewRouter.
type Thresholds struct {
	RejectionThreshold int // default 60
	HybridThreshold    int // default 80
}

// DefaultThresholds returns the rejection/hybrid cutoffs used across the
// fabric by default: reject below 60, hybrid-validate below 80.
func DefaultThresholds() Thresholds {
	return Thresholds{RejectionThreshold: 60, HybridThreshold: 80}
}

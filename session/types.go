// Package session implements the continuity core: a Monitor tracks
// token-budget pressure, a RecoveryAgent snapshots enough state to resume
// after a context reset, and a BootstrapManager rebuilds a working view
// from that snapshot.
package session

import "time"

// Pressure classifies how close a session is to its context limit.
type Pressure string

const (
	PressureNormal   Pressure = "normal"
	PressureElevated Pressure = "elevated"
	PressureCritical Pressure = "critical"
	PressureEmergency Pressure = "emergency"
)

// Event is one append-only occurrence in a session's history.
type Event struct {
	EventID   string                 `json:"event_id"`
	EventType string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Details   map[string]interface{} `json:"details"`
}

// Common event type names for Event.EventType. No code in this package
// matches on them; EventType also accepts arbitrary additional values.
const (
	EventLogin         = "login"
	EventLogout        = "logout"
	EventError         = "error"
	EventTaskStart     = "task_start"
	EventTaskComplete  = "task_complete"
	EventDecision      = "decision"
	EventFileRead      = "file_read"
	EventFileWritten   = "file_written"
	EventBashCommand   = "bash_command"
	EventSessionEnded  = "session_ended"
)

// CheckpointStatus is the lifecycle state of a SessionCheckpoint.
type CheckpointStatus string

const (
	CheckpointActive    CheckpointStatus = "active"
	CheckpointPaused    CheckpointStatus = "paused"
	CheckpointCompleted CheckpointStatus = "completed"
)

// Checkpoint is a point-in-time, atomically-written snapshot of task
// progress; each write replaces the prior version for the same session.
type Checkpoint struct {
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Status    CheckpointStatus       `json:"status"`
	Progress  float64                `json:"progress"`
}

// PendingTask is one item of unfinished work captured in a RecoveryManifest.
type PendingTask struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
	Context  string `json:"context"`
}

// CriticalContext preserves the decisions and obstacles that would
// otherwise be lost across a context reset.
type CriticalContext struct {
	KeyDecisions []string `json:"key_decisions"`
	Blockers     []string `json:"blockers"`
	NextSteps    []string `json:"next_steps"`
}

// MemoryPointers locates the artifacts a bootstrap needs to rebuild state,
// rather than embedding their full content in the manifest.
type MemoryPointers struct {
	ProjectStateFile string   `json:"project_state_file"`
	SessionLogs      string   `json:"session_logs"`
	ModifiedFiles    []string `json:"modified_files"`
	GitBranch        string   `json:"git_branch"`
}

// Manifest is the fixed-shape recovery document RecoveryAgent writes and
// BootstrapManager reads. Field order and names match the wire schema
// exactly; unknown keys encountered when loading are ignored.
type Manifest struct {
	SessionMetadata      map[string]interface{} `json:"session_metadata"`
	CompletedTasks       []string               `json:"completed_tasks"`
	PendingTasks         []PendingTask          `json:"pending_tasks"`
	ActiveState          map[string]interface{} `json:"active_state"`
	CriticalContext      CriticalContext        `json:"critical_context"`
	MemoryPointers       MemoryPointers         `json:"memory_pointers"`
	BootstrapInstructions string                `json:"bootstrap_instructions"`
}

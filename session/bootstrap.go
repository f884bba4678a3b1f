package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/delegatefabric/fabric/core"
)

// BootstrapMissingManifest is raised when the manifest file required to
// bootstrap a session cannot be found; the message tells the caller to
// run recovery first.
type BootstrapMissingManifest struct {
	Path string
}

func (e *BootstrapMissingManifest) Error() string {
	return fmt.Sprintf("session: no recovery manifest at %s; run PrepareRecovery first", e.Path)
}

// BootstrapManager loads a RecoveryManifest and rebuilds a minimal,
// human-readable view of where a session left off.
type BootstrapManager struct {
	logger core.Logger
	store  ManifestStore
}

// BootstrapOption configures a BootstrapManager.
type BootstrapOption func(*BootstrapManager)

func WithBootstrapLogger(logger core.Logger) BootstrapOption {
	return func(b *BootstrapManager) { b.logger = logger }
}

// WithBootstrapManifestStore reads recovery manifests through store (e.g. a
// RedisManifestStore) instead of the local filesystem, the counterpart to
// RecoveryAgent's WithManifestStore.
func WithBootstrapManifestStore(store ManifestStore) BootstrapOption {
	return func(b *BootstrapManager) { b.store = store }
}

func NewBootstrapManager(opts ...BootstrapOption) *BootstrapManager {
	b := &BootstrapManager{logger: &core.NoOpLogger{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BootstrapOptions customizes one BootstrapSession call.
type BootstrapOptions struct {
	ManifestPath      string
	VerifyEnvironment bool
	CurrentGitBranch  string // required for verification when VerifyEnvironment is set
}

// BootstrapSession loads the manifest at ManifestPath (default
// session_recovery_latest.json), optionally verifies the live environment
// against it, and returns a human-readable multi-section summary.
func (b *BootstrapManager) BootstrapSession(opts BootstrapOptions) (string, error) {
	path := opts.ManifestPath
	if path == "" {
		path = defaultManifestPath
	}

	manifest, err := b.loadManifest(path)
	if err != nil {
		return "", err
	}

	var warnings []string
	if opts.VerifyEnvironment {
		warnings = b.verifyEnvironment(manifest, opts.CurrentGitBranch)
	}

	return renderSummary(manifest, warnings), nil
}

func (b *BootstrapManager) loadManifest(path string) (Manifest, error) {
	var data []byte
	if b.store != nil {
		loaded, err := b.store.Load(context.Background(), path)
		if err != nil {
			return Manifest{}, err
		}
		data = loaded
	} else {
		read, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return Manifest{}, &BootstrapMissingManifest{Path: path}
			}
			return Manifest{}, fmt.Errorf("session: read manifest: %w", err)
		}
		data = read
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("session: parse manifest: %w", err)
	}
	return manifest, nil
}

// verifyEnvironment checks the live environment against what the manifest
// recorded: branch match, the first few modified files still existing,
// and (if named) the project state file being present. Failures are
// returned as warnings, not errors — bootstrap proceeds regardless.
func (b *BootstrapManager) verifyEnvironment(manifest Manifest, currentBranch string) []string {
	var warnings []string

	if currentBranch != "" && manifest.MemoryPointers.GitBranch != "" && currentBranch != manifest.MemoryPointers.GitBranch {
		warnings = append(warnings, fmt.Sprintf("git branch mismatch: manifest=%s current=%s",
			manifest.MemoryPointers.GitBranch, currentBranch))
	}

	const checkFirstN = 5
	files := manifest.MemoryPointers.ModifiedFiles
	if len(files) > checkFirstN {
		files = files[:checkFirstN]
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			warnings = append(warnings, "modified file no longer present: "+f)
		}
	}

	if sf := manifest.MemoryPointers.ProjectStateFile; sf != "" {
		if _, err := os.Stat(sf); err != nil {
			warnings = append(warnings, "required state file missing: "+sf)
		}
	}

	for _, w := range warnings {
		b.logger.Warn("session bootstrap environment check failed", map[string]interface{}{"detail": w})
	}
	return warnings
}

func renderSummary(m Manifest, warnings []string) string {
	var sb strings.Builder

	phase, _ := m.SessionMetadata["phase"].(string)
	project, _ := m.SessionMetadata["project"].(string)
	fmt.Fprintf(&sb, "# Session Bootstrap Summary\n\n")
	fmt.Fprintf(&sb, "Project: %s\nPhase: %s\n", project, phase)
	fmt.Fprintf(&sb, "Completed: %d task(s)  Pending: %d task(s)\n\n", len(m.CompletedTasks), len(m.PendingTasks))

	if next := nextPendingTask(m.PendingTasks); next != nil {
		fmt.Fprintf(&sb, "## Next task\n%s (priority=%s)\n\n", next.Task, next.Priority)
	} else {
		sb.WriteString("## Next task\nnone recorded\n\n")
	}

	sb.WriteString("## Blockers\n")
	if len(m.CriticalContext.Blockers) == 0 {
		sb.WriteString("none\n")
	}
	for _, bl := range m.CriticalContext.Blockers {
		fmt.Fprintf(&sb, "- %s\n", bl)
	}

	sb.WriteString("\n## Next steps\n")
	for _, s := range m.CriticalContext.NextSteps {
		fmt.Fprintf(&sb, "- %s\n", s)
	}

	sb.WriteString("\n## Key decisions\n")
	for _, d := range m.CriticalContext.KeyDecisions {
		fmt.Fprintf(&sb, "- %s\n", d)
	}

	fmt.Fprintf(&sb, "\n## Modified files (branch: %s)\n", m.MemoryPointers.GitBranch)
	for _, f := range m.MemoryPointers.ModifiedFiles {
		fmt.Fprintf(&sb, "- %s\n", f)
	}

	if m.BootstrapInstructions != "" {
		fmt.Fprintf(&sb, "\n## Bootstrap instructions\n%s\n", m.BootstrapInstructions)
	}

	if len(warnings) > 0 {
		sb.WriteString("\n## Environment verification warnings\n")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	return sb.String()
}

func nextPendingTask(tasks []PendingTask) *PendingTask {
	for i := range tasks {
		if tasks[i].Status != "completed" {
			return &tasks[i]
		}
	}
	return nil
}

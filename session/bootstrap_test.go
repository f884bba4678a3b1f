package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifestFile(t *testing.T, path string, m Manifest) {
	t.Helper()
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBootstrapSessionMissingManifest(t *testing.T) {
	mgr := NewBootstrapManager()
	_, err := mgr.BootstrapSession(BootstrapOptions{ManifestPath: filepath.Join(t.TempDir(), "missing.json")})

	var missing *BootstrapMissingManifest
	if !errors.As(err, &missing) {
		t.Fatalf("expected *BootstrapMissingManifest, got %v", err)
	}
}

func TestBootstrapSessionRendersSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recovery.json")
	writeManifestFile(t, path, Manifest{
		SessionMetadata: map[string]interface{}{"phase": "implementing", "project": "fabric"},
		PendingTasks: []PendingTask{
			{Task: "write session tests", Priority: "high", Status: "pending"},
		},
		CriticalContext: CriticalContext{
			Blockers:  []string{"none known"},
			NextSteps: []string{"finish bootstrap manager"},
		},
		MemoryPointers: MemoryPointers{
			GitBranch:     "main",
			ModifiedFiles: []string{"session/bootstrap.go"},
		},
		BootstrapInstructions: "run the test suite",
	})

	mgr := NewBootstrapManager()
	summary, err := mgr.BootstrapSession(BootstrapOptions{ManifestPath: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"write session tests", "main", "run the test suite"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestBootstrapSessionVerifyEnvironmentFlagsBranchMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recovery.json")
	writeManifestFile(t, path, Manifest{
		MemoryPointers: MemoryPointers{GitBranch: "feature/x"},
	})

	mgr := NewBootstrapManager()
	summary, err := mgr.BootstrapSession(BootstrapOptions{
		ManifestPath:      path,
		VerifyEnvironment: true,
		CurrentGitBranch:  "main",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(summary, "branch mismatch") {
		t.Errorf("expected branch mismatch warning in summary:\n%s", summary)
	}
}

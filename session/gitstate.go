package session

import (
	"bytes"
	"context"
	"os/exec"
	"sort"
	"strings"
)

// gitState is the subset of repository state the recovery prompt needs:
// the current branch and the union of staged, unstaged, and untracked
// modified files, truncated to maxModifiedFiles.
type gitState struct {
	Branch        string
	ModifiedFiles []string
}

const maxModifiedFiles = 20

func gatherGitState(ctx context.Context, repoDir string) gitState {
	branch := runGit(ctx, repoDir, "rev-parse", "--abbrev-ref", "HEAD")

	porcelain := runGit(ctx, repoDir, "status", "--porcelain")
	files := parsePorcelainFiles(porcelain)

	if len(files) > maxModifiedFiles {
		files = files[:maxModifiedFiles]
	}

	return gitState{Branch: strings.TrimSpace(branch), ModifiedFiles: files}
}

// parsePorcelainFiles extracts the path from each `git status --porcelain`
// line (format "XY path") and returns the deduplicated, sorted union of
// staged, unstaged, and untracked entries.
func parsePorcelainFiles(porcelain string) []string {
	seen := make(map[string]bool)
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		if path == "" {
			continue
		}
		seen[path] = true
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func runGit(ctx context.Context, repoDir string, args ...string) string {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return ""
	}
	return out.String()
}

// Package workspace manages the shared working tree that coding agents
// mutate during evaluation. The tree is a git checkout; the workspace
// records the commit it was opened at and can restore that state between
// scenarios, so each scenario's change set is attributed from a clean
// slate.
package workspace

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/harrison/gauntlet/internal/models"
)

// Workspace is a handle on one git working tree. A single workspace is
// shared across a whole batch; callers reset it before each scenario's
// generation step rather than isolating scenarios from each other.
type Workspace struct {
	root       string
	baseCommit string
}

// Open validates that root is a git checkout with at least one commit and
// records the current HEAD as the clean state to restore between
// scenarios.
func Open(ctx context.Context, root string) (*Workspace, error) {
	w := &Workspace{root: root}
	if _, err := w.runGit(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("workspace %s is not a git repository: %w", root, err)
	}
	head, err := w.runGit(ctx, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("workspace %s has no commits: %w", root, err)
	}
	w.baseCommit = strings.TrimSpace(head)
	return w, nil
}

// Root returns the workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// BaseCommit returns the commit hash the workspace restores to.
func (w *Workspace) BaseCommit() string {
	return w.baseCommit
}

// Reset restores the tree to the base commit and removes untracked files,
// discarding everything the previous scenario's agent left behind.
func (w *Workspace) Reset(ctx context.Context) error {
	if _, err := w.runGit(ctx, "reset", "--hard", w.baseCommit); err != nil {
		return fmt.Errorf("failed to reset workspace: %w", err)
	}
	if _, err := w.runGit(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("failed to clean workspace: %w", err)
	}
	return nil
}

// IsClean reports whether the tree matches the base state with nothing
// staged, modified, or untracked.
func (w *Workspace) IsClean(ctx context.Context) (bool, error) {
	output, err := w.runGit(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to check workspace status: %w", err)
	}
	return strings.TrimSpace(output) == "", nil
}

// ChangedFiles lists every path the agent created, modified, or deleted
// since the base state, as reported by git status.
func (w *Workspace) ChangedFiles(ctx context.Context) ([]string, error) {
	output, err := w.runGit(ctx, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("failed to list changed files: %w", err)
	}
	return parsePorcelain(output), nil
}

// parsePorcelain extracts paths from git status --porcelain output.
// Renames report the destination path.
func parsePorcelain(output string) []string {
	var files []string
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}
		path := line[3:]
		if idx := strings.Index(path, " -> "); idx >= 0 {
			path = path[idx+4:]
		}
		path = strings.Trim(path, `"`)
		if path != "" {
			files = append(files, path)
		}
	}
	return files
}

// DiffStats summarizes the current change set as files changed and lines
// added/removed. Untracked files are registered with intent-to-add first
// so new files show up in the diff.
func (w *Workspace) DiffStats(ctx context.Context) (*models.ChangeStats, error) {
	if _, err := w.runGit(ctx, "add", "-N", "."); err != nil {
		return nil, fmt.Errorf("failed to register new files for diff: %w", err)
	}
	output, err := w.runGit(ctx, "diff", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to diff workspace: %w", err)
	}
	return parseDiff(output)
}

// parseDiff counts files and added/removed lines in a unified diff.
func parseDiff(output string) (*models.ChangeStats, error) {
	stats := &models.ChangeStats{}
	if strings.TrimSpace(output) == "" {
		return stats, nil
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(output)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	stats.FilesChanged = len(fileDiffs)
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				switch {
				case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				case strings.HasPrefix(line, "+"):
					stats.LinesAdded++
				case strings.HasPrefix(line, "-"):
					stats.LinesRemoved++
				}
			}
		}
	}
	return stats, nil
}

// runGit executes a git subcommand in the workspace root.
func (w *Workspace) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = w.root
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

package adapter

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/harrison/gauntlet/internal/workspace"
)

// ClaudeName is the registry name of the Claude Code adapter.
const ClaudeName = "claude-code"

func init() {
	Register(ClaudeName, func(opts Options) (Adapter, error) {
		return NewClaudeAdapter(opts), nil
	})
}

// ClaudeAdapter drives the claude CLI in headless mode. It follows the
// http.Client pattern: create once, use for the whole batch.
type ClaudeAdapter struct {
	// Binary is the claude executable. Defaults to "claude" from PATH.
	Binary string

	// Model is passed via --model when set.
	Model string

	// ExtraArgs are appended to every invocation.
	ExtraArgs []string

	ws *workspace.Workspace
}

// NewClaudeAdapter builds the adapter from shared options.
func NewClaudeAdapter(opts Options) *ClaudeAdapter {
	binary := opts.Binary
	if binary == "" {
		binary = "claude"
	}
	return &ClaudeAdapter{
		Binary:    binary,
		Model:     opts.Model,
		ExtraArgs: opts.ExtraArgs,
		ws:        opts.Workspace,
	}
}

// Name implements Adapter.
func (a *ClaudeAdapter) Name() string {
	return ClaudeName
}

// CheckAvailability verifies the claude binary is resolvable.
func (a *ClaudeAdapter) CheckAvailability(ctx context.Context) error {
	if _, err := exec.LookPath(a.Binary); err != nil {
		return fmt.Errorf("claude CLI not found (looked for %q): %w", a.Binary, err)
	}
	return nil
}

// Generate resets the workspace, runs claude headless against the prompt,
// and collects the changed file set.
func (a *ClaudeAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Prompt == "" {
		return nil, &GenerationError{Adapter: a.Name(), Err: fmt.Errorf("prompt is required")}
	}
	if err := a.ws.Reset(ctx); err != nil {
		return nil, &GenerationError{Adapter: a.Name(), Err: err}
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if !req.Timeout.None && req.Timeout.Duration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout.Duration)
		defer cancel()
	}

	args := []string{"-p", req.Prompt + contextFileSection(req.ContextFiles)}
	if a.Model != "" {
		args = append(args, "--model", a.Model)
	}
	// Headless runs must be able to write files without prompting.
	args = append(args, "--permission-mode", "bypassPermissions")
	args = append(args, a.ExtraArgs...)

	cmd := exec.CommandContext(runCtx, a.Binary, args...)
	cmd.Dir = a.ws.Root()
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Adapter: a.Name(), After: req.Timeout.Duration}
		}
		return nil, &GenerationError{Adapter: a.Name(), Output: string(output), Err: err}
	}

	result, err := collectChanges(runCtx, a.ws)
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Adapter: a.Name(), After: req.Timeout.Duration}
		}
		return nil, &GenerationError{Adapter: a.Name(), Err: err}
	}
	return result, nil
}

var _ Adapter = (*ClaudeAdapter)(nil)

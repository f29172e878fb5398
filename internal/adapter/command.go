package adapter

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/harrison/gauntlet/internal/workspace"
)

// CommandName is the registry name of the generic command adapter.
const CommandName = "command"

func init() {
	Register(CommandName, func(opts Options) (Adapter, error) {
		return NewCommandAdapter(opts)
	})
}

// CommandAdapter runs an arbitrary argv template as the coding agent, for
// tools gauntlet has no dedicated adapter for. The template may reference
// {{prompt}} and {{model}}; a template that never mentions {{prompt}} gets
// the prompt appended as the final argument.
//
// The argv is executed directly, without a shell, so prompt content never
// needs quoting.
type CommandAdapter struct {
	argv  []string
	model string
	ws    *workspace.Workspace
}

// NewCommandAdapter builds the adapter from shared options. The Command
// template must name at least the executable.
func NewCommandAdapter(opts Options) (*CommandAdapter, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("command adapter requires a command template")
	}
	argv := append([]string{}, opts.Command...)
	argv = append(argv, opts.ExtraArgs...)
	return &CommandAdapter{
		argv:  argv,
		model: opts.Model,
		ws:    opts.Workspace,
	}, nil
}

// Name implements Adapter.
func (a *CommandAdapter) Name() string {
	return CommandName
}

// CheckAvailability verifies the template's executable is resolvable.
func (a *CommandAdapter) CheckAvailability(ctx context.Context) error {
	if _, err := exec.LookPath(a.argv[0]); err != nil {
		return fmt.Errorf("command %q not found: %w", a.argv[0], err)
	}
	return nil
}

// Generate resets the workspace, runs the templated command, and collects
// the changed file set.
func (a *CommandAdapter) Generate(ctx context.Context, req Request) (*Result, error) {
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

	prompt := req.Prompt + contextFileSection(req.ContextFiles)
	argv := a.expandArgs(prompt)

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
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

// expandArgs substitutes template placeholders, appending the prompt when
// the template never consumed it.
func (a *CommandAdapter) expandArgs(prompt string) []string {
	argv := make([]string, len(a.argv))
	usedPrompt := false
	for i, arg := range a.argv {
		if strings.Contains(arg, "{{prompt}}") {
			arg = strings.ReplaceAll(arg, "{{prompt}}", prompt)
			usedPrompt = true
		}
		argv[i] = strings.ReplaceAll(arg, "{{model}}", a.model)
	}
	if !usedPrompt {
		argv = append(argv, prompt)
	}
	return argv
}

var _ Adapter = (*CommandAdapter)(nil)

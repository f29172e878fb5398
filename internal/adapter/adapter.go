// Package adapter wraps the external coding-agent CLIs that generate code
// for evaluation. Each adapter resets the shared workspace to its base
// state, runs the agent with the scenario prompt, and reports exactly the
// file set the agent changed, attributed via the workspace's version
// control status.
package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/workspace"
)

// Request holds one generation call's inputs. The engine resolves the
// timeout before the call; adapters apply it to the subprocess they spawn.
type Request struct {
	// Prompt is the full instruction handed to the agent (required).
	Prompt string

	// ContextFiles lists workspace-relative paths the agent should look
	// at. Adapters surface them to the tool however the tool expects.
	ContextFiles []string

	// Timeout bounds the generation step. An unlimited timeout means
	// wait indefinitely for the agent to finish.
	Timeout models.Timeout
}

// Result is one successful generation's outcome.
type Result struct {
	// ChangedFiles lists the workspace-relative paths the agent created,
	// modified, or deleted.
	ChangedFiles []string

	// Stats summarizes the change set. Nil when stats collection failed;
	// stats are supporting detail and never fail a generation.
	Stats *models.ChangeStats
}

// Adapter is one external coding-agent CLI the engine can evaluate.
// Implementations must be safe to reuse across a sequential batch.
type Adapter interface {
	// Name returns the stable adapter identifier used in reports and
	// baseline keys.
	Name() string

	// CheckAvailability reports whether the underlying tool is callable,
	// with the reason when it is not.
	CheckAvailability(ctx context.Context) error

	// Generate resets the workspace, runs the agent, and reports the
	// changed file set. A deadline overrun surfaces as a TimeoutError;
	// any other failure as a GenerationError.
	Generate(ctx context.Context, req Request) (*Result, error)
}

// collectChanges gathers the changed file list and diff stats after an
// agent run.
func collectChanges(ctx context.Context, ws *workspace.Workspace) (*Result, error) {
	files, err := ws.ChangedFiles(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := ws.DiffStats(ctx)
	if err != nil {
		stats = nil
	}
	return &Result{ChangedFiles: files, Stats: stats}, nil
}

// contextFileSection renders the context file list for inclusion in a
// prompt, or an empty string when there are none.
func contextFileSection(files []string) string {
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nFiles relevant to this task:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	return b.String()
}

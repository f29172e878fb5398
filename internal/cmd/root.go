package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for gauntlet
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gauntlet",
		Short: "Evaluation harness for AI coding agent CLIs",
		Long: `Gauntlet runs evaluation scenarios against AI coding agent CLIs.

Each scenario hands the agent a prompt inside a git workspace, collects
the files it changed, and scores the result with pattern, lint, and LLM
judge validators. Baselines and run history make regressions visible
across agent and model versions.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewAdaptersCommand())
	cmd.AddCommand(NewBaselineCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

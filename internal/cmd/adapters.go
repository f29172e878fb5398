package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harrison/gauntlet/internal/adapter"
	"github.com/spf13/cobra"
)

// NewAdaptersCommand creates the adapters subcommand
func NewAdaptersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adapters",
		Short: "List registered adapters and their availability",
		Long: `List every registered adapter and whether it could run right now.

Availability means the adapter's executable resolves on PATH (and, for
the command adapter, that a command template is configured). The
workspace is not touched.`,
		Args:         cobra.NoArgs,
		RunE:         runAdapters,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")

	return cmd
}

// runAdapters implements the adapters command logic
func runAdapters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered adapters:\n")
	for _, name := range adapter.Names() {
		// The binary override only applies to the adapter it was
		// configured for.
		opts := adapter.Options{Model: cfg.Model, Command: cfg.Command}
		if name == cfg.Adapter {
			opts.Binary = cfg.Binary
		}

		fmt.Fprintf(out, "  %s: ", name)
		if err := adapter.Probe(cmd.Context(), name, opts); err != nil {
			red.Fprint(out, "unavailable")
			fmt.Fprintf(out, " (%v)\n", err)
			continue
		}
		green.Fprint(out, "available")
		fmt.Fprintf(out, "\n")
	}

	return nil
}

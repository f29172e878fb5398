package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/gauntlet/internal/baseline"
	"github.com/spf13/cobra"
)

// NewBaselineCommand creates the 'gauntlet baseline' parent command
func NewBaselineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect and manage saved baselines",
		Long: `Commands for viewing and managing baseline records.

Baselines pin the expected score for an adapter, model, and scenario
triple. Runs started with --baseline-compare report their delta against
these records.`,
	}

	cmd.AddCommand(newBaselineListCommand())
	cmd.AddCommand(newBaselineShowCommand())
	cmd.AddCommand(newBaselineClearCommand())

	return cmd
}

// newBaselineListCommand creates the 'gauntlet baseline list' command
func newBaselineListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved baseline records",
		Args:  cobra.NoArgs,
		RunE:  runBaselineList,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().String("adapter", "", "Only list baselines for this adapter")
	cmd.Flags().String("model", "", "Only list baselines for this model")

	return cmd
}

// runBaselineList executes the baseline list command
func runBaselineList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	adapterName, _ := cmd.Flags().GetString("adapter")
	model, _ := cmd.Flags().GetString("model")

	store := baseline.NewStore(cfg.Baseline.Dir)
	records, err := store.List(adapterName, model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "No baselines saved.\n")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(out, "Saved baselines:\n")
	for _, rec := range records {
		fmt.Fprintf(out, "  %s/%s/%s: score %.4f, %d violation(s), saved %s\n",
			rec.Adapter, keyOrDefault(rec.Model), rec.ScenarioID,
			rec.Score, rec.Violations, rec.Timestamp.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(out, "\n%d baseline(s).\n", len(records))

	return nil
}

// newBaselineShowCommand creates the 'gauntlet baseline show' command
func newBaselineShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <scenario-id>",
		Short: "Show one baseline record",
		Args:  cobra.ExactArgs(1),
		RunE:  runBaselineShow,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().String("adapter", "", "Adapter the baseline was saved under (default: configured adapter)")
	cmd.Flags().String("model", "", "Model the baseline was saved under (default: configured model)")

	return cmd
}

// runBaselineShow executes the baseline show command
func runBaselineShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	adapterName, _ := cmd.Flags().GetString("adapter")
	if !cmd.Flags().Changed("adapter") {
		adapterName = cfg.Adapter
	}
	model, _ := cmd.Flags().GetString("model")
	if !cmd.Flags().Changed("model") {
		model = cfg.Model
	}

	store := baseline.NewStore(cfg.Baseline.Dir)
	rec, err := store.Load(adapterName, model, args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no baseline for %s/%s/%s", adapterName, keyOrDefault(model), args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scenario:   %s\n", rec.ScenarioID)
	fmt.Fprintf(out, "Adapter:    %s\n", rec.Adapter)
	fmt.Fprintf(out, "Model:      %s\n", keyOrDefault(rec.Model))
	fmt.Fprintf(out, "Score:      %.4f\n", rec.Score)
	fmt.Fprintf(out, "Violations: %d\n", rec.Violations)
	fmt.Fprintf(out, "Saved:      %s\n", rec.Timestamp.Format(time.RFC3339))

	return nil
}

// newBaselineClearCommand creates the 'gauntlet baseline clear' command
func newBaselineClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete saved baseline records",
		Long: `Delete baseline records: everything, one adapter's records, one
adapter and model pair's, or a single scenario's.

Examples:
  # Clear every baseline (requires confirmation)
  gauntlet baseline clear

  # Clear one adapter's baselines
  gauntlet baseline clear --adapter claude-code

  # Clear a single scenario's baseline
  gauntlet baseline clear --adapter claude-code --scenario no-console-log`,
		Args: cobra.NoArgs,
		RunE: runBaselineClear,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().String("adapter", "", "Only clear baselines for this adapter")
	cmd.Flags().String("model", "", "Only clear baselines for this model")
	cmd.Flags().String("scenario", "", "Only clear this scenario's baseline")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

// runBaselineClear executes the baseline clear command
func runBaselineClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	adapterName, _ := cmd.Flags().GetString("adapter")
	model, _ := cmd.Flags().GetString("model")
	scenarioID, _ := cmd.Flags().GetString("scenario")
	if scenarioID != "" && adapterName == "" {
		return fmt.Errorf("--scenario requires --adapter")
	}

	out := cmd.OutOrStdout()
	scope := clearScope(adapterName, model, scenarioID)
	fmt.Fprintf(out, "This will delete %s.\n", scope)
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirmAction(cmd) {
		fmt.Fprintf(out, "Operation cancelled.\n")
		return nil
	}

	store := baseline.NewStore(cfg.Baseline.Dir)
	if scenarioID != "" {
		if err := store.Delete(adapterName, model, scenarioID); err != nil {
			return err
		}
	} else if err := store.Clear(adapterName, model); err != nil {
		return err
	}

	fmt.Fprintf(out, "Cleared %s.\n", scope)
	return nil
}

// clearScope names what a clear invocation will remove.
func clearScope(adapter, model, scenarioID string) string {
	switch {
	case scenarioID != "":
		return fmt.Sprintf("the baseline for %s/%s/%s", adapter, keyOrDefault(model), scenarioID)
	case adapter != "" && model != "":
		return fmt.Sprintf("all baselines for %s/%s", adapter, model)
	case adapter != "":
		return fmt.Sprintf("all baselines for %s", adapter)
	}
	return "ALL baselines"
}

// keyOrDefault renders the empty model key the way the store does on disk.
func keyOrDefault(model string) string {
	if model == "" {
		return "default"
	}
	return model
}

// confirmAction prompts for confirmation on the command's input stream.
func confirmAction(cmd *cobra.Command) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "Continue? [y/N]: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}

package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harrison/gauntlet/internal/history"
	"github.com/harrison/gauntlet/internal/models"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'gauntlet history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded run history",
		Long: `Commands for viewing and managing the run-history database.

Every finished batch records one row per scenario, keyed by a run id.
History answers "when did this scenario start failing" across adapter
and model versions.`,
	}

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryStatsCommand())
	cmd.AddCommand(newHistoryClearCommand())

	return cmd
}

// newHistoryShowCommand creates the 'gauntlet history show' command
func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [scenario-id]",
		Short: "Show recent recorded runs",
		Long: `Show recent recorded scenario runs, newest first. With a scenario id,
only that scenario's runs are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryShow,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show")

	return cmd
}

// runHistoryShow executes the history show command
func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.History.DBPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No run history database found at: %s\n", cfg.History.DBPath)
		return nil
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	scenarioID := ""
	if len(args) == 1 {
		scenarioID = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := store.RecentRuns(cmd.Context(), scenarioID, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(out, "No recorded runs.\n")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(out, "Recent runs:\n")
	for _, rec := range runs {
		label := rec.Adapter
		if rec.Model != "" {
			label += "/" + rec.Model
		}
		fmt.Fprintf(out, "  %s  %s  %s  [%s]  score %.4f  ",
			rec.CreatedAt.Format("2006-01-02 15:04"), shortRunID(rec.RunID),
			rec.ScenarioID, label, rec.Score)
		switch {
		case rec.Error != "":
			yellow.Fprint(out, models.VerdictSkip)
		case rec.Passed:
			green.Fprint(out, models.VerdictPass)
		default:
			red.Fprint(out, models.VerdictFail)
		}
		fmt.Fprintf(out, "\n")
	}
	fmt.Fprintf(out, "\n%d run(s) shown.\n", len(runs))

	return nil
}

// newHistoryStatsCommand creates the 'gauntlet history stats' command
func newHistoryStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics over recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryStats,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().String("adapter", "", "Only count runs for this adapter")
	cmd.Flags().String("model", "", "Only count runs for this model")

	return cmd
}

// runHistoryStats executes the history stats command
func runHistoryStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.History.DBPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No run history database found at: %s\n", cfg.History.DBPath)
		return nil
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	adapterName, _ := cmd.Flags().GetString("adapter")
	model, _ := cmd.Flags().GetString("model")

	stats, err := store.Stats(cmd.Context(), adapterName, model)
	if err != nil {
		return err
	}
	if stats.Scenarios == 0 {
		fmt.Fprintf(out, "No recorded runs.\n")
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(out, "Run History Statistics:\n")
	fmt.Fprintf(out, "  Batches: %d\n", stats.Runs)
	fmt.Fprintf(out, "  Scenario runs: %d\n", stats.Scenarios)
	fmt.Fprintf(out, "  Distinct scenarios: %d\n", stats.DistinctScenarios)
	fmt.Fprintf(out, "  Passed: ")
	green.Fprintf(out, "%d\n", stats.Passed)
	fmt.Fprintf(out, "  Failed: ")
	red.Fprintf(out, "%d\n", stats.Failed)
	fmt.Fprintf(out, "  Skipped: ")
	yellow.Fprintf(out, "%d\n", stats.Skipped)
	fmt.Fprintf(out, "  Pass rate: ")
	rate := stats.PassRate * 100
	switch {
	case rate >= 80:
		green.Fprintf(out, "%.1f%%\n", rate)
	case rate >= 50:
		yellow.Fprintf(out, "%.1f%%\n", rate)
	default:
		red.Fprintf(out, "%.1f%%\n", rate)
	}
	fmt.Fprintf(out, "  Average score: %.4f\n", stats.AverageScore)

	return nil
}

// newHistoryClearCommand creates the 'gauntlet history clear' command
func newHistoryClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded run history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	return cmd
}

// runHistoryClear executes the history clear command
func runHistoryClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.History.DBPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No run history database found at: %s\n", cfg.History.DBPath)
		return nil
	}

	fmt.Fprintf(out, "WARNING: This will delete ALL recorded run history.\n")
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirmAction(cmd) {
		fmt.Fprintf(out, "Operation cancelled.\n")
		return nil
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Run history cleared.\n")

	return nil
}

// shortRunID trims a run id to the length shown in listings.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

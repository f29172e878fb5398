package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/gauntlet/internal/adapter"
	"github.com/harrison/gauntlet/internal/baseline"
	"github.com/harrison/gauntlet/internal/config"
	"github.com/harrison/gauntlet/internal/engine"
	"github.com/harrison/gauntlet/internal/history"
	"github.com/harrison/gauntlet/internal/logger"
	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/report"
	"github.com/harrison/gauntlet/internal/scenario"
	"github.com/harrison/gauntlet/internal/validator"
	"github.com/harrison/gauntlet/internal/workspace"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite-file-or-directory>...",
		Short: "Run evaluation scenarios against a coding agent",
		Long: `Run evaluation scenarios against an AI coding agent CLI.

The run command parses the specified suite file(s) or directory (Markdown
or YAML format), then drives every scenario through generation, validation,
scoring, and baseline comparison. The agent works inside a git workspace
that is reset between scenarios, so each prompt starts from the same tree.

Configuration is loaded from <gauntlet-home>/config.yaml if present.
Suite-level adapter, model, and timeout suggestions override the config
file; CLI flags override both.

Examples:
  # Single suite execution
  gauntlet run suite.yaml

  # Directory execution (loads every .md and .yaml suite inside)
  gauntlet run suites/

  # Evaluate a specific adapter and model
  gauntlet run --adapter claude-code --model sonnet suite.yaml

  # Other options
  gauntlet run --dry-run suite.yaml             # List scenarios without executing
  gauntlet run --timeout 2m suite.md            # Per-scenario generation timeout
  gauntlet run --filter-category typescript suite.yaml
  gauntlet run --baseline-compare suite.yaml    # Compare against saved baselines
  gauntlet run --report results.json suite.yaml
  gauntlet run --config custom.yaml suite.yaml  # Use custom config file`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <gauntlet-home>/config.yaml)")
	cmd.Flags().String("adapter", "", "Adapter to evaluate (claude-code, command)")
	cmd.Flags().String("model", "", "Model passed to the adapter")
	cmd.Flags().String("workspace", "", "Git workspace the agent generates code in")
	cmd.Flags().String("timeout", "", "Per-scenario generation timeout (e.g. 90s, 2m, none)")
	cmd.Flags().String("filter-category", "", "Only run scenarios in this category")
	cmd.Flags().String("filter-tag", "", "Only run scenarios carrying this tag")
	cmd.Flags().Bool("baseline-save", false, "Save scenario scores as the new baselines")
	cmd.Flags().Bool("baseline-compare", false, "Compare scenario scores against saved baselines")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("report", "", "Write the final report as JSON to this path")
	cmd.Flags().String("report-md", "", "Write the final report as Markdown to this path")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().Bool("dry-run", false, "List the scenarios that would run without executing them")
	cmd.Flags().Bool("verbose", false, "Show detailed execution information")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigForCommand(cmd)
	if err != nil {
		return err
	}

	// Load and merge the suite files
	if len(args) == 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "Loading scenarios from %s...\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Loading and merging suites from %d paths...\n", len(args))
	}

	suites := make([]*scenario.Suite, 0, len(args))
	for _, path := range args {
		loaded, err := scenario.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load suite %s: %w", path, err)
		}
		suites = append(suites, loaded)
	}
	suite, err := scenario.MergeSuites(suites...)
	if err != nil {
		return err
	}

	// Suite-level adapter, model, and timeout suggestions sit between the
	// config file and the CLI flags: more specific than the file, weaker
	// than an explicit flag.
	if suite.Adapter != "" {
		cfg.Adapter = suite.Adapter
	}
	if suite.Model != "" {
		cfg.Model = suite.Model
	}
	if suite.Timeout != nil {
		cfg.Timeout = suite.Timeout
	}

	flags, err := flagOverrides(cmd)
	if err != nil {
		return err
	}
	cfg.MergeWithFlags(flags)

	// Verbose flag overrides the configured log level
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !adapter.Known(cfg.Adapter) {
		return fmt.Errorf("unknown adapter %q (available: %s)", cfg.Adapter, strings.Join(adapter.Names(), ", "))
	}

	category, _ := cmd.Flags().GetString("filter-category")
	tag, _ := cmd.Flags().GetString("filter-tag")
	scenarios := scenario.Filter(suite.Scenarios, category, tag)
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios match the given filters (%d loaded)", len(suite.Scenarios))
	}

	// Display run summary
	suiteName := suite.Name
	if suiteName == "" {
		suiteName = strings.Join(args, ", ")
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nRun Summary:\n")
	fmt.Fprintf(out, "  Suite: %s\n", suiteName)
	fmt.Fprintf(out, "  Scenarios: %d\n", len(scenarios))
	fmt.Fprintf(out, "  Adapter: %s\n", cfg.Adapter)
	if cfg.Model != "" {
		fmt.Fprintf(out, "  Model: %s\n", cfg.Model)
	}
	fmt.Fprintf(out, "  Workspace: %s\n", cfg.Workspace)
	fmt.Fprintf(out, "  Timeout: %s\n", models.ResolveTimeout(nil, cfg.Timeout))

	// Dry-run mode: list the batch without executing it
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		fmt.Fprintf(out, "\nDry-run mode: %d scenario(s) would run:\n", len(scenarios))
		for i, sc := range scenarios {
			fmt.Fprintf(out, "  %d. %s%s\n", i+1, sc.ID, scenarioLabel(sc))
			if verbose && sc.Description != "" {
				fmt.Fprintf(out, "     %s\n", sc.Description)
			}
		}
		return nil
	}

	fmt.Fprintf(out, "\nStarting evaluation...\n\n")

	console := logger.NewConsoleObserver(out, cfg.LogLevel)
	fileObs, err := logger.NewFileObserver(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file observer: %w", err)
	}
	defer fileObs.Close()

	ctx := cmd.Context()

	ws, err := workspace.Open(ctx, cfg.Workspace)
	if err != nil {
		return fmt.Errorf("failed to open workspace %s: %w", cfg.Workspace, err)
	}

	ag, err := adapter.New(cfg.Adapter, adapter.Options{
		Workspace: ws,
		Model:     cfg.Model,
		Binary:    cfg.Binary,
		Command:   cfg.Command,
	})
	if err != nil {
		return err
	}
	if err := ag.CheckAvailability(ctx); err != nil {
		return fmt.Errorf("adapter %s is not available: %w", ag.Name(), err)
	}

	validators := validator.DefaultSet(ws.Root(), validator.Options{
		JudgeAPIKey:    cfg.JudgeAPIKey(),
		JudgeModel:     cfg.Judge.Model,
		JudgeMaxTokens: cfg.Judge.MaxTokens,
		LintBinary:     cfg.Lint.Binary,
	})

	var baselines *baseline.Store
	if cfg.Baseline.Compare || cfg.Baseline.Save {
		baselines = baseline.NewStore(cfg.Baseline.Dir)
		baselines.Log = console
	}

	observers := []engine.Observer{console, fileObs}
	if cfg.History.Enabled {
		runs, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			// History is best-effort; a broken database must not stop the run.
			console.Warnf("run history disabled: %v", err)
		} else {
			defer runs.Close()
			recorder := history.NewRecorder(runs)
			recorder.Log = console
			observers = append(observers, recorder)
		}
	}

	eng, err := engine.New(engine.Config{
		Adapter:         ag,
		Validators:      validators,
		Model:           cfg.Model,
		Baselines:       baselines,
		CompareBaseline: cfg.Baseline.Compare,
		SaveBaseline:    cfg.Baseline.Save,
		DefaultTimeout:  cfg.Timeout,
		Observer:        logger.NewMultiObserver(observers...),
	})
	if err != nil {
		return err
	}

	rep, runErr := eng.Run(ctx, scenarios)

	// Reports cover whatever did run, even when the batch was interrupted
	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := report.WriteJSON(rep, path); err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
		fmt.Fprintf(out, "Report written to: %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("report-md"); path != "" {
		if err := report.WriteMarkdown(rep, path); err != nil {
			return fmt.Errorf("failed to write Markdown report: %w", err)
		}
		fmt.Fprintf(out, "Report written to: %s\n", path)
	}
	fmt.Fprintf(out, "Logs written to: %s\n", fileObs.Path())

	if runErr != nil {
		return fmt.Errorf("evaluation failed: %w", runErr)
	}
	if notPassed := rep.Summary.Failed + rep.Summary.Skipped; notPassed > 0 {
		return fmt.Errorf("%d of %d scenario(s) did not pass", notPassed, rep.Summary.Total)
	}

	fmt.Fprintf(out, "\nEvaluation completed successfully!\n")
	return nil
}

// flagOverrides builds the config overrides from the flags that were
// explicitly set on the command line.
func flagOverrides(cmd *cobra.Command) (config.Flags, error) {
	var flags config.Flags

	if cmd.Flags().Changed("adapter") {
		v, _ := cmd.Flags().GetString("adapter")
		flags.Adapter = &v
	}
	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		flags.Model = &v
	}
	if cmd.Flags().Changed("workspace") {
		v, _ := cmd.Flags().GetString("workspace")
		flags.Workspace = &v
	}
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		flags.LogDir = &v
	}
	if cmd.Flags().Changed("timeout") {
		raw, _ := cmd.Flags().GetString("timeout")
		timeout, err := models.ParseTimeout(raw)
		if err != nil {
			return flags, fmt.Errorf("invalid --timeout: %w", err)
		}
		flags.Timeout = timeout
	}
	if cmd.Flags().Changed("baseline-save") {
		v, _ := cmd.Flags().GetBool("baseline-save")
		flags.BaselineSave = &v
	}
	if cmd.Flags().Changed("baseline-compare") {
		v, _ := cmd.Flags().GetBool("baseline-compare")
		flags.BaselineCompare = &v
	}
	if cmd.Flags().Changed("no-history") {
		v, _ := cmd.Flags().GetBool("no-history")
		enabled := !v
		flags.History = &enabled
	}
	return flags, nil
}

// scenarioLabel renders the category and severity suffix for a scenario
// listing line.
func scenarioLabel(sc *models.Scenario) string {
	var parts []string
	if sc.Category != "" {
		parts = append(parts, sc.Category)
	}
	if sc.Severity != "" {
		parts = append(parts, string(sc.Severity))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// loadConfigForCommand loads the config honoring the command's --config
// flag, falling back to <gauntlet-home>/config.yaml. Relative paths in an
// explicit config file resolve against the file's own directory.
func loadConfigForCommand(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
		cfg.ResolvePaths(filepath.Dir(abs))
		return cfg, nil
	}

	home, err := config.GauntletHome()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfigFromHome(home)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

package cmd

import (
	"fmt"
	"io"
	"regexp"

	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/scenario"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite-file-or-directory>...",
		Short: "Validate suite files without running them",
		Long: `Parse and validate suite files, checking for:
  - Scenario validation (ids, prompts, severities)
  - Duplicate scenario ids across files
  - Pattern rules that do not compile
  - Scenarios with no validators enabled

Supports multiple input modes:
  - Single file: gauntlet validate suite.yaml
  - Single directory: gauntlet validate suites/
  - Multiple files: gauntlet validate core.yaml security.md

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateSuites(args, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	return cmd
}

// validateSuites validates suite files with a custom output writer (for testing)
func validateSuites(paths []string, output io.Writer) error {
	var errors []string
	var suites []*scenario.Suite

	for _, path := range paths {
		loaded, err := scenario.Load(path)
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", path, err))
			fmt.Fprintf(output, "✗ Failed to load %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(output, "✓ Loaded %d scenario(s) from %s\n", len(loaded.Scenarios), path)
		suites = append(suites, loaded)
	}

	merged, err := scenario.MergeSuites(suites...)
	if err != nil {
		errors = append(errors, err.Error())
		merged = &scenario.Suite{}
	}

	for _, sc := range merged.Scenarios {
		errors = append(errors, lintScenario(sc)...)
	}

	if len(errors) == 0 {
		fmt.Fprintf(output, "\n✓ %d scenario(s) are valid!\n", len(merged.Scenarios))
		return nil
	}

	fmt.Fprintf(output, "\n✗ Validation failed\n")
	for _, msg := range errors {
		fmt.Fprintf(output, "  ✗ %s\n", msg)
	}
	fmt.Fprintf(output, "\nFound %d validation error(s)!\n", len(errors))

	return fmt.Errorf("validation failed with %d error(s)", len(errors))
}

// lintScenario reports suite mistakes that parsing alone does not catch.
func lintScenario(sc *models.Scenario) []string {
	var problems []string

	if !sc.Strategy.PatternsEnabled() && !sc.Strategy.JudgeEnabled() && !sc.Strategy.LintEnabled() {
		problems = append(problems, fmt.Sprintf("scenario %s: no validators enabled, every run would score 0", sc.ID))
	}

	if rules := sc.Strategy.Patterns; rules != nil {
		for _, expr := range rules.ForbiddenPatterns {
			if _, err := regexp.Compile(expr); err != nil {
				problems = append(problems, fmt.Sprintf("scenario %s: invalid forbidden pattern %q: %v", sc.ID, expr, err))
			}
		}
		for _, expr := range rules.RequiredPatterns {
			if _, err := regexp.Compile(expr); err != nil {
				problems = append(problems, fmt.Sprintf("scenario %s: invalid required pattern %q: %v", sc.ID, expr, err))
			}
		}
	}

	return problems
}

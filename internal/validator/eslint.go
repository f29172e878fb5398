package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/scoring"
)

// lintExtensions lists the file types handed to the linter. Anything else
// in the change set is ignored.
var lintExtensions = map[string]bool{
	".js":  true,
	".jsx": true,
	".ts":  true,
	".tsx": true,
	".mjs": true,
	".cjs": true,
}

// ESLintValidator shells out to an eslint binary and converts its JSON
// report into violations. Lint findings are scored with the gentle decay
// curve since they arrive in bulk for stylistic issues.
type ESLintValidator struct {
	root   string
	binary string
	scorer *scoring.Scorer
}

// NewESLintValidator builds a lint validator rooted at the workspace. An
// empty binary falls back to "eslint" resolved via PATH.
func NewESLintValidator(root, binary string) *ESLintValidator {
	if binary == "" {
		binary = "eslint"
	}
	return &ESLintValidator{
		root:   root,
		binary: binary,
		scorer: scoring.NewGentleScorer(),
	}
}

// Kind implements Validator.
func (v *ESLintValidator) Kind() string {
	return models.ValidatorESLint
}

// Validate lints the lintable subset of the changed files. The scenario
// must explicitly enable lint; an absent eslint binary or an empty lintable
// set skips rather than fails.
func (v *ESLintValidator) Validate(ctx context.Context, files []string, scenario *models.Scenario) models.ValidationResult {
	if !scenario.Strategy.LintEnabled() {
		return models.SkippedResult(v.Kind())
	}
	if _, err := exec.LookPath(v.binary); err != nil {
		return models.SkippedResult(v.Kind())
	}

	targets := v.lintableFiles(files)
	if len(targets) == 0 {
		return models.SkippedResult(v.Kind())
	}

	args := []string{"--format", "json"}
	if cfg := scenario.Strategy.Lint; cfg != nil && cfg.ConfigPath != "" {
		args = append(args, "--config", cfg.ConfigPath)
	}
	args = append(args, targets...)

	cmd := exec.CommandContext(ctx, v.binary, args...)
	cmd.Dir = v.root
	output, err := cmd.Output()
	if err != nil {
		// Exit code 1 means findings were reported; the JSON on stdout is
		// still the full report. Anything else is an eslint failure.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return models.FailedResult(v.Kind(), fmt.Errorf("eslint failed: %w", err))
		}
	}

	violations, err := parseESLintOutput(v.root, output)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}

	return models.ValidationResult{
		Validator:  v.Kind(),
		Passed:     len(violations) == 0,
		Score:      models.ScoreOf(v.scorer.Score(violations)),
		Violations: violations,
	}
}

// lintableFiles keeps the changed files eslint can process and that still
// exist on disk.
func (v *ESLintValidator) lintableFiles(files []string) []string {
	var targets []string
	for _, f := range files {
		if !lintExtensions[strings.ToLower(filepath.Ext(f))] {
			continue
		}
		if _, err := os.Stat(filepath.Join(v.root, f)); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		targets = append(targets, f)
	}
	return targets
}

func parseESLintOutput(root string, output []byte) ([]models.Violation, error) {
	type lintMessage struct {
		RuleID   string `json:"ruleId"`
		Severity int    `json:"severity"`
		Message  string `json:"message"`
		Line     int    `json:"line"`
	}
	type lintFile struct {
		FilePath string        `json:"filePath"`
		Messages []lintMessage `json:"messages"`
	}

	var report []lintFile
	if err := json.Unmarshal(output, &report); err != nil {
		return nil, fmt.Errorf("failed to parse eslint output: %w", err)
	}

	var violations []models.Violation
	for _, f := range report {
		path := f.FilePath
		if rel, err := filepath.Rel(root, f.FilePath); err == nil && !strings.HasPrefix(rel, "..") {
			path = rel
		}
		for _, m := range f.Messages {
			severity := models.SeverityMinor
			if m.Severity >= 2 {
				severity = models.SeverityMajor
			}
			violations = append(violations, models.Violation{
				Kind:     models.ValidatorESLint,
				Message:  m.Message,
				File:     path,
				Line:     m.Line,
				Severity: severity,
				Detail:   m.RuleID,
			})
		}
	}
	return violations, nil
}

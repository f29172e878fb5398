// Package report writes finished evaluation reports to disk, as indented
// JSON for machine consumption or as a Markdown document for humans.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/gauntlet/internal/models"
)

// WriteJSON persists the report as indented JSON, creating parent
// directories as needed.
func WriteJSON(report *models.EvaluationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	return writeFile(path, data)
}

// WriteMarkdown renders the report as a Markdown document: run metadata,
// a summary table, a per-scenario results table, and one section per
// scenario with its violations and baseline delta.
func WriteMarkdown(report *models.EvaluationReport, path string) error {
	return writeFile(path, []byte(renderMarkdown(report)))
}

// writeFile writes report bytes, creating the parent directory first.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func renderMarkdown(report *models.EvaluationReport) string {
	var sb strings.Builder

	sb.WriteString("# Gauntlet Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("- **Run ID**: %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("- **Adapter**: %s\n", adapterLabel(report)))
	if !report.StartedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **Started**: %s\n", report.StartedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("- **Duration**: %.1fs\n", report.Duration.Seconds()))

	s := report.Summary
	sb.WriteString("\n## Summary\n\n")
	sb.WriteString("| Scenarios | Passed | Failed | Skipped | Violations | Average score |\n")
	sb.WriteString("|-----------|--------|--------|---------|------------|---------------|\n")
	sb.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %.4f |\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.TotalViolations, s.AverageScore))

	if len(report.Results) == 0 {
		return sb.String()
	}

	sb.WriteString("\n## Results\n\n")
	sb.WriteString("| Scenario | Verdict | Score | Baseline | Duration |\n")
	sb.WriteString("|----------|---------|-------|----------|----------|\n")
	for i := range report.Results {
		r := &report.Results[i]
		sb.WriteString(fmt.Sprintf("| %s | %s | %.4f | %s | %.1fs |\n",
			r.Scenario.ID, r.Verdict(), r.Score, baselineCell(r), r.Duration.Seconds()))
	}

	for i := range report.Results {
		writeScenarioSection(&sb, &report.Results[i])
	}

	return sb.String()
}

// baselineCell renders the baseline delta column, "-" when no comparison
// was made.
func baselineCell(r *models.EvaluationResult) string {
	if r.Baseline == nil {
		return "-"
	}
	return fmt.Sprintf("%+.4f", r.Baseline.Delta)
}

func writeScenarioSection(sb *strings.Builder, r *models.EvaluationResult) {
	sb.WriteString(fmt.Sprintf("\n### %s\n\n", r.Scenario.ID))

	if r.Scenario.Description != "" {
		sb.WriteString(r.Scenario.Description + "\n\n")
	}

	sb.WriteString(fmt.Sprintf("- **Verdict**: %s\n", r.Verdict()))
	sb.WriteString(fmt.Sprintf("- **Score**: %.4f\n", r.Score))
	if r.Scenario.Category != "" {
		sb.WriteString(fmt.Sprintf("- **Category**: %s\n", r.Scenario.Category))
	}
	if r.Scenario.Severity != "" {
		sb.WriteString(fmt.Sprintf("- **Severity**: %s\n", r.Scenario.Severity))
	}
	sb.WriteString(fmt.Sprintf("- **Duration**: %.1fs\n", r.Duration.Seconds()))
	if r.Baseline != nil {
		sb.WriteString(fmt.Sprintf("- **Baseline**: %.4f (delta %+.4f)\n",
			r.Baseline.BaselineScore, r.Baseline.Delta))
	}
	if len(r.ValidationResults) > 0 {
		sb.WriteString(fmt.Sprintf("- **Validators**: %s\n", validatorSummary(r.ValidationResults)))
	}
	if r.ChangeStats != nil {
		sb.WriteString(fmt.Sprintf("- **Changes**: %d files, +%d/-%d lines\n",
			r.ChangeStats.FilesChanged, r.ChangeStats.LinesAdded, r.ChangeStats.LinesRemoved))
	}

	if r.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error**:\n\n```\n%s\n```\n", r.Error))
	}

	if len(r.Violations) > 0 {
		sb.WriteString("\n**Violations**:\n\n")
		for _, v := range r.Violations {
			sb.WriteString(fmt.Sprintf("- %s\n", v.String()))
		}
	}
}

// validatorSummary renders validator verdicts as "pattern 0.9048,
// llm-judge skipped".
func validatorSummary(results []models.ValidationResult) string {
	parts := make([]string, 0, len(results))
	for _, vr := range results {
		parts = append(parts, fmt.Sprintf("%s %s", vr.Validator, vr.Score))
	}
	return strings.Join(parts, ", ")
}

// adapterLabel renders the adapter/model pair for the report header.
func adapterLabel(report *models.EvaluationReport) string {
	if report.Model == "" {
		return report.Adapter
	}
	return report.Adapter + " / " + report.Model
}

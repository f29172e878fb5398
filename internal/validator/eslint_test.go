package validator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/gauntlet/internal/models"
)

func lintScenario(enabled bool) *models.Scenario {
	return &models.Scenario{
		ID:       "lint-scenario",
		Severity: models.SeverityMajor,
		Prompt:   "p",
		Strategy: models.ValidationStrategy{
			Lint: &models.LintConfig{Enabled: enabled},
		},
	}
}

// fakeESLint writes an executable that prints the given report on stdout
// and exits with code.
func fakeESLint(t *testing.T, report string, code int) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "eslint")
	body := fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\nexit %d\n", report, code)
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func TestESLintValidator_DisabledSkips(t *testing.T) {
	v := NewESLintValidator(t.TempDir(), "")
	result := v.Validate(context.Background(), []string{"a.js"}, lintScenario(false))
	assert.True(t, result.Score.Skipped)
}

func TestESLintValidator_MissingBinarySkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "var x = 1\n")

	v := NewESLintValidator(root, "gauntlet-eslint-binary-that-does-not-exist")
	result := v.Validate(context.Background(), []string{"a.js"}, lintScenario(true))

	assert.True(t, result.Score.Skipped, "absent linter is a skip, not a failure")
	assert.Empty(t, result.Error)
}

func TestESLintValidator_NoLintableFilesSkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# hi\n")

	v := NewESLintValidator(root, fakeESLint(t, "[]", 0))
	result := v.Validate(context.Background(), []string{"README.md"}, lintScenario(true))

	assert.True(t, result.Score.Skipped)
}

func TestESLintValidator_ReportsFindings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.js", "var x = 1;\nconsole.log(x)\n")

	report := `[
  {
    "filePath": "` + filepath.Join(root, "src/app.js") + `",
    "messages": [
      {"ruleId": "no-var", "severity": 2, "message": "Unexpected var, use let or const instead.", "line": 1},
      {"ruleId": "no-console", "severity": 1, "message": "Unexpected console statement.", "line": 2}
    ]
  }
]`
	v := NewESLintValidator(root, fakeESLint(t, report, 1))
	result := v.Validate(context.Background(), []string{"src/app.js"}, lintScenario(true))

	require.Len(t, result.Violations, 2)
	assert.False(t, result.Passed)

	errFinding := result.Violations[0]
	assert.Equal(t, models.SeverityMajor, errFinding.Severity)
	assert.Equal(t, "src/app.js", errFinding.File)
	assert.Equal(t, 1, errFinding.Line)
	assert.Equal(t, "no-var", errFinding.Detail)

	warnFinding := result.Violations[1]
	assert.Equal(t, models.SeverityMinor, warnFinding.Severity)

	// Gentle curve: weights 0.7 + 0.3 = 1.0, damped by 2.
	assert.InDelta(t, 0.6065, result.Score.Value, 1e-3)
}

func TestESLintValidator_CleanReportPasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.ts", "export const x = 1\n")

	report := `[{"filePath": "` + filepath.Join(root, "app.ts") + `", "messages": []}]`
	v := NewESLintValidator(root, fakeESLint(t, report, 0))
	result := v.Validate(context.Background(), []string{"app.ts"}, lintScenario(true))

	assert.True(t, result.Passed)
	assert.Equal(t, 1.0, result.Score.Value)
	assert.Empty(t, result.Violations)
}

func TestESLintValidator_CrashFailsValidator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.js", "var x\n")

	v := NewESLintValidator(root, fakeESLint(t, "could not resolve config", 2))
	result := v.Validate(context.Background(), []string{"app.js"}, lintScenario(true))

	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Score.Value)
}

func TestESLintValidator_LintableFileFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "x\n")
	writeFile(t, root, "b.tsx", "x\n")
	writeFile(t, root, "c.go", "package c\n")

	v := NewESLintValidator(root, "eslint")
	got := v.lintableFiles([]string{"a.js", "b.tsx", "c.go", "missing.js"})

	assert.Equal(t, []string{"a.js", "b.tsx"}, got)
}

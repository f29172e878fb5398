package validator

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/gauntlet/internal/models"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	full := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func patternScenario(rules *models.PatternRules, severity models.Severity) *models.Scenario {
	return &models.Scenario{
		ID:       "test-scenario",
		Severity: severity,
		Prompt:   "do the thing",
		Strategy: models.ValidationStrategy{Patterns: rules},
	}
}

func TestPatternValidator_NoRulesSkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.ts", "const x = 1\n")

	v := NewPatternValidator(root)

	t.Run("nil rules", func(t *testing.T) {
		result := v.Validate(context.Background(), []string{"app.ts"}, patternScenario(nil, models.SeverityMajor))
		assert.True(t, result.Score.Skipped, "no configuration must skip, not pass")
		assert.True(t, result.Passed)
		assert.Empty(t, result.Violations)
	})

	t.Run("empty rule lists", func(t *testing.T) {
		result := v.Validate(context.Background(), []string{"app.ts"}, patternScenario(&models.PatternRules{}, models.SeverityMajor))
		assert.True(t, result.Score.Skipped)
	})
}

func TestPatternValidator_ForbiddenLineGranularity(t *testing.T) {
	root := t.TempDir()
	// Forbidden pattern appears on 3 of 10 lines.
	writeFile(t, root, "service.ts", `function fetchUser() {
  console.log("entering")
  const r = api.get("/user")
  console.log(r)
  return r
}
function deleteUser() {
  console.log("bye")
  return api.del("/user")
}
`)

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`console\.log`},
	}, models.SeverityMinor)

	result := v.Validate(context.Background(), []string{"service.ts"}, scenario)

	require.Len(t, result.Violations, 3, "each matching line is its own violation")
	assert.Equal(t, []int{2, 4, 8}, []int{result.Violations[0].Line, result.Violations[1].Line, result.Violations[2].Line})
	for _, viol := range result.Violations {
		assert.Equal(t, "service.ts", viol.File)
		assert.Equal(t, models.SeverityMinor, viol.Severity)
		assert.Equal(t, models.ValidatorPattern, viol.Kind)
	}
	assert.False(t, result.Passed)
}

func TestPatternValidator_ForbiddenAndRequiredTogether(t *testing.T) {
	root := t.TempDir()
	content := `export interface User {
  id: string
  name: string
}

export function load(raw: string): User {
  const parsed = JSON.parse(raw)
  return {
    id: parsed.id,
    name: parsed.name,
    metadata: any,
  } as User
}
`
	writeFile(t, root, "user.ts", content)

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`:\s*any\b`},
		RequiredPatterns:  []string{`interface\s+User`},
	}, models.SeverityCritical)

	result := v.Validate(context.Background(), []string{"user.ts"}, scenario)

	require.Len(t, result.Violations, 1, "required pattern is satisfied, only the forbidden one fires")
	assert.Equal(t, 11, result.Violations[0].Line)
	assert.Equal(t, models.SeverityCritical, result.Violations[0].Severity)
	assert.InDelta(t, math.Exp(-1.0), result.Score.Value, 1e-9)
	assert.False(t, result.Passed)
}

func TestPatternValidator_CleanFilePassesExactly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "user.ts", `export interface User {
  id: string
  name: string
}

export function load(raw: string): User {
  return JSON.parse(raw) as User
}
`)

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`:\s*any\b`},
		RequiredPatterns:  []string{`interface\s+User`},
	}, models.SeverityCritical)

	result := v.Validate(context.Background(), []string{"user.ts"}, scenario)

	assert.Empty(t, result.Violations)
	assert.Equal(t, 1.0, result.Score.Value, "zero violations must score exactly 1.0")
	assert.False(t, result.Score.Skipped)
	assert.True(t, result.Passed)
}

func TestPatternValidator_RequiredPatternPerFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export const a = 1\n")
	writeFile(t, root, "b.ts", "try { run() } catch (err) { report(err) }\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		RequiredPatterns: []string{`catch`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"a.ts", "b.ts"}, scenario)

	require.Len(t, result.Violations, 1, "only the file missing the pattern is flagged")
	assert.Equal(t, "a.ts", result.Violations[0].File)
	assert.Zero(t, result.Violations[0].Line, "required-pattern violations are not line-scoped")
}

func TestPatternValidator_ImportMarkers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "handlers.ts", `import _ from "lodash"
import { z } from "zod"

export const schema = z.object({})
`)

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenImports: []string{"lodash"},
		RequiredImports:  []string{"zod", "express"},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"handlers.ts"}, scenario)

	require.Len(t, result.Violations, 2)

	forbidden := result.Violations[0]
	assert.Contains(t, forbidden.Message, "lodash")
	assert.Equal(t, 1, forbidden.Line, "forbidden import is located at its first occurrence")

	missing := result.Violations[1]
	assert.Contains(t, missing.Message, "express")
	assert.Contains(t, missing.Message, "required import not found")
}

func TestPatternValidator_ForbiddenFilenames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export {}\n")
	writeFile(t, root, "src/app.js.bak", "old\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenFiles: []string{`\.bak$`},
	}, models.SeverityMinor)

	result := v.Validate(context.Background(), []string{"src/app.ts", "src/app.js.bak"}, scenario)

	require.Len(t, result.Violations, 1)
	assert.Equal(t, "src/app.js.bak", result.Violations[0].File)
	assert.Contains(t, result.Violations[0].Message, "app.js.bak")
}

func TestPatternValidator_RequiredFilenamesSingleViolation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.ts", "export {}\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		RequiredFiles: []string{`\.test\.ts$`, `\.spec\.ts$`, `_test\.go$`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"main.ts"}, scenario)

	require.Len(t, result.Violations, 1, "all missing filename patterns fold into one violation")
	msg := result.Violations[0].Message
	assert.Contains(t, msg, `\.test\.ts$`)
	assert.Contains(t, msg, `\.spec\.ts$`)
	assert.Contains(t, msg, `_test\.go$`)
}

func TestPatternValidator_RequiredFilenamesSatisfiedByOneFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.ts", "export {}\n")
	writeFile(t, root, "main.test.ts", "it('works', () => {})\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		RequiredFiles: []string{`\.test\.ts$`, `\.spec\.ts$`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"main.ts", "main.test.ts"}, scenario)

	assert.Empty(t, result.Violations, "one match against any pattern satisfies the rule")
	assert.True(t, result.Passed)
}

func TestPatternValidator_MissingFileSilentlySkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "present.ts", "const ok = true\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`debugger`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"present.ts", "deleted.ts"}, scenario)

	assert.Empty(t, result.Error, "a vanished file is not a validator failure")
	assert.Empty(t, result.Violations)
	assert.True(t, result.Passed)
}

func TestPatternValidator_UnreadableFileFailsValidator(t *testing.T) {
	root := t.TempDir()
	// A self-referencing symlink fails stat with ELOOP for any caller,
	// which is an unreadable entry rather than a missing one.
	require.NoError(t, os.Symlink(filepath.Join(root, "loop.ts"), filepath.Join(root, "loop.ts")))

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`debugger`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"loop.ts"}, scenario)

	assert.False(t, result.Passed)
	assert.False(t, result.Score.Skipped)
	assert.Zero(t, result.Score.Value)
	assert.NotEmpty(t, result.Error)
}

func TestPatternValidator_InvalidRegexFailsValidator(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.ts", "const x = 1\n")

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`(unclosed`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"app.ts"}, scenario)

	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, result.Error, "invalid pattern")
}

func TestPatternValidator_ScoreCoversAllCategories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.ts", `import _ from "lodash"
const v: any = eval("1")
`)

	v := NewPatternValidator(root)
	scenario := patternScenario(&models.PatternRules{
		ForbiddenPatterns: []string{`eval\(`},
		ForbiddenImports:  []string{"lodash"},
		RequiredFiles:     []string{`\.test\.ts$`},
	}, models.SeverityMajor)

	result := v.Validate(context.Background(), []string{"app.ts"}, scenario)

	// One forbidden pattern line, one forbidden import, one missing
	// required filename: weight 3 * 0.7 = 2.1.
	require.Len(t, result.Violations, 3)
	assert.InDelta(t, math.Exp(-2.1), result.Score.Value, 1e-9)
}

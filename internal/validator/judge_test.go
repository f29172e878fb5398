package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/gauntlet/internal/models"
)

func judgeScenario(enabled bool) *models.Scenario {
	return &models.Scenario{
		ID:       "judge-scenario",
		Severity: models.SeverityMajor,
		Prompt:   "Refactor the handler",
		Strategy: models.ValidationStrategy{
			Judge: &models.JudgeConfig{Enabled: enabled, Criteria: []string{"error handling"}},
		},
	}
}

func TestJudgeValidator_DisabledSkips(t *testing.T) {
	v := NewJudgeValidator(t.TempDir(), "sk-test", "")
	result := v.Validate(context.Background(), []string{"a.ts"}, judgeScenario(false))
	assert.True(t, result.Score.Skipped)
}

func TestJudgeValidator_NoAPIKeySkips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.ts", "export {}\n")

	v := NewJudgeValidator(root, "", "")
	result := v.Validate(context.Background(), []string{"a.ts"}, judgeScenario(true))

	assert.True(t, result.Score.Skipped, "missing credentials skip rather than fail")
	assert.Empty(t, result.Error)
}

func TestJudgeValidator_NoFilesSkips(t *testing.T) {
	v := NewJudgeValidator(t.TempDir(), "sk-test", "")
	result := v.Validate(context.Background(), nil, judgeScenario(true))
	assert.True(t, result.Score.Skipped)
}

func TestJudgeValidator_Defaults(t *testing.T) {
	v := NewJudgeValidator(t.TempDir(), "", "")
	assert.Equal(t, DefaultJudgeModel, v.model)
	assert.Equal(t, judgeMaxTokens, v.MaxTokens)
}

func TestParseJudgeResponse(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		content := `{
  "score": 0.65,
  "feedback": "mostly fine",
  "findings": [
    {"message": "missing null check on response", "file": "api.ts", "severity": "major"},
    {"message": "variable name shadows import", "file": "api.ts", "severity": "minor"}
  ]
}`
		score, violations, err := parseJudgeResponse(content, models.SeverityCritical)
		require.NoError(t, err)
		assert.InDelta(t, 0.65, score, 1e-9)
		require.Len(t, violations, 2)
		assert.Equal(t, models.SeverityMajor, violations[0].Severity)
		assert.Equal(t, models.ValidatorJudge, violations[0].Kind)
		assert.Equal(t, "api.ts", violations[0].File)
	})

	t.Run("score clamped to unit interval", func(t *testing.T) {
		score, _, err := parseJudgeResponse(`{"score": 1.7}`, models.SeverityMajor)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)

		score, _, err = parseJudgeResponse(`{"score": -0.4}`, models.SeverityMajor)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("unknown severity falls back to scenario severity", func(t *testing.T) {
		content := `{"score": 0.5, "findings": [{"message": "x", "severity": "blocker"}]}`
		_, violations, err := parseJudgeResponse(content, models.SeverityCritical)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, models.SeverityCritical, violations[0].Severity)
	})

	t.Run("severity is case folded", func(t *testing.T) {
		content := `{"score": 0.5, "findings": [{"message": "x", "severity": "MINOR"}]}`
		_, violations, err := parseJudgeResponse(content, models.SeverityMajor)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, models.SeverityMinor, violations[0].Severity)
	})

	t.Run("empty messages dropped", func(t *testing.T) {
		content := `{"score": 0.9, "findings": [{"message": "", "severity": "major"}]}`
		_, violations, err := parseJudgeResponse(content, models.SeverityMajor)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("malformed json errors", func(t *testing.T) {
		_, _, err := parseJudgeResponse("the code looks good to me", models.SeverityMajor)
		assert.Error(t, err)
	})
}

func TestBuildJudgePrompt(t *testing.T) {
	scenario := judgeScenario(true)
	scenario.Context = "legacy express app"
	files := []loadedFile{
		{path: "api.ts", content: "export const handler = () => {}"},
	}

	prompt := buildJudgePrompt(scenario, "error handling", files)

	for _, want := range []string{
		"Refactor the handler",
		"legacy express app",
		"error handling",
		"### api.ts",
		"export const handler",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
	long := strings.Repeat("x", 50)
	got := truncate(long, 10)
	assert.True(t, strings.HasPrefix(got, "xxxxxxxxxx"))
	assert.Contains(t, got, "truncated")
}

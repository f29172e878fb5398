package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/gauntlet/internal/models"
)

func testScenario(id string) *models.Scenario {
	return &models.Scenario{
		ID:       id,
		Category: "typescript",
		Severity: models.SeverityMajor,
		Prompt:   "Add a retry helper",
	}
}

func passedResult(sc *models.Scenario) *models.EvaluationResult {
	return &models.EvaluationResult{
		Scenario: sc,
		Passed:   true,
		Score:    0.9048,
		Duration: 1200 * time.Millisecond,
		ValidationResults: []models.ValidationResult{
			{Validator: models.ValidatorPattern, Passed: true, Score: models.ScoreOf(0.9048)},
		},
	}
}

func failedResult(sc *models.Scenario) *models.EvaluationResult {
	v := models.Violation{
		Kind:     models.ValidatorPattern,
		Message:  `forbidden pattern "console.log" matched`,
		File:     "src/app.ts",
		Line:     12,
		Severity: models.SeverityMajor,
	}
	return &models.EvaluationResult{
		Scenario:   sc,
		Score:      0.4966,
		Duration:   2 * time.Second,
		Violations: []models.Violation{v},
		ValidationResults: []models.ValidationResult{
			{Validator: models.ValidatorPattern, Score: models.ScoreOf(0.4966), Violations: []models.Violation{v}},
		},
	}
}

func skippedResult(sc *models.Scenario) *models.EvaluationResult {
	return &models.EvaluationResult{
		Scenario: sc,
		Error:    "generation timed out after 30s",
		Duration: 30 * time.Second,
	}
}

func testReport() *models.EvaluationReport {
	report := models.NewReport("claude-code", "sonnet")
	report.Results = []models.EvaluationResult{
		*passedResult(testScenario("alpha")),
		*failedResult(testScenario("beta")),
		*skippedResult(testScenario("gamma")),
	}
	report.Finalize()
	return report
}

// TestNewConsoleObserver verifies the constructor wires the writer and
// normalizes the log level.
func TestNewConsoleObserver(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "debug")

		if co == nil {
			t.Fatal("expected non-nil observer")
		}
		if co.writer != buf {
			t.Error("writer not set correctly")
		}
		if co.logLevel != "debug" {
			t.Errorf("expected log level %q, got %q", "debug", co.logLevel)
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		co := NewConsoleObserver(nil, "info")
		if co == nil {
			t.Fatal("expected non-nil observer even with nil writer")
		}
		if co.writer != nil {
			t.Error("expected nil writer")
		}
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		co := NewConsoleObserver(&bytes.Buffer{}, "verbose")
		if co.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", co.logLevel)
		}
	})
}

// TestConsoleObserver_ScenarioStarted verifies the progress line format.
func TestConsoleObserver_ScenarioStarted(t *testing.T) {
	t.Run("with category and severity", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")

		co.ScenarioStarted(testScenario("no-console-log"), 3, 10)

		output := buf.String()
		if !strings.Contains(output, "[3/10] Running no-console-log (typescript, major)") {
			t.Errorf("unexpected progress line: %q", output)
		}
		if !strings.HasPrefix(output, "[") {
			t.Error("expected output to start with timestamp [")
		}
	})

	t.Run("without category or severity", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")

		co.ScenarioStarted(&models.Scenario{ID: "bare", Prompt: "p"}, 1, 1)

		output := buf.String()
		if !strings.Contains(output, "[1/1] Running bare\n") {
			t.Errorf("unexpected progress line: %q", output)
		}
		if strings.Contains(output, "(") {
			t.Errorf("expected no metadata suffix, got %q", output)
		}
	})
}

// TestConsoleObserver_ScenarioCompleted verifies verdict lines for each
// outcome class.
func TestConsoleObserver_ScenarioCompleted(t *testing.T) {
	t.Run("pass", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")
		sc := testScenario("alpha")

		co.ScenarioCompleted(sc, passedResult(sc))

		output := buf.String()
		if !strings.Contains(output, "alpha: PASS (score 0.9048, 1.2s)") {
			t.Errorf("unexpected verdict line: %q", output)
		}
	})

	t.Run("fail lists violations", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")
		sc := testScenario("beta")

		co.ScenarioCompleted(sc, failedResult(sc))

		output := buf.String()
		if !strings.Contains(output, "beta: FAIL (score 0.4966, 2.0s)") {
			t.Errorf("unexpected verdict line: %q", output)
		}
		if !strings.Contains(output, `- (pattern/major) forbidden pattern "console.log" matched [src/app.ts:12]`) {
			t.Errorf("expected violation detail, got %q", output)
		}
	})

	t.Run("skip shows generation error", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")
		sc := testScenario("gamma")

		co.ScenarioCompleted(sc, skippedResult(sc))

		output := buf.String()
		if !strings.Contains(output, "gamma: SKIP (generation timed out after 30s)") {
			t.Errorf("unexpected verdict line: %q", output)
		}
	})

	t.Run("baseline delta on verdict line", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")
		sc := testScenario("alpha")
		result := passedResult(sc)
		result.Baseline = &models.BaselineComparison{BaselineScore: 0.85, Delta: 0.0548, IsImprovement: true}

		co.ScenarioCompleted(sc, result)

		if !strings.Contains(buf.String(), "score 0.9048, baseline +0.0548, 1.2s") {
			t.Errorf("expected baseline delta, got %q", buf.String())
		}
	})
}

// TestConsoleObserver_ValidatorFinished verifies per-validator lines and
// their levels.
func TestConsoleObserver_ValidatorFinished(t *testing.T) {
	sc := testScenario("beta")

	t.Run("score line at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "debug")

		co.ValidatorFinished(sc, models.ValidationResult{
			Validator:  models.ValidatorPattern,
			Score:      models.ScoreOf(0.4966),
			Violations: []models.Violation{{Kind: models.ValidatorPattern, Message: "m"}},
		})

		if !strings.Contains(buf.String(), "beta: pattern score 0.4966, 1 violations") {
			t.Errorf("unexpected validator line: %q", buf.String())
		}
	})

	t.Run("skipped at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "debug")

		co.ValidatorFinished(sc, models.SkippedResult(models.ValidatorJudge))

		if !strings.Contains(buf.String(), "beta: llm-judge skipped") {
			t.Errorf("unexpected validator line: %q", buf.String())
		}
	})

	t.Run("debug lines hidden at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")

		co.ValidatorFinished(sc, models.SkippedResult(models.ValidatorJudge))

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("validator failure surfaces at warn", func(t *testing.T) {
		buf := &bytes.Buffer{}
		co := NewConsoleObserver(buf, "info")

		co.ValidatorFinished(sc, models.ValidationResult{
			Validator: models.ValidatorESLint,
			Error:     "eslint: command not found",
		})

		if !strings.Contains(buf.String(), "beta: eslint validator failed: eslint: command not found") {
			t.Errorf("unexpected warning line: %q", buf.String())
		}
		if !strings.Contains(buf.String(), "[WARN]") {
			t.Errorf("expected WARN tag, got %q", buf.String())
		}
	})
}

// TestConsoleObserver_BatchCompleted verifies the summary block.
func TestConsoleObserver_BatchCompleted(t *testing.T) {
	buf := &bytes.Buffer{}
	co := NewConsoleObserver(buf, "info")

	co.BatchCompleted(testReport())

	output := buf.String()
	for _, want := range []string{
		"=== Evaluation Summary ===",
		"Adapter: claude-code / sonnet",
		"Scenarios: 3",
		"Passed: 1",
		"Failed: 1",
		"Skipped: 1",
		"Violations: 1",
		"Average score: 0.4671",
		"Pass rate: [===       ] 1/3 (33%)",
		"Duration: ",
		"Failed scenarios:",
		"- beta: score 0.4966, 1 violations",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, output)
		}
	}
}

// TestConsoleObserver_BatchCompletedWithoutModel verifies the adapter label
// omits the model separator when no model is set.
func TestConsoleObserver_BatchCompletedWithoutModel(t *testing.T) {
	buf := &bytes.Buffer{}
	co := NewConsoleObserver(buf, "info")

	report := models.NewReport("command", "")
	report.Finalize()
	co.BatchCompleted(report)

	output := buf.String()
	if !strings.Contains(output, "Adapter: command\n") {
		t.Errorf("unexpected adapter line: %q", output)
	}
	if strings.Contains(output, " / ") {
		t.Errorf("expected no model separator, got %q", output)
	}
	if strings.Contains(output, "Failed scenarios:") {
		t.Errorf("expected no failed list for empty report, got %q", output)
	}
}

// TestConsoleObserver_LevelFiltering verifies the generic level methods
// honor the configured threshold.
func TestConsoleObserver_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		log     func(co *ConsoleObserver)
		want    string
		visible bool
	}{
		{"debug visible at debug", "debug", func(co *ConsoleObserver) { co.Debugf("details %d", 1) }, "[DEBUG] details 1", true},
		{"debug hidden at info", "info", func(co *ConsoleObserver) { co.Debugf("details") }, "", false},
		{"info visible at info", "info", func(co *ConsoleObserver) { co.Infof("hello") }, "[INFO] hello", true},
		{"info hidden at warn", "warn", func(co *ConsoleObserver) { co.Infof("hello") }, "", false},
		{"warn visible at warn", "warn", func(co *ConsoleObserver) { co.Warnf("careful") }, "[WARN] careful", true},
		{"warn hidden at error", "error", func(co *ConsoleObserver) { co.Warnf("careful") }, "", false},
		{"error visible at error", "error", func(co *ConsoleObserver) { co.Errorf("boom") }, "[ERROR] boom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			co := NewConsoleObserver(buf, tt.level)

			tt.log(co)

			if tt.visible {
				if !strings.Contains(buf.String(), tt.want) {
					t.Errorf("expected output to contain %q, got %q", tt.want, buf.String())
				}
			} else if buf.Len() != 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
		})
	}
}

// TestConsoleObserver_EventsRespectLevel verifies event lines are filtered
// like regular messages.
func TestConsoleObserver_EventsRespectLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	co := NewConsoleObserver(buf, "warn")
	sc := testScenario("alpha")

	co.ScenarioStarted(sc, 1, 1)
	co.PhaseChanged(sc, "generating")
	co.ScenarioCompleted(sc, passedResult(sc))
	co.BatchCompleted(testReport())

	if buf.Len() != 0 {
		t.Errorf("expected no output at warn level, got %q", buf.String())
	}
}

// TestConsoleObserver_NilWriter verifies every method is a safe no-op
// without a writer.
func TestConsoleObserver_NilWriter(t *testing.T) {
	co := NewConsoleObserver(nil, "debug")
	sc := testScenario("alpha")

	co.Debugf("d")
	co.Infof("i")
	co.Warnf("w")
	co.Errorf("e")
	co.ScenarioStarted(sc, 1, 1)
	co.PhaseChanged(sc, "generating")
	co.ValidatorFinished(sc, models.SkippedResult(models.ValidatorJudge))
	co.ScenarioCompleted(sc, passedResult(sc))
	co.BatchCompleted(testReport())
}

// TestConsoleObserver_ConcurrentWrites verifies writes stay line-atomic
// under concurrency.
func TestConsoleObserver_ConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	co := NewConsoleObserver(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			co.Infof("message %d", n)
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "\n"); got != 10 {
		t.Errorf("expected 10 lines, got %d:\n%s", got, buf.String())
	}
}

// TestFormatDuration verifies the human-readable duration rendering.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"sub-second", 500 * time.Millisecond, "0.5s"},
		{"seconds with fraction", 1200 * time.Millisecond, "1.2s"},
		{"whole minutes", time.Minute, "1m"},
		{"minutes and seconds", 90 * time.Second, "1m30s"},
		{"whole hours", time.Hour, "1h"},
		{"hours and minutes", 2*time.Hour + 15*time.Minute, "2h15m"},
		{"hours minutes seconds", 2*time.Hour + 5*time.Minute + 30*time.Second, "2h5m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDuration(tt.d); got != tt.want {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}


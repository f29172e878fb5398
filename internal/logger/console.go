// Package logger provides the observers that render gauntlet run progress.
//
// ConsoleObserver writes level-filtered, timestamped lines to a writer,
// with color when the writer is a terminal. FileObserver persists the same
// events to a timestamped run log plus one detail file per scenario.
// Both implement engine.Observer and are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/gauntlet/internal/engine"
	"github.com/harrison/gauntlet/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelDebug int = 0
	levelInfo  int = 1
	levelWarn  int = 2
	levelError int = 3
)

// ConsoleObserver renders engine events to a writer with [HH:MM:SS]
// timestamps and thread safety. It supports log level filtering to control
// message verbosity. Color output is automatically enabled when the writer
// is a terminal.
type ConsoleObserver struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	scheme      *colorScheme
}

var _ engine.Observer = (*ConsoleObserver)(nil)

// NewConsoleObserver creates a ConsoleObserver that writes to the provided
// io.Writer. If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleObserver(writer io.Writer, logLevel string) *ConsoleObserver {
	return &ConsoleObserver{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		scheme:      newColorScheme(),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Color is suppressed when NO_COLOR is set, via fatih/color's detection.
func isTerminal(w io.Writer) bool {
	if color.NoColor {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}

	return "info" // Default level
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (co *ConsoleObserver) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(co.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo // Default to info if unknown
	}
}

// Debugf logs a debug-level message.
// Format: "[HH:MM:SS] [DEBUG] <message>"
func (co *ConsoleObserver) Debugf(format string, args ...interface{}) {
	co.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (co *ConsoleObserver) Infof(format string, args ...interface{}) {
	co.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (co *ConsoleObserver) Warnf(format string, args ...interface{}) {
	co.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
// Format: "[HH:MM:SS] [ERROR] <message>"
func (co *ConsoleObserver) Errorf(format string, args ...interface{}) {
	co.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (co *ConsoleObserver) logWithLevel(level string, message string) {
	if co.writer == nil {
		return
	}

	if !co.shouldLog(strings.ToLower(level)) {
		return
	}

	co.mutex.Lock()
	defer co.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if co.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, co.colorLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	co.writer.Write([]byte(formatted))
}

// colorLevel wraps a level tag in its ANSI color.
func (co *ConsoleObserver) colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return co.scheme.skip.Sprint(level)
	case "ERROR":
		return co.scheme.fail.Sprint(level)
	}
	return level
}

// ScenarioStarted logs the start of a scenario at INFO level.
// Format: "[HH:MM:SS] [3/10] Running <id> (<category>, <severity>)"
func (co *ConsoleObserver) ScenarioStarted(sc *models.Scenario, index, total int) {
	if co.writer == nil || !co.shouldLog("info") {
		return
	}

	co.mutex.Lock()
	defer co.mutex.Unlock()

	ts := timestamp()
	name := sc.ID
	if co.colorOutput {
		name = co.scheme.header.Sprint(sc.ID)
	}

	message := fmt.Sprintf("[%s] [%d/%d] Running %s%s\n", ts, index, total, name, scenarioMeta(sc))
	co.writer.Write([]byte(message))
}

// PhaseChanged logs scenario lifecycle transitions at DEBUG level.
func (co *ConsoleObserver) PhaseChanged(sc *models.Scenario, phase string) {
	co.Debugf("%s: %s", sc.ID, phase)
}

// ValidatorFinished logs each validator verdict at DEBUG level. A validator
// that failed internally is surfaced at WARN so it stays visible at the
// default level.
func (co *ConsoleObserver) ValidatorFinished(sc *models.Scenario, result models.ValidationResult) {
	switch {
	case result.Error != "":
		co.Warnf("%s: %s validator failed: %s", sc.ID, result.Validator, result.Error)
	case result.Score.Skipped:
		co.Debugf("%s: %s skipped", sc.ID, result.Validator)
	default:
		co.Debugf("%s: %s score %s, %d violations", sc.ID, result.Validator, result.Score, len(result.Violations))
	}
}

// ScenarioCompleted logs the scenario verdict at INFO level, followed by
// the violations behind a failing verdict.
// Format: "[HH:MM:SS] <id>: PASS (score 0.9048, 1.2s)"
func (co *ConsoleObserver) ScenarioCompleted(sc *models.Scenario, result *models.EvaluationResult) {
	if co.writer == nil || !co.shouldLog("info") {
		return
	}

	co.mutex.Lock()
	defer co.mutex.Unlock()

	ts := timestamp()
	verdict := result.Verdict()
	if co.colorOutput {
		switch verdict {
		case models.VerdictPass:
			verdict = co.scheme.pass.Sprint(verdict)
		case models.VerdictFail:
			verdict = co.scheme.fail.Sprint(verdict)
		case models.VerdictSkip:
			verdict = co.scheme.skip.Sprint(verdict)
		}
	}

	output := fmt.Sprintf("[%s] %s: %s (%s)\n", ts, sc.ID, verdict, verdictDetail(result))
	for _, v := range result.Violations {
		output += fmt.Sprintf("[%s]   - %s\n", ts, v.String())
	}

	co.writer.Write([]byte(output))
}

// BatchCompleted logs the run summary with completion statistics at INFO
// level, including a pass-rate bar and the list of failed scenarios.
func (co *ConsoleObserver) BatchCompleted(report *models.EvaluationReport) {
	if co.writer == nil || !co.shouldLog("info") {
		return
	}

	co.mutex.Lock()
	defer co.mutex.Unlock()

	ts := timestamp()
	s := report.Summary

	pb := NewProgressBar(s.Total, 10, co.colorOutput)
	pb.Update(s.Passed)

	var output string

	if co.colorOutput {
		header := co.scheme.header.Sprint("=== Evaluation Summary ===")
		output = fmt.Sprintf("[%s] %s\n", ts, header)
		output += fmt.Sprintf("[%s] Adapter: %s\n", ts, adapterLabel(report))
		output += fmt.Sprintf("[%s] Scenarios: %d\n", ts, s.Total)

		passedText := co.scheme.pass.Sprintf("Passed: %d", s.Passed)
		output += fmt.Sprintf("[%s] %s\n", ts, passedText)

		if s.Failed > 0 {
			failedText := co.scheme.fail.Sprintf("Failed: %d", s.Failed)
			output += fmt.Sprintf("[%s] %s\n", ts, failedText)
		} else {
			output += fmt.Sprintf("[%s] Failed: %d\n", ts, s.Failed)
		}

		if s.Skipped > 0 {
			skippedText := co.scheme.skip.Sprintf("Skipped: %d", s.Skipped)
			output += fmt.Sprintf("[%s] %s\n", ts, skippedText)
		} else {
			output += fmt.Sprintf("[%s] Skipped: %d\n", ts, s.Skipped)
		}

		output += fmt.Sprintf("[%s] Violations: %d\n", ts, s.TotalViolations)
		output += fmt.Sprintf("[%s] Average score: %.4f\n", ts, s.AverageScore)
		output += fmt.Sprintf("[%s] Pass rate: %s\n", ts, pb.Render())
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(report.Duration))

		if s.Failed > 0 {
			failedHeader := co.scheme.fail.Sprint("Failed scenarios:")
			output += fmt.Sprintf("[%s] %s\n", ts, failedHeader)
			for i := range report.Results {
				r := &report.Results[i]
				if r.Passed || r.GenerationFailed() {
					continue
				}
				name := co.scheme.fail.Sprint(r.Scenario.ID)
				output += fmt.Sprintf("[%s]   - %s: score %.4f, %d violations\n", ts, name, r.Score, len(r.Violations))
			}
		}
	} else {
		output = fmt.Sprintf("[%s] === Evaluation Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Adapter: %s\n", ts, adapterLabel(report))
		output += fmt.Sprintf("[%s] Scenarios: %d\n", ts, s.Total)
		output += fmt.Sprintf("[%s] Passed: %d\n", ts, s.Passed)
		output += fmt.Sprintf("[%s] Failed: %d\n", ts, s.Failed)
		output += fmt.Sprintf("[%s] Skipped: %d\n", ts, s.Skipped)
		output += fmt.Sprintf("[%s] Violations: %d\n", ts, s.TotalViolations)
		output += fmt.Sprintf("[%s] Average score: %.4f\n", ts, s.AverageScore)
		output += fmt.Sprintf("[%s] Pass rate: %s\n", ts, pb.Render())
		output += fmt.Sprintf("[%s] Duration: %s\n", ts, formatDuration(report.Duration))

		if s.Failed > 0 {
			output += fmt.Sprintf("[%s] Failed scenarios:\n", ts)
			for i := range report.Results {
				r := &report.Results[i]
				if r.Passed || r.GenerationFailed() {
					continue
				}
				output += fmt.Sprintf("[%s]   - %s: score %.4f, %d violations\n", ts, r.Scenario.ID, r.Score, len(r.Violations))
			}
		}
	}

	co.writer.Write([]byte(output))
}

// verdictDetail renders the parenthesized part of a verdict line: the
// generation error for a skipped scenario, otherwise score, baseline delta
// when present, and duration.
func verdictDetail(result *models.EvaluationResult) string {
	if result.GenerationFailed() {
		return result.Error
	}

	if result.Baseline != nil {
		return fmt.Sprintf("score %.4f, baseline %+.4f, %s",
			result.Score, result.Baseline.Delta, formatDuration(result.Duration))
	}

	return fmt.Sprintf("score %.4f, %s", result.Score, formatDuration(result.Duration))
}

// scenarioMeta renders the parenthesized category/severity suffix for a
// scenario line, or an empty string when neither is set.
func scenarioMeta(sc *models.Scenario) string {
	parts := make([]string, 0, 2)
	if sc.Category != "" {
		parts = append(parts, sc.Category)
	}
	if sc.Severity != "" {
		parts = append(parts, string(sc.Severity))
	}

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", strings.Join(parts, ", "))
}

// adapterLabel renders the adapter/model pair for summary output.
func adapterLabel(report *models.EvaluationReport) string {
	if report.Model == "" {
		return report.Adapter
	}
	return report.Adapter + " / " + report.Model
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "1.2s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
}

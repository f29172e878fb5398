package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/gauntlet/internal/engine"
	"github.com/harrison/gauntlet/internal/models"
)

// FileObserver persists run events to a log directory. It writes a
// timestamped per-run log, one detail file per scenario under scenarios/,
// and maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and filters messages by log level.
type FileObserver struct {
	logDir      string
	runLog      *os.File
	runFile     string
	scenarioDir string
	logLevel    string
	mu          sync.Mutex
}

var _ engine.Observer = (*FileObserver)(nil)

// NewFileObserver creates a FileObserver rooted at logDir, creating the
// directory if it doesn't exist. An empty logDir defaults to
// .gauntlet/logs in the current working directory. It opens a timestamped
// run log file and creates/updates the latest.log symlink.
func NewFileObserver(logDir string, logLevel string) (*FileObserver, error) {
	if logDir == "" {
		logDir = filepath.Join(".gauntlet", "logs")
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	scenarioDir := filepath.Join(logDir, "scenarios")
	if err := os.MkdirAll(scenarioDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scenarios directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	// Point latest.log at the current run, replacing any previous link.
	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fo := &FileObserver{
		logDir:      logDir,
		runLog:      file,
		runFile:     runFile,
		scenarioDir: scenarioDir,
		logLevel:    normalizeLogLevel(logLevel),
	}

	fo.writeRunLog("=== Gauntlet Run Log ===\n")
	fo.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fo, nil
}

// Path returns the per-run log file path.
func (fo *FileObserver) Path() string {
	return fo.runFile
}

// shouldLog checks if a message at the given level should be logged.
// Returns true if messageLevel >= configured logLevel.
func (fo *FileObserver) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fo.logLevel)
}

// Debugf logs a debug-level message.
func (fo *FileObserver) Debugf(format string, args ...interface{}) {
	fo.logWithLevel("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs an info-level message.
func (fo *FileObserver) Infof(format string, args ...interface{}) {
	fo.logWithLevel("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs a warning-level message.
func (fo *FileObserver) Warnf(format string, args ...interface{}) {
	fo.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs an error-level message.
func (fo *FileObserver) Errorf(format string, args ...interface{}) {
	fo.logWithLevel("ERROR", fmt.Sprintf(format, args...))
}

// logWithLevel is a helper that logs a message at the specified level if
// filtering allows it.
func (fo *FileObserver) logWithLevel(level string, message string) {
	if !fo.shouldLog(strings.ToLower(level)) {
		return
	}

	fo.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// ScenarioStarted logs the start of a scenario at INFO level.
func (fo *FileObserver) ScenarioStarted(sc *models.Scenario, index, total int) {
	if !fo.shouldLog("info") {
		return
	}

	fo.writeRunLog(fmt.Sprintf("[%s] [%d/%d] Running %s%s\n", timestamp(), index, total, sc.ID, scenarioMeta(sc)))
}

// PhaseChanged logs scenario lifecycle transitions at DEBUG level.
func (fo *FileObserver) PhaseChanged(sc *models.Scenario, phase string) {
	fo.Debugf("%s: %s", sc.ID, phase)
}

// ValidatorFinished logs validator verdicts at DEBUG level, with internal
// validator failures raised to WARN.
func (fo *FileObserver) ValidatorFinished(sc *models.Scenario, result models.ValidationResult) {
	switch {
	case result.Error != "":
		fo.Warnf("%s: %s validator failed: %s", sc.ID, result.Validator, result.Error)
	case result.Score.Skipped:
		fo.Debugf("%s: %s skipped", sc.ID, result.Validator)
	default:
		fo.Debugf("%s: %s score %s, %d violations", sc.ID, result.Validator, result.Score, len(result.Violations))
	}
}

// ScenarioCompleted appends the verdict to the run log and writes the
// scenario's detail file under scenarios/.
func (fo *FileObserver) ScenarioCompleted(sc *models.Scenario, result *models.EvaluationResult) {
	if fo.shouldLog("info") {
		ts := timestamp()
		output := fmt.Sprintf("[%s] %s: %s (%s)\n", ts, sc.ID, result.Verdict(), verdictDetail(result))
		for _, v := range result.Violations {
			output += fmt.Sprintf("[%s]   - %s\n", ts, v.String())
		}
		fo.writeRunLog(output)
	}

	if err := fo.writeScenarioLog(sc, result); err != nil {
		fo.writeRunLog(fmt.Sprintf("[%s] [WARN] %v\n", timestamp(), err))
	}
}

// writeScenarioLog writes detailed information about a scenario evaluation
// to a separate file in the scenarios/ subdirectory.
func (fo *FileObserver) writeScenarioLog(sc *models.Scenario, result *models.EvaluationResult) error {
	// Scenario IDs never contain path separators, so the ID is safe as a
	// file name.
	path := filepath.Join(fo.scenarioDir, fmt.Sprintf("%s.log", sc.ID))

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create scenario log file: %w", err)
	}
	defer file.Close()

	content := fmt.Sprintf("=== Scenario %s ===\n", sc.ID)
	if sc.Description != "" {
		content += fmt.Sprintf("Description: %s\n", sc.Description)
	}
	content += fmt.Sprintf("Verdict: %s\n", result.Verdict())
	content += fmt.Sprintf("Score: %.4f\n", result.Score)
	content += fmt.Sprintf("Duration: %.1fs\n", result.Duration.Seconds())
	content += "\n"

	if sc.Prompt != "" {
		content += fmt.Sprintf("Prompt:\n%s\n\n", sc.Prompt)
	}

	if len(result.ValidationResults) > 0 {
		content += "Validators:\n"
		for _, vr := range result.ValidationResults {
			switch {
			case vr.Error != "":
				content += fmt.Sprintf("  %s: error: %s\n", vr.Validator, vr.Error)
			case vr.Score.Skipped:
				content += fmt.Sprintf("  %s: skipped\n", vr.Validator)
			default:
				content += fmt.Sprintf("  %s: score %s, %d violations\n", vr.Validator, vr.Score, len(vr.Violations))
			}
		}
		content += "\n"
	}

	if len(result.Violations) > 0 {
		content += "Violations:\n"
		for _, v := range result.Violations {
			content += fmt.Sprintf("  - %s\n", v.String())
		}
		content += "\n"
	}

	if len(result.GeneratedFiles) > 0 {
		content += fmt.Sprintf("Changed files:\n  %s\n\n", strings.Join(result.GeneratedFiles, "\n  "))
	}

	if result.Error != "" {
		content += fmt.Sprintf("Error:\n%s\n\n", result.Error)
	}

	if result.Baseline != nil {
		content += fmt.Sprintf("Baseline: %.4f (delta %+.4f)\n\n", result.Baseline.BaselineScore, result.Baseline.Delta)
	}

	content += fmt.Sprintf("Completed at: %s\n", time.Now().Format(time.RFC3339))

	if _, err := file.WriteString(content); err != nil {
		return fmt.Errorf("failed to write scenario log: %w", err)
	}

	return nil
}

// BatchCompleted logs the run summary with final statistics at INFO level.
func (fo *FileObserver) BatchCompleted(report *models.EvaluationReport) {
	if !fo.shouldLog("info") {
		return
	}

	ts := timestamp()
	s := report.Summary

	status := "SUCCESS"
	if s.Passed < s.Total {
		if s.Passed == 0 {
			status = "FAILED"
		} else {
			status = "PARTIAL"
		}
	}

	message := fmt.Sprintf(
		"\n[%s] === EVALUATION SUMMARY ===\n"+
			"[%s] Adapter:       %s\n"+
			"[%s] Scenarios:     %d\n"+
			"[%s] Passed:        %d\n"+
			"[%s] Failed:        %d\n"+
			"[%s] Skipped:       %d\n"+
			"[%s] Violations:    %d\n"+
			"[%s] Average score: %.4f\n"+
			"[%s] Total time:    %.1fs\n"+
			"[%s] Status:        %s (%d/%d passed)\n"+
			"[%s] Completed at:  %s\n",
		ts,
		ts, adapterLabel(report),
		ts, s.Total,
		ts, s.Passed,
		ts, s.Failed,
		ts, s.Skipped,
		ts, s.TotalViolations,
		ts, s.AverageScore,
		ts, report.Duration.Seconds(),
		ts, status, s.Passed, s.Total,
		ts, time.Now().Format(time.RFC3339),
	)

	fo.writeRunLog(message)
}

// Close flushes and closes the run log file.
// It should be called when the observer is no longer needed.
func (fo *FileObserver) Close() error {
	fo.mu.Lock()
	defer fo.mu.Unlock()

	if fo.runLog != nil {
		if err := fo.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fo.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fo.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fo *FileObserver) writeRunLog(message string) {
	fo.mu.Lock()
	defer fo.mu.Unlock()

	if fo.runLog != nil {
		fo.runLog.WriteString(message)
		// Flush after each write so tail -f on the run log stays current.
		fo.runLog.Sync()
	}
}

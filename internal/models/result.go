package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Violation records a single rule breach found by a validator. Violations
// are aggregated by value into the scenario result and never mutated after
// creation.
type Violation struct {
	Kind     string   `json:"kind"`             // Validator kind that raised it
	Message  string   `json:"message"`          // Human-readable description
	File     string   `json:"file,omitempty"`   // Workspace-relative path, when resolvable
	Line     int      `json:"line,omitempty"`   // 1-based line number, 0 when not line-scoped
	Severity Severity `json:"severity"`         // Weight class for scoring
	Detail   string   `json:"detail,omitempty"` // Free-form extra context (rule source, tool output)
}

// String renders a violation the way the console observer prints it.
func (v Violation) String() string {
	loc := ""
	if v.File != "" {
		loc = " [" + v.File
		if v.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, v.Line)
		}
		loc += "]"
	}
	return fmt.Sprintf("(%s/%s) %s%s", v.Kind, v.Severity, v.Message, loc)
}

// Score is one validator's verdict value. A validator that did not run
// (not configured, or its external dependency is absent) produces a
// skipped Score, which never participates in aggregation; otherwise Value
// holds a fitness in [0.0, 1.0].
//
// On the wire a skipped score serializes as -1 so exported reports keep a
// plain numeric score field; in process the tagged form keeps the sentinel
// out of arithmetic.
type Score struct {
	Value   float64
	Skipped bool
}

// ScoreOf wraps a real score value.
func ScoreOf(v float64) Score {
	return Score{Value: v}
}

// SkippedScore marks a validator as not applicable for this scenario.
func SkippedScore() Score {
	return Score{Skipped: true}
}

// Active reports whether the score counts toward the scenario average.
func (s Score) Active() bool {
	return !s.Skipped
}

// MarshalJSON writes the score value, or -1 for a skipped validator.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.Skipped {
		return json.Marshal(-1.0)
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON maps any negative value back to the skipped state.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v < 0 {
		*s = Score{Skipped: true}
		return nil
	}
	*s = Score{Value: v}
	return nil
}

// String renders the score for logs: "skipped" or a 4-decimal value.
func (s Score) String() string {
	if s.Skipped {
		return "skipped"
	}
	return fmt.Sprintf("%.4f", s.Value)
}

// ValidationResult is one validator's verdict for one scenario.
type ValidationResult struct {
	Validator  string      `json:"validator"`            // Kind of the validator that produced it
	Passed     bool        `json:"passed"`               // The validator's own pass verdict
	Score      Score       `json:"score"`                // Skipped, or a fitness in [0,1]
	Violations []Violation `json:"violations,omitempty"` // Findings against the generated code
	Error      string      `json:"error,omitempty"`      // Set when the validator itself failed (not the code under test)
}

// SkippedResult builds the uniform "validator did not run" verdict.
func SkippedResult(kind string) ValidationResult {
	return ValidationResult{Validator: kind, Passed: true, Score: SkippedScore()}
}

// FailedResult builds the uniform "validator itself broke" verdict.
func FailedResult(kind string, err error) ValidationResult {
	return ValidationResult{Validator: kind, Passed: false, Score: ScoreOf(0), Error: err.Error()}
}

// ChangeStats summarizes the workspace diff a generation step produced.
type ChangeStats struct {
	FilesChanged int `json:"files_changed"`
	LinesAdded   int `json:"lines_added"`
	LinesRemoved int `json:"lines_removed"`
}

// BaselineComparison holds the delta between this run's score and the last
// persisted baseline for the same (adapter, model, scenario) key.
type BaselineComparison struct {
	BaselineScore float64 `json:"baseline_score"`
	Delta         float64 `json:"delta"`          // current - baseline
	IsImprovement bool    `json:"is_improvement"` // strictly positive delta; a tie is not an improvement
}

// EvaluationResult is one scenario's full outcome. The engine creates it
// once per scenario and never mutates it after emitting it.
type EvaluationResult struct {
	Scenario          *Scenario           `json:"scenario"`
	Passed            bool                `json:"passed"`
	Score             float64             `json:"score"`                     // Mean of active validator scores, 0 when all skipped
	ValidationResults []ValidationResult  `json:"validation_results"`        // Empty when generation failed
	Violations        []Violation         `json:"violations"`                // Flattened across validators, pattern validator first
	GeneratedFiles    []string            `json:"generated_files,omitempty"` // Files the adapter reported as changed
	ChangeStats       *ChangeStats        `json:"change_stats,omitempty"`    // Diff summary for the scenario's workspace changes
	Duration          time.Duration       `json:"duration"`                  // Wall clock for generate+validate
	Error             string              `json:"error,omitempty"`           // Top-level generation/adapter failure
	Baseline          *BaselineComparison `json:"baseline,omitempty"`        // Present when comparison was requested and a record existed
}

// GenerationFailed reports whether the scenario never reached validation.
func (r *EvaluationResult) GenerationFailed() bool {
	return r.Error != ""
}

// Verdict labels for a scenario outcome as rendered in run output and
// reports.
const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
	VerdictSkip = "SKIP"
)

// Verdict classifies the result as PASS, FAIL, or SKIP. A scenario whose
// generation failed counts as skipped rather than failed, matching the
// Summarize counters.
func (r *EvaluationResult) Verdict() string {
	switch {
	case r.GenerationFailed():
		return VerdictSkip
	case r.Passed:
		return VerdictPass
	}
	return VerdictFail
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary rolls a batch of scenario results up into the counters the CLI
// prints and reports embed.
//
// A scenario is counted failed only when its validators rejected it; a
// scenario that never produced code (top-level error set) counts as skipped
// instead. AverageScore averages over every result, skipped ones included.
type Summary struct {
	Total           int     `json:"total"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	AverageScore    float64 `json:"average_score"`
	TotalViolations int     `json:"total_violations"`
}

// Summarize computes the batch summary from individual results.
func Summarize(results []EvaluationResult) Summary {
	s := Summary{Total: len(results)}
	sum := 0.0
	for i := range results {
		r := &results[i]
		switch {
		case r.Passed:
			s.Passed++
		case r.GenerationFailed():
			s.Skipped++
		default:
			s.Failed++
		}
		sum += r.Score
		s.TotalViolations += len(r.Violations)
	}
	if s.Total > 0 {
		s.AverageScore = sum / float64(s.Total)
	}
	return s
}

// EvaluationReport is the full record of one gauntlet run: which agent was
// evaluated, every scenario outcome, and the rolled-up summary. It is what
// the report writers serialize and what the history store persists.
type EvaluationReport struct {
	RunID     string             `json:"run_id"`
	Adapter   string             `json:"adapter"`
	Model     string             `json:"model,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
	Results   []EvaluationResult `json:"results"`
	Summary   Summary            `json:"summary"`
}

// NewReport starts a report for a run against the given adapter/model pair.
func NewReport(adapter, model string) *EvaluationReport {
	return &EvaluationReport{
		RunID:     uuid.New().String(),
		Adapter:   adapter,
		Model:     model,
		StartedAt: time.Now(),
	}
}

// Finalize computes the summary and total duration once all results are in.
func (r *EvaluationReport) Finalize() {
	r.Summary = Summarize(r.Results)
	r.Duration = time.Since(r.StartedAt)
}

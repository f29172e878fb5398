package history

import (
	"context"

	"github.com/harrison/gauntlet/internal/engine"
	"github.com/harrison/gauntlet/internal/models"
)

// WarnLogger receives recording failures.
type WarnLogger interface {
	Warnf(format string, args ...interface{})
}

// Recorder persists finished batches into a history store as an engine
// observer. Recording is best-effort: a failed insert is reported through
// Log and never affects the run's outcome.
type Recorder struct {
	store *Store
	// Log receives warnings about failed recordings. Nil silences them.
	Log WarnLogger
}

// NewRecorder wraps a store for observer registration.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

var _ engine.Observer = (*Recorder)(nil)

func (r *Recorder) ScenarioStarted(sc *models.Scenario, index, total int) {}

func (r *Recorder) PhaseChanged(sc *models.Scenario, phase string) {}

func (r *Recorder) ValidatorFinished(sc *models.Scenario, res models.ValidationResult) {}

func (r *Recorder) ScenarioCompleted(sc *models.Scenario, res *models.EvaluationResult) {}

// BatchCompleted records the finished report, including partial reports
// from interrupted batches.
func (r *Recorder) BatchCompleted(report *models.EvaluationReport) {
	if r.store == nil {
		return
	}
	if err := r.store.RecordRun(context.Background(), report); err != nil && r.Log != nil {
		r.Log.Warnf("failed to record run history: %v", err)
	}
}

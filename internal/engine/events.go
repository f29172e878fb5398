package engine

import "github.com/harrison/gauntlet/internal/models"

// Scenario lifecycle phases. Every scenario moves pending → generating →
// validating → complete, or ends at failed when generation errors out.
// PhasePending is the initial state; the engine announces it implicitly
// through ScenarioStarted rather than as a transition.
const (
	PhasePending    = "pending"
	PhaseGenerating = "generating"
	PhaseValidating = "validating"
	PhaseComplete   = "complete"
	PhaseFailed     = "failed"
)

// Observer receives engine lifecycle events. Events are delivered
// synchronously between scenario steps, so implementations should return
// quickly. The engine runs identically whether or not an observer is
// attached.
type Observer interface {
	// ScenarioStarted fires before generation begins, with the scenario's
	// 1-based position in the batch.
	ScenarioStarted(scenario *models.Scenario, index, total int)
	// PhaseChanged fires at each lifecycle transition.
	PhaseChanged(scenario *models.Scenario, phase string)
	// ValidatorFinished fires after each validator completes, in run order.
	ValidatorFinished(scenario *models.Scenario, result models.ValidationResult)
	// ScenarioCompleted fires once per scenario with its final result.
	ScenarioCompleted(scenario *models.Scenario, result *models.EvaluationResult)
	// BatchCompleted fires after the last scenario with the finalized
	// report, including partial reports from interrupted batches.
	BatchCompleted(report *models.EvaluationReport)
}

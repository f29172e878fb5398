package logger

import (
	"github.com/harrison/gauntlet/internal/engine"
	"github.com/harrison/gauntlet/internal/models"
)

// MultiObserver fans engine events out to every attached observer in
// order. The run command uses it to drive the console and the file log
// from a single engine hookup.
type MultiObserver []engine.Observer

var _ engine.Observer = MultiObserver(nil)

// NewMultiObserver bundles observers into a single engine.Observer,
// dropping nil entries.
func NewMultiObserver(observers ...engine.Observer) MultiObserver {
	m := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// ScenarioStarted forwards the event to every observer.
func (m MultiObserver) ScenarioStarted(sc *models.Scenario, index, total int) {
	for _, o := range m {
		o.ScenarioStarted(sc, index, total)
	}
}

// PhaseChanged forwards the event to every observer.
func (m MultiObserver) PhaseChanged(sc *models.Scenario, phase string) {
	for _, o := range m {
		o.PhaseChanged(sc, phase)
	}
}

// ValidatorFinished forwards the event to every observer.
func (m MultiObserver) ValidatorFinished(sc *models.Scenario, result models.ValidationResult) {
	for _, o := range m {
		o.ValidatorFinished(sc, result)
	}
}

// ScenarioCompleted forwards the event to every observer.
func (m MultiObserver) ScenarioCompleted(sc *models.Scenario, result *models.EvaluationResult) {
	for _, o := range m {
		o.ScenarioCompleted(sc, result)
	}
}

// BatchCompleted forwards the event to every observer.
func (m MultiObserver) BatchCompleted(report *models.EvaluationReport) {
	for _, o := range m {
		o.BatchCompleted(report)
	}
}

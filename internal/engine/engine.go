// Package engine drives evaluation batches: for each scenario it invokes
// the generation adapter, runs the configured validators over the changed
// files, folds their verdicts into one scored result, and applies baseline
// comparison. Scenarios run strictly sequentially because generation
// mutates a single shared workspace.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/gauntlet/internal/adapter"
	"github.com/harrison/gauntlet/internal/baseline"
	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/validator"
)

// passThreshold is the overall score a scenario must reach to pass.
// Passing additionally requires a violation-free run; both gates are
// checked independently.
const passThreshold = 0.8

// Config carries the collaborators and batch settings an Engine needs.
type Config struct {
	// Adapter produces code changes for each scenario. Required.
	Adapter adapter.Adapter
	// Validators run in slice order against every scenario. Keeping the
	// pattern validator first keeps its violations first in flattened
	// lists.
	Validators []validator.Validator
	// Model is recorded in the report and in baseline keys.
	Model string

	// Baselines backs comparison and saving. Required when either flag
	// below is set.
	Baselines       *baseline.Store
	CompareBaseline bool
	SaveBaseline    bool

	// DefaultTimeout is the batch-level generation deadline. nil falls
	// through to the built-in default; an explicit "none" disables the
	// deadline for every scenario that does not set its own.
	DefaultTimeout *models.Timeout

	// Observer receives lifecycle events and may be nil.
	Observer Observer
}

// Engine evaluates scenario batches against one adapter.
type Engine struct {
	adapter         adapter.Adapter
	validators      []validator.Validator
	model           string
	baselines       *baseline.Store
	compareBaseline bool
	saveBaseline    bool
	defaultTimeout  *models.Timeout
	observer        Observer
}

// New builds an Engine from cfg.
func New(cfg Config) (*Engine, error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("engine adapter cannot be nil")
	}
	if (cfg.CompareBaseline || cfg.SaveBaseline) && cfg.Baselines == nil {
		return nil, fmt.Errorf("baseline store is required when baseline compare or save is enabled")
	}
	return &Engine{
		adapter:         cfg.Adapter,
		validators:      cfg.Validators,
		model:           cfg.Model,
		baselines:       cfg.Baselines,
		compareBaseline: cfg.CompareBaseline,
		saveBaseline:    cfg.SaveBaseline,
		defaultTimeout:  cfg.DefaultTimeout,
		observer:        cfg.Observer,
	}, nil
}

// Run evaluates every scenario in input order and returns the finished
// report. Each scenario's full generate → validate → score → baseline
// lifecycle completes before the next scenario starts.
//
// A canceled ctx stops the batch between scenarios; a baseline I/O failure
// stops it after the affected scenario. Both return the report for the
// scenarios that did run alongside the error.
func (e *Engine) Run(ctx context.Context, scenarios []*models.Scenario) (*models.EvaluationReport, error) {
	report := models.NewReport(e.adapter.Name(), e.model)
	total := len(scenarios)

	var runErr error
	for i, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		if e.observer != nil {
			e.observer.ScenarioStarted(sc, i+1, total)
		}

		result := e.evaluateScenario(ctx, sc)
		baselineErr := e.applyBaseline(result)

		report.Results = append(report.Results, *result)
		if e.observer != nil {
			e.observer.ScenarioCompleted(sc, result)
		}

		if baselineErr != nil {
			runErr = baselineErr
			break
		}
	}

	report.Finalize()
	if e.observer != nil {
		e.observer.BatchCompleted(report)
	}
	return report, runErr
}

// evaluateScenario runs one scenario's lifecycle. Every failure mode is
// folded into the returned result; nothing escapes the scenario boundary,
// so a batch always yields one result per input scenario. That includes
// panics from adapter or validator implementations.
func (e *Engine) evaluateScenario(ctx context.Context, sc *models.Scenario) (result *models.EvaluationResult) {
	start := time.Now()
	result = &models.EvaluationResult{
		Scenario:          sc,
		ValidationResults: []models.ValidationResult{},
		Violations:        []models.Violation{},
	}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic during evaluation: %v", r)
			result.Passed = false
			result.Score = 0
			result.Duration = time.Since(start)
			e.changePhase(sc, PhaseFailed)
		}
	}()

	e.changePhase(sc, PhaseGenerating)

	timeout := models.ResolveTimeout(sc.Timeout, e.defaultTimeout)
	gen, err := e.adapter.Generate(ctx, adapter.Request{
		Prompt:       buildPrompt(sc),
		ContextFiles: sc.ContextFiles,
		Timeout:      timeout,
	})
	if err != nil {
		result.Error = err.Error()
		if adapter.IsTimeoutError(err) {
			result.Violations = append(result.Violations, models.Violation{
				Kind:     "generation",
				Message:  fmt.Sprintf("generation timed out after %s", timeout),
				Severity: sc.Severity,
			})
		}
		result.Duration = time.Since(start)
		e.changePhase(sc, PhaseFailed)
		return result
	}

	result.GeneratedFiles = gen.ChangedFiles
	result.ChangeStats = gen.Stats

	e.changePhase(sc, PhaseValidating)

	for _, v := range e.validators {
		vres := v.Validate(ctx, gen.ChangedFiles, sc)
		result.ValidationResults = append(result.ValidationResults, vres)
		if e.observer != nil {
			e.observer.ValidatorFinished(sc, vres)
		}
	}

	aggregate(result)

	result.Duration = time.Since(start)
	e.changePhase(sc, PhaseComplete)
	return result
}

// aggregate folds validator verdicts into the scenario-level outcome:
// overall score = mean of active (non-skipped) scores, 0 when none ran;
// violations = concatenation in validator run order; passed = score at
// or above the threshold and zero violations.
func aggregate(result *models.EvaluationResult) {
	var sum float64
	active := 0
	for _, vres := range result.ValidationResults {
		if vres.Score.Active() {
			sum += vres.Score.Value
			active++
		}
		result.Violations = append(result.Violations, vres.Violations...)
	}
	if active > 0 {
		result.Score = sum / float64(active)
	}
	result.Passed = result.Score >= passThreshold && len(result.Violations) == 0
}

// applyBaseline compares and records the result against the baseline store
// when those operations were requested. Scenarios that never generated
// code are neither compared nor recorded. Store failures propagate: a
// requested baseline operation that silently failed would corrupt
// longitudinal tracking.
func (e *Engine) applyBaseline(result *models.EvaluationResult) error {
	if e.baselines == nil || result.GenerationFailed() {
		return nil
	}

	name := e.adapter.Name()
	if e.compareBaseline {
		cmp, err := e.baselines.Compare(name, e.model, result.Scenario.ID, result.Score)
		if err != nil {
			return fmt.Errorf("baseline compare for scenario %s: %w", result.Scenario.ID, err)
		}
		result.Baseline = cmp
	}
	if e.saveBaseline {
		if err := e.baselines.Save(baseline.RecordFor(name, e.model, result)); err != nil {
			return fmt.Errorf("baseline save for scenario %s: %w", result.Scenario.ID, err)
		}
	}
	return nil
}

func (e *Engine) changePhase(sc *models.Scenario, phase string) {
	if e.observer != nil {
		e.observer.PhaseChanged(sc, phase)
	}
}

// buildPrompt joins the scenario's inline context and prompt into the text
// handed to the adapter.
func buildPrompt(sc *models.Scenario) string {
	if strings.TrimSpace(sc.Context) == "" {
		return sc.Prompt
	}
	return sc.Context + "\n\n" + sc.Prompt
}

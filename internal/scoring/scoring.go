// Package scoring turns validator findings into numeric fitness values.
//
// Scores decay exponentially with the accumulated severity weight of the
// violations found. A validator that finds nothing always scores exactly
// 1.0; a single critical finding lands near 0.37; stacked findings push
// the score toward zero without ever reaching it.
package scoring

import (
	"math"

	"github.com/harrison/gauntlet/internal/models"
)

const (
	weightCritical = 1.0
	weightMajor    = 0.7
	weightMinor    = 0.3
)

const (
	// DefaultDamping divides the accumulated weight before decay.
	DefaultDamping = 1.0
	// GentleDamping flattens the curve for lint findings, which arrive
	// in bulk and should not crater the score the way correctness
	// findings do.
	GentleDamping = 2.0
)

// Weight maps a severity to its scoring weight. Unknown severities weigh
// the same as major.
func Weight(s models.Severity) float64 {
	switch s {
	case models.SeverityCritical:
		return weightCritical
	case models.SeverityMinor:
		return weightMinor
	default:
		return weightMajor
	}
}

// TotalWeight sums the weights of all violations. Repeated findings count
// every time they appear.
func TotalWeight(violations []models.Violation) float64 {
	total := 0.0
	for _, v := range violations {
		total += Weight(v.Severity)
	}
	return total
}

// Scorer computes exponential-decay scores from violation lists.
type Scorer struct {
	// Damping divides the accumulated weight before exponentiation.
	// Values above 1 flatten the decay curve.
	Damping float64
}

// NewScorer returns a scorer with the standard decay curve.
func NewScorer() *Scorer {
	return &Scorer{Damping: DefaultDamping}
}

// NewGentleScorer returns a scorer with the flattened curve used for lint
// output.
func NewGentleScorer() *Scorer {
	return &Scorer{Damping: GentleDamping}
}

// Score converts a violation list to a fitness in [0, 1]. An empty list
// scores exactly 1.0; otherwise the result is exp(-totalWeight/damping),
// clamped to the unit interval.
func (s *Scorer) Score(violations []models.Violation) float64 {
	if len(violations) == 0 {
		return 1.0
	}
	damping := s.Damping
	if damping <= 0 {
		damping = DefaultDamping
	}
	return clamp(math.Exp(-TotalWeight(violations) / damping))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

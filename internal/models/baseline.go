package models

import "time"

// BaselineRecord is the persisted best-known score for one
// (adapter, model, scenario) combination. The baseline store keeps exactly
// one record per combination; saving again overwrites it.
type BaselineRecord struct {
	ScenarioID string    `json:"scenario_id"`
	Adapter    string    `json:"adapter"`
	Model      string    `json:"model,omitempty"`
	Score      float64   `json:"score"`
	Violations int       `json:"violations"`
	Timestamp  time.Time `json:"timestamp"`
}

// Compare builds the comparison of a freshly computed score against this
// baseline. The delta is current minus baseline; only a strictly positive
// delta counts as an improvement.
func (b *BaselineRecord) Compare(current float64) *BaselineComparison {
	delta := current - b.Score
	return &BaselineComparison{
		BaselineScore: b.Score,
		Delta:         delta,
		IsImprovement: delta > 0,
	}
}

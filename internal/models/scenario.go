// Package models defines the data types shared across gauntlet: scenarios,
// validation strategies, violations, scores, evaluation results, reports,
// and baseline records.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies how serious a scenario (and the violations it
// produces) is considered during scoring.
type Severity string

// Scenario severity levels, ordered from most to least serious.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return true
	}
	return false
}

// NormalizeSeverity lowercases and trims a severity value, falling back to
// SeverityMajor for empty or unknown input so every scenario scores with a
// defined weight.
func NormalizeSeverity(raw string) Severity {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return SeverityMajor
	}
	return s
}

// Validator kind identifiers. Violations and validation results carry one
// of these so reports can attribute findings to the validator that raised
// them.
const (
	ValidatorPattern = "pattern"
	ValidatorJudge   = "llm-judge"
	ValidatorESLint  = "eslint"
)

// Scenario is one configured evaluation case: a generation prompt plus the
// strategy used to judge whatever the coding agent produced. Scenarios are
// immutable once loaded; the engine only reads them.
type Scenario struct {
	ID           string             `yaml:"id" json:"id"`                                           // Unique identifier within a suite
	Category     string             `yaml:"category" json:"category,omitempty"`                     // Free-form grouping (e.g. "typescript", "security")
	Severity     Severity           `yaml:"severity" json:"severity"`                               // Severity applied to every pattern violation
	Tags         []string           `yaml:"tags" json:"tags,omitempty"`                             // Filter labels
	Description  string             `yaml:"description" json:"description,omitempty"`               // Human summary shown in reports
	Prompt       string             `yaml:"prompt" json:"prompt"`                                   // Natural-language generation prompt
	Context      string             `yaml:"context" json:"context,omitempty"`                       // Inline context prepended to the prompt
	ContextFiles []string           `yaml:"context_files" json:"context_files,omitempty"`           // Workspace-relative files handed to the adapter
	Strategy     ValidationStrategy `yaml:"validation" json:"validation"`                           // Which validators run and how
	Timeout      *Timeout           `yaml:"timeout,omitempty" json:"timeout,omitempty"`             // nil = use the batch default
	SourceFile   string             `yaml:"-" json:"-"`                                             // Suite file this scenario was loaded from
}

// Validate checks that the scenario carries the fields the engine needs.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return errors.New("scenario id is required")
	}
	if strings.ContainsAny(s.ID, "/\\") {
		return fmt.Errorf("scenario id %q must not contain path separators", s.ID)
	}
	if s.Prompt == "" {
		return fmt.Errorf("scenario %s: prompt is required", s.ID)
	}
	if s.Severity != "" && !s.Severity.Valid() {
		return fmt.Errorf("scenario %s: invalid severity %q (must be critical, major, or minor)", s.ID, s.Severity)
	}
	return nil
}

// Normalize fills defaults that loading leaves open: an unset severity
// becomes major so scoring always has a weight to apply.
func (s *Scenario) Normalize() {
	s.Severity = NormalizeSeverity(string(s.Severity))
}

// HasTag reports whether the scenario carries the given tag.
func (s *Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidationStrategy selects which validators run for a scenario. Each
// sub-configuration is independently optional: pattern validation is
// enabled whenever any rule list is non-empty, judge and lint require an
// explicit enabled flag.
type ValidationStrategy struct {
	Patterns *PatternRules `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	Judge    *JudgeConfig  `yaml:"judge,omitempty" json:"judge,omitempty"`
	Lint     *LintConfig   `yaml:"lint,omitempty" json:"lint,omitempty"`
}

// PatternsEnabled reports whether pattern validation applies: presence of
// at least one configured rule enables it, there is no explicit flag.
func (v *ValidationStrategy) PatternsEnabled() bool {
	return v.Patterns != nil && !v.Patterns.Empty()
}

// JudgeEnabled reports whether the LLM judge is explicitly enabled.
func (v *ValidationStrategy) JudgeEnabled() bool {
	return v.Judge != nil && v.Judge.Enabled
}

// LintEnabled reports whether the lint validator is explicitly enabled.
func (v *ValidationStrategy) LintEnabled() bool {
	return v.Lint != nil && v.Lint.Enabled
}

// PatternRules holds the textual rules the pattern validator applies to
// generated files. Pattern fields are uncompiled regular expressions;
// import fields are literal substrings; file fields match base filenames.
type PatternRules struct {
	ForbiddenPatterns []string `yaml:"forbidden_patterns,omitempty" json:"forbidden_patterns,omitempty"` // Must not match any line of any file
	RequiredPatterns  []string `yaml:"required_patterns,omitempty" json:"required_patterns,omitempty"`   // Must match somewhere in each file
	ForbiddenImports  []string `yaml:"forbidden_imports,omitempty" json:"forbidden_imports,omitempty"`   // Literal marker must not appear in any file
	RequiredImports   []string `yaml:"required_imports,omitempty" json:"required_imports,omitempty"`     // Literal marker must appear in each file
	ForbiddenFiles    []string `yaml:"forbidden_files,omitempty" json:"forbidden_files,omitempty"`       // No generated basename may match
	RequiredFiles     []string `yaml:"required_files,omitempty" json:"required_files,omitempty"`         // At least one generated basename must match one
}

// Empty reports whether no rule category is configured at all. An empty
// rule set makes the pattern validator a no-op (skip), which is distinct
// from running it and finding full compliance.
func (r *PatternRules) Empty() bool {
	if r == nil {
		return true
	}
	return len(r.ForbiddenPatterns) == 0 &&
		len(r.RequiredPatterns) == 0 &&
		len(r.ForbiddenImports) == 0 &&
		len(r.RequiredImports) == 0 &&
		len(r.ForbiddenFiles) == 0 &&
		len(r.RequiredFiles) == 0
}

// JudgeConfig configures the LLM judge validator for one scenario.
type JudgeConfig struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	Model     string   `yaml:"model,omitempty" json:"model,omitempty"`         // Override of the batch judge model
	Criteria  []string `yaml:"criteria,omitempty" json:"criteria,omitempty"`   // Review criteria injected into the judge prompt
	Threshold float64  `yaml:"threshold,omitempty" json:"threshold,omitempty"` // Per-validator pass threshold (default 0.8)
}

// LintConfig configures the lint validator for one scenario.
type LintConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ConfigPath string `yaml:"config_path,omitempty" json:"config_path,omitempty"` // Optional lint config passed through to the tool
}

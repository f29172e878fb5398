package validator

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/harrison/gauntlet/internal/models"
	"github.com/harrison/gauntlet/internal/scoring"
)

// PatternValidator applies purely textual rules to changed files: forbidden
// and required content regexes, literal import markers, and filename rules.
// It has no semantic understanding of the code it inspects.
type PatternValidator struct {
	root   string
	scorer *scoring.Scorer
}

// NewPatternValidator builds a pattern validator that resolves reported
// file paths against root.
func NewPatternValidator(root string) *PatternValidator {
	return &PatternValidator{
		root:   root,
		scorer: scoring.NewScorer(),
	}
}

// Kind implements Validator.
func (v *PatternValidator) Kind() string {
	return models.ValidatorPattern
}

// contentRule is a compiled content regex paired with its source text so
// violations can name the rule that fired.
type contentRule struct {
	src string
	re  *regexp.Regexp
}

func compileRules(patterns []string) ([]contentRule, error) {
	rules := make([]contentRule, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		rules = append(rules, contentRule{src: p, re: re})
	}
	return rules, nil
}

// Validate runs all six rule categories over the changed files and scores
// the combined violation list. With no rules configured the validator
// skips; a rule that fails to compile or a file that exists but cannot be
// read fails the validator itself.
func (v *PatternValidator) Validate(ctx context.Context, files []string, scenario *models.Scenario) models.ValidationResult {
	rules := scenario.Strategy.Patterns
	if rules.Empty() {
		return models.SkippedResult(v.Kind())
	}

	forbidden, err := compileRules(rules.ForbiddenPatterns)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}
	required, err := compileRules(rules.RequiredPatterns)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}
	forbiddenNames, err := compileRules(rules.ForbiddenFiles)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}
	requiredNames, err := compileRules(rules.RequiredFiles)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}

	loaded, err := loadFiles(v.root, files)
	if err != nil {
		return models.FailedResult(v.Kind(), err)
	}

	severity := scenario.Severity
	var violations []models.Violation
	violations = append(violations, checkForbiddenPatterns(loaded, forbidden, severity)...)
	violations = append(violations, checkRequiredPatterns(loaded, required, severity)...)
	violations = append(violations, checkForbiddenImports(loaded, rules.ForbiddenImports, severity)...)
	violations = append(violations, checkRequiredImports(loaded, rules.RequiredImports, severity)...)
	violations = append(violations, checkForbiddenFiles(loaded, forbiddenNames, severity)...)
	violations = append(violations, checkRequiredFiles(loaded, requiredNames, severity)...)

	return models.ValidationResult{
		Validator:  v.Kind(),
		Passed:     len(violations) == 0,
		Score:      models.ScoreOf(v.scorer.Score(violations)),
		Violations: violations,
	}
}

// checkForbiddenPatterns flags every line a forbidden regex matches. A
// pattern hitting three lines of one file yields three violations.
func checkForbiddenPatterns(files []loadedFile, rules []contentRule, severity models.Severity) []models.Violation {
	var violations []models.Violation
	for _, f := range files {
		for i, line := range f.lines {
			for _, r := range rules {
				if r.re.MatchString(line) {
					violations = append(violations, models.Violation{
						Kind:     models.ValidatorPattern,
						Message:  fmt.Sprintf("forbidden pattern found: %s", r.src),
						File:     f.path,
						Line:     i + 1,
						Severity: severity,
						Detail:   strings.TrimSpace(line),
					})
				}
			}
		}
	}
	return violations
}

// checkRequiredPatterns flags each (pattern, file) pair where the regex
// never matches the full file content.
func checkRequiredPatterns(files []loadedFile, rules []contentRule, severity models.Severity) []models.Violation {
	var violations []models.Violation
	for _, f := range files {
		for _, r := range rules {
			if !r.re.MatchString(f.content) {
				violations = append(violations, models.Violation{
					Kind:     models.ValidatorPattern,
					Message:  fmt.Sprintf("required pattern not found: %s", r.src),
					File:     f.path,
					Severity: severity,
				})
			}
		}
	}
	return violations
}

// checkForbiddenImports flags one violation per (marker, file) where the
// literal marker appears, located at the first line containing it.
func checkForbiddenImports(files []loadedFile, markers []string, severity models.Severity) []models.Violation {
	var violations []models.Violation
	for _, f := range files {
		for _, marker := range markers {
			if !strings.Contains(f.content, marker) {
				continue
			}
			line := 0
			for i, l := range f.lines {
				if strings.Contains(l, marker) {
					line = i + 1
					break
				}
			}
			violations = append(violations, models.Violation{
				Kind:     models.ValidatorPattern,
				Message:  fmt.Sprintf("forbidden import found: %s", marker),
				File:     f.path,
				Line:     line,
				Severity: severity,
			})
		}
	}
	return violations
}

// checkRequiredImports flags one violation per (marker, file) where the
// literal marker never appears.
func checkRequiredImports(files []loadedFile, markers []string, severity models.Severity) []models.Violation {
	var violations []models.Violation
	for _, f := range files {
		for _, marker := range markers {
			if !strings.Contains(f.content, marker) {
				violations = append(violations, models.Violation{
					Kind:     models.ValidatorPattern,
					Message:  fmt.Sprintf("required import not found: %s", marker),
					File:     f.path,
					Severity: severity,
				})
			}
		}
	}
	return violations
}

// checkForbiddenFiles flags each (pattern, file) pair where the regex
// matches the file's base name.
func checkForbiddenFiles(files []loadedFile, rules []contentRule, severity models.Severity) []models.Violation {
	var violations []models.Violation
	for _, f := range files {
		base := filepath.Base(f.path)
		for _, r := range rules {
			if r.re.MatchString(base) {
				violations = append(violations, models.Violation{
					Kind:     models.ValidatorPattern,
					Message:  fmt.Sprintf("forbidden file created: %s", base),
					File:     f.path,
					Severity: severity,
					Detail:   fmt.Sprintf("matched pattern: %s", r.src),
				})
			}
		}
	}
	return violations
}

// checkRequiredFiles verifies at least one changed file's base name matches
// at least one configured pattern. When none do, it produces exactly one
// violation listing every configured pattern.
func checkRequiredFiles(files []loadedFile, rules []contentRule, severity models.Severity) []models.Violation {
	if len(rules) == 0 {
		return nil
	}
	for _, f := range files {
		base := filepath.Base(f.path)
		for _, r := range rules {
			if r.re.MatchString(base) {
				return nil
			}
		}
	}
	patterns := make([]string, len(rules))
	for i, r := range rules {
		patterns[i] = r.src
	}
	return []models.Violation{{
		Kind:     models.ValidatorPattern,
		Message:  fmt.Sprintf("no generated file matches required filename patterns: %s", strings.Join(patterns, ", ")),
		Severity: severity,
	}}
}

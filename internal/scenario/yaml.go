package scenario

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/harrison/gauntlet/internal/models"
)

// suiteDefaults are per-scenario fallbacks a suite may declare once.
// A default only applies where the scenario leaves the field unset.
type suiteDefaults struct {
	Severity   string                     `yaml:"severity"`
	Category   string                     `yaml:"category"`
	Tags       []string                   `yaml:"tags"`
	Validation *models.ValidationStrategy `yaml:"validation"`
}

// yamlSuite is the on-disk shape of a YAML suite file.
type yamlSuite struct {
	Name      string            `yaml:"name"`
	Adapter   string            `yaml:"adapter"`
	Model     string            `yaml:"model"`
	Timeout   *models.Timeout   `yaml:"timeout"`
	Defaults  *suiteDefaults    `yaml:"defaults"`
	Scenarios []models.Scenario `yaml:"scenarios"`
}

// YAMLParser parses suite files written as a single YAML document.
type YAMLParser struct{}

func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

func (p *YAMLParser) Parse(r io.Reader) (*Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	var doc yamlSuite
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse suite: %w", err)
	}

	suite := &Suite{
		Name:    doc.Name,
		Adapter: doc.Adapter,
		Model:   doc.Model,
		Timeout: doc.Timeout,
	}
	for i := range doc.Scenarios {
		sc := doc.Scenarios[i]
		applyDefaults(&sc, doc.Defaults)
		suite.Scenarios = append(suite.Scenarios, &sc)
	}
	return suite, nil
}

// applyDefaults fills suite-level fallbacks into fields the scenario
// leaves unset. Tags are merged, everything else is fill-if-empty;
// validation falls back per validator, so a scenario that configures
// only patterns still inherits a suite-wide judge or lint block.
func applyDefaults(sc *models.Scenario, d *suiteDefaults) {
	if d == nil {
		return
	}
	if sc.Severity == "" && d.Severity != "" {
		sc.Severity = models.Severity(d.Severity)
	}
	if sc.Category == "" {
		sc.Category = d.Category
	}
	for _, tag := range d.Tags {
		if !sc.HasTag(tag) {
			sc.Tags = append(sc.Tags, tag)
		}
	}
	if d.Validation != nil {
		if sc.Strategy.Patterns == nil {
			sc.Strategy.Patterns = d.Validation.Patterns
		}
		if sc.Strategy.Judge == nil {
			sc.Strategy.Judge = d.Validation.Judge
		}
		if sc.Strategy.Lint == nil {
			sc.Strategy.Lint = d.Validation.Lint
		}
	}
}

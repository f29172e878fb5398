// Package scenario loads evaluation suites from YAML and Markdown files.
//
// A YAML suite is a document with a scenarios: list plus optional
// suite-level fields (name, adapter, model, timeout) and a defaults:
// block of per-scenario fallbacks. A Markdown suite carries the same
// suite-level fields in YAML frontmatter and defines one scenario per
// "## Scenario: <id>" heading. Load accepts a single suite file or a
// directory of suite files.
package scenario

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/gauntlet/internal/models"
)

// Format represents the format of a suite file
type Format int

const (
	// FormatUnknown represents an unknown or unsupported file format
	FormatUnknown Format = iota
	// FormatMarkdown represents a Markdown (.md, .markdown) suite file
	FormatMarkdown
	// FormatYAML represents a YAML (.yaml, .yml) suite file
	FormatYAML
)

// String returns the string representation of the Format
func (f Format) String() string {
	switch f {
	case FormatMarkdown:
		return "markdown"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Suite is a parsed set of scenarios plus the suite-level run settings
// the CLI applies when its own flags are absent.
type Suite struct {
	Name      string
	Adapter   string             // suggested adapter, CLI flag wins
	Model     string             // suggested model, CLI flag wins
	Timeout   *models.Timeout    // batch default timeout for the whole suite
	Scenarios []*models.Scenario // in file order
}

// Parser is the interface that all suite parsers must implement
type Parser interface {
	// Parse reads from an io.Reader and returns a parsed Suite
	Parse(r io.Reader) (*Suite, error)
}

// DetectFormat automatically detects the suite format based on file extension
// Supported extensions:
//   - .md, .markdown -> FormatMarkdown
//   - .yaml, .yml -> FormatYAML
//   - all others -> FormatUnknown
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// NewParser creates a new parser instance for the specified format
// Returns an error if the format is unknown or unsupported
func NewParser(format Format) (Parser, error) {
	switch format {
	case FormatMarkdown:
		return NewMarkdownParser(), nil
	case FormatYAML:
		return NewYAMLParser(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %v", format)
	}
}

// Load reads scenarios from a suite file, or from every suite file in a
// directory. Every scenario is normalized and validated, and scenario IDs
// must be unique across everything loaded. Loading zero scenarios is an
// error: a run with nothing to evaluate is a configuration mistake.
func Load(path string) (*Suite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if info.IsDir() {
		return LoadDirectory(path)
	}

	suite, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	merged, err := MergeSuites(suite)
	if err != nil {
		return nil, err
	}
	if len(merged.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", path)
	}
	return merged, nil
}

// LoadDirectory loads every suite file in a directory, in filename order,
// and merges them into a single suite.
func LoadDirectory(dirname string) (*Suite, error) {
	info, err := os.Stat(dirname)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirname)
	}

	entries, err := os.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if DetectFormat(entry.Name()) == FormatUnknown {
			continue
		}
		files = append(files, filepath.Join(dirname, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no suite files found in %s (supported: .md, .markdown, .yaml, .yml)", dirname)
	}
	sort.Strings(files)

	var suites []*Suite
	for _, file := range files {
		suite, err := loadFile(file)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}

	merged, err := MergeSuites(suites...)
	if err != nil {
		return nil, err
	}
	if merged.Name == "" {
		merged.Name = filepath.Base(dirname)
	}
	if len(merged.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios found in %s", dirname)
	}
	return merged, nil
}

// loadFile parses a single suite file, normalizes and validates its
// scenarios, and stamps each one with the absolute source path.
func loadFile(path string) (*Suite, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unknown file format: %s (supported: .md, .markdown, .yaml, .yml)", path)
	}

	parser, err := NewParser(format)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	suite, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	for _, sc := range suite.Scenarios {
		sc.Normalize()
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		sc.SourceFile = absPath
	}

	if suite.Name == "" {
		base := filepath.Base(path)
		suite.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return suite, nil
}

// MergeSuites combines suites loaded from multiple files. Suite-level
// fields keep the first non-empty value; scenarios concatenate in input
// order. A scenario ID appearing twice is an error.
func MergeSuites(suites ...*Suite) (*Suite, error) {
	merged := &Suite{}
	seen := make(map[string]string) // id -> source file

	for _, suite := range suites {
		if suite == nil {
			continue
		}
		if merged.Name == "" {
			merged.Name = suite.Name
		}
		if merged.Adapter == "" {
			merged.Adapter = suite.Adapter
		}
		if merged.Model == "" {
			merged.Model = suite.Model
		}
		if merged.Timeout == nil {
			merged.Timeout = suite.Timeout
		}
		for _, sc := range suite.Scenarios {
			if prev, ok := seen[sc.ID]; ok {
				if prev == sc.SourceFile || prev == "" {
					return nil, fmt.Errorf("duplicate scenario id %q in %s", sc.ID, sc.SourceFile)
				}
				return nil, fmt.Errorf("duplicate scenario id %q in %s (first defined in %s)", sc.ID, sc.SourceFile, prev)
			}
			seen[sc.ID] = sc.SourceFile
			merged.Scenarios = append(merged.Scenarios, sc)
		}
	}
	return merged, nil
}

// Filter returns the scenarios matching every non-empty criterion.
func Filter(scenarios []*models.Scenario, category, tag string) []*models.Scenario {
	var out []*models.Scenario
	for _, sc := range scenarios {
		if category != "" && sc.Category != category {
			continue
		}
		if tag != "" && !sc.HasTag(tag) {
			continue
		}
		out = append(out, sc)
	}
	return out
}

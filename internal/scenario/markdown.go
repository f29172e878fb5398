package scenario

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/gauntlet/internal/models"
)

// MarkdownParser parses suites written as Markdown documents: optional
// YAML frontmatter for the suite-level fields, then one scenario per
// "## Scenario: <id>" heading.
//
// Within a scenario section the prose before the first level-3 heading is
// the generation prompt. A "### Context" subsection holds inline context
// for the agent, and "### Validation" holds a fenced YAML block with the
// scenario's validation strategy; keeping the strategy in its own
// subsection means rule patterns never leak into the prompt the agent
// sees. Metadata lines such as **Severity**: and **Tags**: are consumed
// from the prompt prose.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{markdown: goldmark.New()}
}

// markdownFrontmatter mirrors the suite-level fields of a YAML suite.
type markdownFrontmatter struct {
	Name     string          `yaml:"name"`
	Adapter  string          `yaml:"adapter"`
	Model    string          `yaml:"model"`
	Timeout  *models.Timeout `yaml:"timeout"`
	Defaults *suiteDefaults  `yaml:"defaults"`
}

var (
	scenarioHeadingRegex = regexp.MustCompile(`^Scenario:\s*(.+)$`)
	metadataRegex        = regexp.MustCompile(`^\*\*(Severity|Category|Tags|Timeout|Description|Context Files)\*\*:\s*(.*)$`)
)

func (p *MarkdownParser) Parse(r io.Reader) (*Suite, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	suite := &Suite{}
	var defaults *suiteDefaults
	content, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		var fm markdownFrontmatter
		if err := yaml.Unmarshal(frontmatter, &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		suite.Name = fm.Name
		suite.Adapter = fm.Adapter
		suite.Model = fm.Model
		suite.Timeout = fm.Timeout
		defaults = fm.Defaults
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))
	outline := buildOutline(doc, content)

	if suite.Name == "" {
		suite.Name = outline.title
	}

	scenarios, err := p.extractScenarios(outline)
	if err != nil {
		return nil, err
	}
	for _, sc := range scenarios {
		applyDefaults(sc, defaults)
		suite.Scenarios = append(suite.Scenarios, sc)
	}
	return suite, nil
}

// mdHeading is a heading located during the outline walk.
type mdHeading struct {
	level int
	text  string
	line  int
}

// mdFence is a fenced code block located during the outline walk. line is
// the first body line of the block.
type mdFence struct {
	lang string
	body string
	line int
}

// mdOutline indexes the pieces of the document the scenario extraction
// needs: headings and fenced code blocks with their line positions, plus
// the raw lines for slicing section content. Walking the AST for these
// instead of scanning lines means a "## Scenario:" inside a fenced code
// example never starts a section.
type mdOutline struct {
	title    string
	headings []mdHeading
	fences   []mdFence
	lines    []string
	starts   []int // byte offset of each line
}

func buildOutline(doc ast.Node, source []byte) *mdOutline {
	o := &mdOutline{lines: strings.Split(string(source), "\n")}
	offset := 0
	for _, line := range o.lines {
		o.starts = append(o.starts, offset)
		offset += len(line) + 1
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			if node.Lines().Len() == 0 {
				break
			}
			h := mdHeading{
				level: node.Level,
				text:  strings.TrimSpace(headingText(node, source)),
				line:  o.lineAt(node.Lines().At(0).Start),
			}
			if h.level == 1 && o.title == "" {
				o.title = h.text
			}
			o.headings = append(o.headings, h)
		case *ast.FencedCodeBlock:
			if node.Lines().Len() == 0 {
				break
			}
			var body bytes.Buffer
			for i := 0; i < node.Lines().Len(); i++ {
				seg := node.Lines().At(i)
				body.Write(seg.Value(source))
			}
			o.fences = append(o.fences, mdFence{
				lang: string(node.Language(source)),
				body: body.String(),
				line: o.lineAt(node.Lines().At(0).Start),
			})
		}
		return ast.WalkContinue, nil
	})
	return o
}

// lineAt maps a byte offset into its zero-based line index.
func (o *mdOutline) lineAt(offset int) int {
	return sort.Search(len(o.starts), func(i int) bool { return o.starts[i] > offset }) - 1
}

// headingText extracts the plain text of a heading node.
func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

func (p *MarkdownParser) extractScenarios(o *mdOutline) ([]*models.Scenario, error) {
	var scenarios []*models.Scenario
	for i, h := range o.headings {
		if h.level != 2 {
			continue
		}
		m := scenarioHeadingRegex.FindStringSubmatch(h.text)
		if m == nil {
			continue
		}

		// The section runs to the next level-1 or level-2 heading.
		end := len(o.lines)
		for _, next := range o.headings[i+1:] {
			if next.level <= 2 {
				end = next.line
				break
			}
		}

		sc, err := p.buildScenario(o, strings.TrimSpace(m[1]), h.line+1, end)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (p *MarkdownParser) buildScenario(o *mdOutline, id string, start, end int) (*models.Scenario, error) {
	sc := &models.Scenario{ID: id}

	type subsection struct {
		name       string
		start, end int
	}
	var subs []subsection
	for _, h := range o.headings {
		if h.line < start || h.line >= end || h.level != 3 {
			continue
		}
		if len(subs) > 0 {
			subs[len(subs)-1].end = h.line
		}
		subs = append(subs, subsection{name: strings.ToLower(h.text), start: h.line + 1, end: end})
	}

	promptEnd := end
	if len(subs) > 0 {
		promptEnd = subs[0].start - 1
	}
	if err := parseScenarioBody(sc, o.lines[start:promptEnd]); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", id, err)
	}

	for _, sub := range subs {
		switch sub.name {
		case "context":
			sc.Context = strings.TrimSpace(strings.Join(o.lines[sub.start:sub.end], "\n"))
		case "validation":
			if err := parseValidation(sc, o, sub.start, sub.end); err != nil {
				return nil, fmt.Errorf("scenario %s: %w", id, err)
			}
		}
	}
	return sc, nil
}

// parseScenarioBody consumes metadata lines and keeps the rest as the
// prompt. Lines inside fenced code blocks are never treated as metadata,
// so prompts can show literal **Severity**: examples.
func parseScenarioBody(sc *models.Scenario, lines []string) error {
	var prompt []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			prompt = append(prompt, line)
			continue
		}
		if inCodeBlock {
			prompt = append(prompt, line)
			continue
		}

		m := metadataRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			prompt = append(prompt, line)
			continue
		}

		value := strings.TrimSpace(m[2])
		switch m[1] {
		case "Severity":
			sc.Severity = models.Severity(strings.ToLower(value))
		case "Category":
			sc.Category = value
		case "Tags":
			sc.Tags = splitList(value)
		case "Timeout":
			timeout, err := models.ParseTimeout(value)
			if err != nil {
				return err
			}
			sc.Timeout = timeout
		case "Description":
			sc.Description = value
		case "Context Files":
			sc.ContextFiles = splitList(value)
		}
	}

	sc.Prompt = strings.TrimSpace(strings.Join(prompt, "\n"))
	return nil
}

// parseValidation decodes the first YAML code block in the subsection
// into the scenario's validation strategy.
func parseValidation(sc *models.Scenario, o *mdOutline, start, end int) error {
	for _, f := range o.fences {
		if f.line < start || f.line >= end {
			continue
		}
		if f.lang != "" && f.lang != "yaml" && f.lang != "yml" {
			continue
		}
		if err := yaml.Unmarshal([]byte(f.body), &sc.Strategy); err != nil {
			return fmt.Errorf("failed to parse validation block: %w", err)
		}
		return nil
	}
	return fmt.Errorf("validation section has no yaml block")
}

// splitList splits a comma-separated metadata value.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// extractFrontmatter splits leading "---" delimited YAML frontmatter off
// the document, returning the remaining body and the frontmatter bytes.
// The frontmatter is nil when the document has none (including an opening
// delimiter that is never closed).
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}
	return content, nil
}

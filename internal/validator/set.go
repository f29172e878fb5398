package validator

// Options carries the configured settings the standard validator chain
// needs. Zero values fall back to each validator's own defaults.
type Options struct {
	// JudgeAPIKey authenticates the LLM judge; empty makes the judge skip
	JudgeAPIKey string

	// JudgeModel is the default judge model; scenarios may override it
	JudgeModel string

	// JudgeMaxTokens caps the judge's response length
	JudgeMaxTokens int

	// LintBinary overrides the eslint executable resolved via PATH
	LintBinary string
}

// DefaultSet builds the standard validator chain in its fixed run order:
// pattern first so its violations lead flattened lists, then the LLM
// judge, then eslint. root is the workspace directory the generated files
// live under.
func DefaultSet(root string, opts Options) []Validator {
	judge := NewJudgeValidator(root, opts.JudgeAPIKey, opts.JudgeModel)
	if opts.JudgeMaxTokens > 0 {
		judge.MaxTokens = opts.JudgeMaxTokens
	}

	return []Validator{
		NewPatternValidator(root),
		judge,
		NewESLintValidator(root, opts.LintBinary),
	}
}

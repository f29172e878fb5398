package logger

import "github.com/fatih/color"

// colorScheme defines consistent colors for run output.
// Green: passing scenarios and success counters
// Red: failing scenarios and violations
// Yellow: skipped scenarios and warnings
// Bold: headers and scenario identifiers
type colorScheme struct {
	pass   *color.Color
	fail   *color.Color
	skip   *color.Color
	header *color.Color
}

// newColorScheme creates the standard color scheme for console output.
// Colors are automatically disabled when output is not a TTY via
// fatih/color's built-in detection.
func newColorScheme() *colorScheme {
	return &colorScheme{
		pass:   color.New(color.FgGreen),
		fail:   color.New(color.FgRed),
		skip:   color.New(color.FgYellow),
		header: color.New(color.Bold),
	}
}

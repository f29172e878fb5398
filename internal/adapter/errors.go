package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeoutError reports that a generation run exceeded its resolved
// timeout and the agent process was terminated.
type TimeoutError struct {
	Adapter string
	After   time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("adapter %s: generation timed out after %v", e.Adapter, e.After)
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// GenerationError reports a non-timeout generation failure: nonzero exit,
// spawn failure, or a broken change-set collection afterward.
type GenerationError struct {
	Adapter string
	Output  string
	Err     error
}

// Error includes the tail of the tool output so failures are diagnosable
// from the result alone.
func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("adapter %s: generation failed: %v", e.Adapter, e.Err)
	if tail := outputTail(e.Output, 500); tail != "" {
		msg += fmt.Sprintf(" (output: %s)", tail)
	}
	return msg
}

// Unwrap returns the underlying error for error wrapping support.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsTimeoutError checks if the error is or wraps a TimeoutError or
// context.DeadlineExceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// outputTail keeps the last max bytes of tool output, trimmed.
func outputTail(output string, max int) string {
	output = strings.TrimSpace(output)
	if len(output) > max {
		output = "..." + output[len(output)-max:]
	}
	return output
}

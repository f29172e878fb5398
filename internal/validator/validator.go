// Package validator applies rule checks to the files a coding agent changed
// during one scenario. Each validator kind runs independently and reports
// its own verdict; a validator that decides it is not applicable for a
// scenario returns a skipped result rather than an error, so absence of
// configuration never masquerades as perfect compliance.
package validator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/gauntlet/internal/models"
)

// Validator checks one scenario's generated files against one class of
// rules. Implementations must be safe to reuse across scenarios in a batch.
type Validator interface {
	// Kind returns the stable identifier used in results and logs.
	Kind() string
	// Validate inspects the changed files and returns a verdict. Files are
	// workspace-relative paths; a file that no longer exists on disk is
	// skipped, not an error.
	Validate(ctx context.Context, files []string, scenario *models.Scenario) models.ValidationResult
}

// loadedFile pairs a reported path with its content snapshot.
type loadedFile struct {
	path    string
	content string
	lines   []string
}

// loadFiles reads every reported file under root. Files that are missing
// or are directories are dropped; any other read failure aborts the load
// so the caller can fail the validator as a whole.
func loadFiles(root string, files []string) ([]loadedFile, error) {
	loaded := make([]loadedFile, 0, len(files))
	for _, f := range files {
		full := filepath.Join(root, f)
		info, err := os.Stat(full)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", f, err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		content := string(data)
		loaded = append(loaded, loadedFile{
			path:    f,
			content: content,
			lines:   strings.Split(content, "\n"),
		})
	}
	return loaded, nil
}

// truncate caps s at max bytes, appending a marker when content was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n... (truncated)"
}

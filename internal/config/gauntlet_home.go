package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GauntletHome returns the gauntlet home directory, where configuration,
// baselines, run history, and logs live.
// Priority order:
//  1. GAUNTLET_HOME environment variable (if set)
//  2. <project root>/.gauntlet, where the project root is found by
//     walking up from the working directory to a .gauntlet-root marker
//     or a .git directory
//  3. <working directory>/.gauntlet (fallback)
//
// The directory is created if it doesn't exist, except when it comes
// from the environment variable.
func GauntletHome() (string, error) {
	if home := os.Getenv("GAUNTLET_HOME"); home != "" {
		return home, nil
	}

	root, err := findProjectRoot()
	if err != nil {
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	home := filepath.Join(root, ".gauntlet")
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create gauntlet home directory: %w", err)
	}
	return home, nil
}

// findProjectRoot walks up from the working directory looking for a
// .gauntlet-root marker file or a .git directory. Evaluated workspaces
// are usually not Go projects, so version control is the root signal,
// with the marker as an explicit override for unversioned trees.
func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	current := cwd
	for {
		if _, err := os.Stat(filepath.Join(current, ".gauntlet-root")); err == nil {
			return current, nil
		}
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("project root not found (looking for .gauntlet-root or .git above %s)", cwd)
}

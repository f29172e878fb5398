// Package config loads gauntlet configuration from config.yaml in the
// gauntlet home directory. Loading is defaults-then-merge: a missing file
// yields the defaults, file values overlay them, and CLI flags overlay
// both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/gauntlet/internal/models"
)

// BaselineConfig configures baseline persistence and comparison.
type BaselineConfig struct {
	// Dir is where baseline records live (relative to the gauntlet home)
	Dir string `yaml:"dir"`

	// Compare enables comparing every run against saved baselines
	Compare bool `yaml:"compare"`

	// Save enables updating baselines after every run
	Save bool `yaml:"save"`
}

// HistoryConfig configures the run-history database.
type HistoryConfig struct {
	// Enabled turns run-history recording on
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path (relative to the gauntlet home)
	DBPath string `yaml:"db_path"`
}

// JudgeConfig configures the LLM judge validator.
type JudgeConfig struct {
	// Model is the default judge model; scenarios may override it
	Model string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the judge API key
	APIKeyEnv string `yaml:"api_key_env"`

	// MaxTokens caps the judge's response length; zero uses the
	// validator's built-in default
	MaxTokens int `yaml:"max_tokens"`
}

// LintConfig configures the eslint validator.
type LintConfig struct {
	// Binary overrides the eslint executable resolved via PATH
	Binary string `yaml:"binary"`
}

// Config represents gauntlet configuration options
type Config struct {
	// Adapter is the code-generation adapter kind to evaluate
	Adapter string `yaml:"adapter"`

	// Model selects the model for adapters that support one
	Model string `yaml:"model"`

	// Binary overrides the adapter's default executable
	Binary string `yaml:"binary"`

	// Command is the argv template for the generic command adapter
	Command []string `yaml:"command"`

	// Workspace is the directory agents generate code in (relative to
	// the gauntlet home)
	Workspace string `yaml:"workspace"`

	// Timeout is the batch default generation timeout. Absent means the
	// built-in default; "none" disables the deadline.
	Timeout *models.Timeout `yaml:"timeout"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (relative to
	// the gauntlet home)
	LogDir string `yaml:"log_dir"`

	// Baseline contains baseline store configuration
	Baseline BaselineConfig `yaml:"baseline"`

	// History contains run-history configuration
	History HistoryConfig `yaml:"history"`

	// Judge contains LLM judge configuration
	Judge JudgeConfig `yaml:"judge"`

	// Lint contains eslint configuration
	Lint LintConfig `yaml:"lint"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Adapter:   "claude-code",
		Workspace: "workspace",
		LogLevel:  "info",
		LogDir:    "logs",
		Baseline: BaselineConfig{
			Dir: "baselines",
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "history.db",
		},
		Judge: JudgeConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal straight into the defaults: yaml leaves absent keys
	// untouched, so present keys override and absent keys keep their
	// default, including booleans that default to true.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigFromHome loads configuration from config.yaml in the gauntlet
// home directory and anchors the config's relative paths there.
func LoadConfigFromHome(home string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(home, "config.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(home)
	return cfg, nil
}

// Flags holds the CLI overrides. A nil field means the flag was not set
// on the command line, letting config file values through.
type Flags struct {
	Adapter         *string
	Model           *string
	Workspace       *string
	Timeout         *models.Timeout
	LogDir          *string
	BaselineCompare *bool
	BaselineSave    *bool
	History         *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(f Flags) {
	if f.Adapter != nil {
		c.Adapter = *f.Adapter
	}
	if f.Model != nil {
		c.Model = *f.Model
	}
	if f.Workspace != nil {
		c.Workspace = *f.Workspace
	}
	if f.Timeout != nil {
		c.Timeout = f.Timeout
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.BaselineCompare != nil {
		c.Baseline.Compare = *f.BaselineCompare
	}
	if f.BaselineSave != nil {
		c.Baseline.Save = *f.BaselineSave
	}
	if f.History != nil {
		c.History.Enabled = *f.History
	}
}

// ResolvePaths anchors every relative path in the config under dir.
// Absolute paths are kept as written.
func (c *Config) ResolvePaths(dir string) {
	c.Workspace = resolvePath(dir, c.Workspace)
	c.LogDir = resolvePath(dir, c.LogDir)
	c.Baseline.Dir = resolvePath(dir, c.Baseline.Dir)
	c.History.DBPath = resolvePath(dir, c.History.DBPath)
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// JudgeAPIKey reads the judge API key from the configured environment
// variable. Empty when unset, which disables the judge validator.
func (c *Config) JudgeAPIKey() string {
	if c.Judge.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Judge.APIKeyEnv)
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	if c.Adapter == "" {
		return fmt.Errorf("adapter cannot be empty")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.Workspace == "" {
		return fmt.Errorf("workspace cannot be empty")
	}
	if c.Baseline.Dir == "" && (c.Baseline.Compare || c.Baseline.Save) {
		return fmt.Errorf("baseline.dir cannot be empty when baseline compare or save is enabled")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}

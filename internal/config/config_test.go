package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Adapter != "claude-code" {
		t.Errorf("Adapter = %q, want %q", cfg.Adapter, "claude-code")
	}
	if cfg.Workspace != "workspace" {
		t.Errorf("Workspace = %q, want %q", cfg.Workspace, "workspace")
	}
	if cfg.Timeout != nil {
		t.Errorf("Timeout = %v, want nil (unset falls through to the built-in default)", cfg.Timeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.Baseline.Dir != "baselines" {
		t.Errorf("Baseline.Dir = %q, want %q", cfg.Baseline.Dir, "baselines")
	}
	if cfg.Baseline.Compare || cfg.Baseline.Save {
		t.Error("baseline compare/save must default to off")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled must default to true")
	}
	if cfg.History.DBPath != "history.db" {
		t.Errorf("History.DBPath = %q, want %q", cfg.History.DBPath, "history.db")
	}
	if cfg.Judge.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Judge.APIKeyEnv = %q, want %q", cfg.Judge.APIKeyEnv, "OPENAI_API_KEY")
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), `adapter: command
command: ["my-agent", "{{prompt}}"]
model: sonnet
timeout: 5m
log_level: debug
baseline:
  compare: true
  save: true
judge:
  model: gpt-4o
  max_tokens: 2048
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Adapter != "command" {
		t.Errorf("Adapter = %q, want %q", cfg.Adapter, "command")
	}
	if len(cfg.Command) != 2 || cfg.Command[1] != "{{prompt}}" {
		t.Errorf("Command = %v, want [my-agent {{prompt}}]", cfg.Command)
	}
	if cfg.Model != "sonnet" {
		t.Errorf("Model = %q, want %q", cfg.Model, "sonnet")
	}
	if cfg.Timeout == nil || cfg.Timeout.Duration != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", cfg.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if !cfg.Baseline.Compare || !cfg.Baseline.Save {
		t.Error("baseline compare/save should be enabled by the file")
	}
	if cfg.Judge.Model != "gpt-4o" {
		t.Errorf("Judge.Model = %q, want %q", cfg.Judge.Model, "gpt-4o")
	}
	if cfg.Judge.MaxTokens != 2048 {
		t.Errorf("Judge.MaxTokens = %d, want 2048", cfg.Judge.MaxTokens)
	}

	// Keys the file omits keep their defaults.
	if cfg.Workspace != "workspace" {
		t.Errorf("Workspace = %q, want default %q", cfg.Workspace, "workspace")
	}
	if cfg.Baseline.Dir != "baselines" {
		t.Errorf("Baseline.Dir = %q, want default %q", cfg.Baseline.Dir, "baselines")
	}
	if cfg.Judge.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("Judge.APIKeyEnv = %q, want default %q", cfg.Judge.APIKeyEnv, "OPENAI_API_KEY")
	}
}

// TestLoadConfigTimeoutNone tests the explicit no-timeout marker
func TestLoadConfigTimeoutNone(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "timeout: none\n")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Timeout == nil || !cfg.Timeout.None {
		t.Errorf("Timeout = %v, want explicit none", cfg.Timeout)
	}
}

// TestLoadConfigMissingFile tests that a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() on missing file error = %v, want nil", err)
	}
	if cfg.Adapter != "claude-code" {
		t.Errorf("Adapter = %q, want default", cfg.Adapter)
	}
}

// TestLoadConfigMalformed tests that bad YAML is an error
func TestLoadConfigMalformed(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), "adapter: [unclosed\n")
	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("LoadConfig() on malformed YAML should fail")
	}
}

// TestLoadConfigNestedOverride tests that a nested section can flip a
// true-by-default flag without losing the section's other defaults
func TestLoadConfigNestedOverride(t *testing.T) {
	configPath := writeConfig(t, t.TempDir(), `history:
  enabled: false
`)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false from file")
	}
	if cfg.History.DBPath != "history.db" {
		t.Errorf("History.DBPath = %q, want default %q", cfg.History.DBPath, "history.db")
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()

	adapter := "command"
	model := "haiku"
	compare := true
	cfg.MergeWithFlags(Flags{
		Adapter:         &adapter,
		Model:           &model,
		BaselineCompare: &compare,
	})

	if cfg.Adapter != "command" {
		t.Errorf("Adapter = %q, want flag override %q", cfg.Adapter, "command")
	}
	if cfg.Model != "haiku" {
		t.Errorf("Model = %q, want flag override %q", cfg.Model, "haiku")
	}
	if !cfg.Baseline.Compare {
		t.Error("Baseline.Compare = false, want flag override true")
	}
	// Unset flags leave config values alone.
	if cfg.Workspace != "workspace" {
		t.Errorf("Workspace = %q, want untouched default", cfg.Workspace)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled changed by an unset flag")
	}
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = "/var/log/gauntlet"

	cfg.ResolvePaths("/home/u/.gauntlet")

	if cfg.Workspace != "/home/u/.gauntlet/workspace" {
		t.Errorf("Workspace = %q, want anchored under home", cfg.Workspace)
	}
	if cfg.Baseline.Dir != "/home/u/.gauntlet/baselines" {
		t.Errorf("Baseline.Dir = %q, want anchored under home", cfg.Baseline.Dir)
	}
	if cfg.History.DBPath != "/home/u/.gauntlet/history.db" {
		t.Errorf("History.DBPath = %q, want anchored under home", cfg.History.DBPath)
	}
	if cfg.LogDir != "/var/log/gauntlet" {
		t.Errorf("LogDir = %q, absolute paths must stay as written", cfg.LogDir)
	}
}

func TestLoadConfigFromHome(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, "model: sonnet\n")

	cfg, err := LoadConfigFromHome(home)
	if err != nil {
		t.Fatalf("LoadConfigFromHome() error = %v", err)
	}
	if cfg.Model != "sonnet" {
		t.Errorf("Model = %q, want %q", cfg.Model, "sonnet")
	}
	if cfg.Baseline.Dir != filepath.Join(home, "baselines") {
		t.Errorf("Baseline.Dir = %q, want anchored under %s", cfg.Baseline.Dir, home)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty adapter",
			mutate:  func(c *Config) { c.Adapter = "" },
			wantErr: "adapter",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level",
		},
		{
			name:    "empty workspace",
			mutate:  func(c *Config) { c.Workspace = "" },
			wantErr: "workspace",
		},
		{
			name: "baseline enabled without dir",
			mutate: func(c *Config) {
				c.Baseline.Dir = ""
				c.Baseline.Save = true
			},
			wantErr: "baseline.dir",
		},
		{
			name: "history enabled without path",
			mutate: func(c *Config) {
				c.History.DBPath = ""
			},
			wantErr: "history.db_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error about %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestJudgeAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Judge.APIKeyEnv = "GAUNTLET_TEST_JUDGE_KEY"

	t.Setenv("GAUNTLET_TEST_JUDGE_KEY", "sk-test")
	if got := cfg.JudgeAPIKey(); got != "sk-test" {
		t.Errorf("JudgeAPIKey() = %q, want %q", got, "sk-test")
	}

	cfg.Judge.APIKeyEnv = ""
	if got := cfg.JudgeAPIKey(); got != "" {
		t.Errorf("JudgeAPIKey() with no env name = %q, want empty", got)
	}
}

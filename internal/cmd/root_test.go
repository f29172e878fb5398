package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("Root command should not be nil")
	}

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("Help command returned error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "gauntlet") {
		t.Errorf("Help text should contain 'gauntlet', got: %s", output)
	}
	if !strings.Contains(output, "scenario") {
		t.Errorf("Help text should mention scenarios, got: %s", output)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "gauntlet" {
		t.Errorf("Expected Use to be 'gauntlet', got %q", cmd.Use)
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"run", "validate", "adapters", "baseline", "history"} {
		if !names[want] {
			t.Errorf("Missing %q subcommand", want)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Version flag returned error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "version") {
		t.Errorf("Version output should contain 'version', got: %s", output)
	}
	if !strings.Contains(output, Version) {
		t.Errorf("Version output should contain %q, got: %s", Version, output)
	}
}

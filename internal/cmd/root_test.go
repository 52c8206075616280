package cmd

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd := NewRootCmd()

	if rootCmd.Use != "markupr" {
		t.Errorf("expected Use to be 'markupr', got '%s'", rootCmd.Use)
	}

	// Verify subcommands are registered
	subcommands := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		subcommands[cmd.Name()] = true
	}

	expected := []string{"watch", "process", "version"}
	for _, name := range expected {
		if !subcommands[name] {
			t.Errorf("expected subcommand '%s' to be registered", name)
		}
	}
}

func TestNewWatchCmd(t *testing.T) {
	watchCmd := NewWatchCmd()

	subcommands := make(map[string]bool)
	for _, cmd := range watchCmd.Commands() {
		subcommands[cmd.Name()] = true
	}

	expected := []string{"config", "start", "stop", "status"}
	for _, name := range expected {
		if !subcommands[name] {
			t.Errorf("expected watch subcommand '%s' to be registered", name)
		}
	}
}

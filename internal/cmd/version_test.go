package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersion_OutputsVersionString(t *testing.T) {
	origVersion := Version
	origCommit := Commit
	defer func() {
		Version = origVersion
		Commit = origCommit
	}()

	Version = "1.2.3"
	Commit = "abc123"

	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "markupr version 1.2.3") {
		t.Errorf("expected output to contain 'markupr version 1.2.3', got: %q", output)
	}
	if !strings.Contains(output, "abc123") {
		t.Errorf("expected output to contain commit hash 'abc123', got: %q", output)
	}
}

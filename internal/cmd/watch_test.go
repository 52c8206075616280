package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markupr/markupr/internal/config"
	"github.com/markupr/markupr/internal/naming"
	"github.com/markupr/markupr/internal/pidfile"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestWatchConfig_SavesConfiguration(t *testing.T) {
	home := withTempHome(t)

	// Answers: watch dir, API URL, output dir (blank keeps the default).
	input := strings.NewReader("/recordings\nhttp://asr.local:9000\n\n")
	cmd := NewWatchConfigCmd(NewReaderPrompter(input))
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config command failed: %v", err)
	}

	if !strings.Contains(buf.String(), "Configuration saved") {
		t.Errorf("expected confirmation, got: %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(home, ".markupr", "config.json")); err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if cfg.WatchDir != "/recordings" {
		t.Errorf("unexpected watch dir: %s", cfg.WatchDir)
	}
	if cfg.APIURL != "http://asr.local:9000" {
		t.Errorf("unexpected API URL: %s", cfg.APIURL)
	}
}

func TestWatchConfig_EmptyWatchDirRejected(t *testing.T) {
	withTempHome(t)

	input := strings.NewReader("\n")
	cmd := NewWatchConfigCmd(NewReaderPrompter(input))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for empty watch directory")
	}
}

func TestWatchConfig_DefaultAPIURLApplied(t *testing.T) {
	withTempHome(t)

	input := strings.NewReader("/recordings\n\n\n")
	cmd := NewWatchConfigCmd(NewReaderPrompter(input))
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config command failed: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected default API URL, got %s", cfg.APIURL)
	}
}

func TestLoadConfigWithFlags_FlagsOverrideFile(t *testing.T) {
	withTempHome(t)

	saved := &config.Config{
		WatchDir: "/from-file",
		APIURL:   "http://file:9000",
	}
	if err := saved.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	cmd := newWatchStartCmd()
	if err := cmd.Flags().Set("skip-frames", "true"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	cfg, err := loadConfigWithFlags(cmd, "/from-flag", "", "http://flag:9000", true, false, 250, 5)
	if err != nil {
		t.Fatalf("loadConfigWithFlags failed: %v", err)
	}

	if cfg.WatchDir != "/from-flag" {
		t.Errorf("expected flag to override watch dir, got %s", cfg.WatchDir)
	}
	if cfg.APIURL != "http://flag:9000" {
		t.Errorf("expected flag to override API URL, got %s", cfg.APIURL)
	}
	if !cfg.SkipFrames {
		t.Error("expected skip-frames flag to apply")
	}
	if cfg.StabilityIntervalMs != 250 || cfg.StabilityChecks != 5 {
		t.Errorf("expected stability overrides, got %d/%d", cfg.StabilityIntervalMs, cfg.StabilityChecks)
	}
}

func TestLoadConfigWithFlags_MissingFileNeedsDir(t *testing.T) {
	withTempHome(t)

	cmd := newWatchStartCmd()
	if _, err := loadConfigWithFlags(cmd, "", "", "", false, false, 0, 0); err == nil {
		t.Fatal("expected error when no config and no --dir")
	}
}

func TestLoadConfigWithFlags_DefaultsApplied(t *testing.T) {
	withTempHome(t)

	cmd := newWatchStartCmd()
	cfg, err := loadConfigWithFlags(cmd, "/recordings", "", "", false, false, 0, 0)
	if err != nil {
		t.Fatalf("loadConfigWithFlags failed: %v", err)
	}
	if cfg.APIURL != config.DefaultAPIURL {
		t.Errorf("expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.StabilityChecks != config.DefaultStabilityChecks {
		t.Errorf("expected default checks, got %d", cfg.StabilityChecks)
	}
}

func TestWatchStop_NotRunning(t *testing.T) {
	withTempHome(t)

	cmd := newWatchStopCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestWatchStop_StaleProcess(t *testing.T) {
	withTempHome(t)

	if err := pidfile.Write(99999999); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	cmd := newWatchStopCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); !errors.Is(err, ErrStaleProcess) {
		t.Errorf("expected ErrStaleProcess, got %v", err)
	}
	// The stale file is cleaned up on the way out.
	if _, err := pidfile.Read(); !errors.Is(err, pidfile.ErrNoPIDFile) {
		t.Errorf("expected stale PID file removed, got %v", err)
	}
}

func TestWatchStatus_StoppedWithHistory(t *testing.T) {
	withTempHome(t)
	watchDir := t.TempDir()

	logLine := "2026-02-14T12:00:00Z\t" + filepath.Join(watchDir, "clip.mov") + "\t-> /out/clip-feedback-20260214-120000.md\n"
	if err := os.WriteFile(filepath.Join(watchDir, naming.WatchLogName), []byte(logLine), 0644); err != nil {
		t.Fatalf("failed to write watch log: %v", err)
	}

	cmd := newWatchStatusCmd()
	cmd.SetArgs([]string{"--dir", watchDir})
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("status command failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Status: stopped") {
		t.Errorf("expected stopped status, got: %q", out)
	}
	if !strings.Contains(out, "Processed recordings: 1") {
		t.Errorf("expected processed count, got: %q", out)
	}
	if !strings.Contains(out, "clip.mov") {
		t.Errorf("expected last processed recording, got: %q", out)
	}
}

func TestWatchStatus_NoConfigNoDir(t *testing.T) {
	withTempHome(t)

	cmd := newWatchStatusCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when neither config nor --dir is available")
	}
}

func TestProcessCmd_MissingRecording(t *testing.T) {
	withTempHome(t)

	cmd := NewProcessCmd()
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.mov")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected error for missing recording")
	}
	if !strings.Contains(err.Error(), "recording not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

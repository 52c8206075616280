// Package config loads and saves markupr's settings file at
// ~/.markupr/config.json. Command-line flags override anything read from
// the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the settings file inside the markupr home directory.
const FileName = "config.json"

// Default values for optional fields.
const (
	DefaultAPIURL               = "http://localhost:9000"
	DefaultStabilityIntervalMs  = 500
	DefaultStabilityChecks      = 30
	DefaultFrameIntervalSeconds = 5
	DefaultLanguage             = "auto"
	DefaultRetryCount           = 3
)

// Config is the persisted markupr configuration.
type Config struct {
	WatchDir             string `json:"watch_dir"`
	OutputDir            string `json:"output_dir"`
	APIURL               string `json:"api_url"`
	SkipFrames           bool   `json:"skip_frames"`
	Verbose              bool   `json:"verbose"`
	StabilityIntervalMs  int    `json:"stability_interval_ms"`
	StabilityChecks      int    `json:"stability_checks"`
	FrameIntervalSeconds int    `json:"frame_interval_seconds"`
	Language             string `json:"language"`
	RetryCount           int    `json:"retry_count"`
}

// Validation errors.
var (
	ErrWatchDirRequired = errors.New("watch_dir is required")
	ErrAPIURLRequired   = errors.New("api_url is required")
)

// Dir returns the markupr home directory (~/.markupr).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".markupr"), nil
}

// Path returns the settings file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the configuration file. Paths containing ~ are expanded to the
// user's home directory.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.expandPaths()
	return &cfg, nil
}

// Save writes the configuration file with 0644 permissions, creating the
// markupr home directory if needed.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return ErrWatchDirRequired
	}
	if c.APIURL == "" {
		return ErrAPIURLRequired
	}
	return nil
}

// ApplyDefaults sets default values for optional fields that are empty or
// zero.
func (c *Config) ApplyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.StabilityIntervalMs == 0 {
		c.StabilityIntervalMs = DefaultStabilityIntervalMs
	}
	if c.StabilityChecks == 0 {
		c.StabilityChecks = DefaultStabilityChecks
	}
	if c.FrameIntervalSeconds == 0 {
		c.FrameIntervalSeconds = DefaultFrameIntervalSeconds
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.RetryCount == 0 {
		c.RetryCount = DefaultRetryCount
	}
}

func (c *Config) expandPaths() {
	c.WatchDir = expandTilde(c.WatchDir)
	c.OutputDir = expandTilde(c.OutputDir)
}

// expandTilde expands ~ at the beginning of a path to the user's home
// directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

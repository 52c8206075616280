package watch

import (
	"errors"
	"path/filepath"

	"github.com/markupr/markupr/internal/naming"
)

// Default stability polling parameters.
const (
	DefaultStabilityIntervalMs = 500
	DefaultMaxStabilityChecks  = 30
)

// Validation errors.
var (
	ErrWatchDirRequired = errors.New("watch directory is required")
	ErrBadInterval      = errors.New("stability interval must be positive")
	ErrBadCheckCount    = errors.New("max stability checks must be positive")
)

// Config fixes a Watcher's behavior for its lifetime.
type Config struct {
	// WatchDir is the directory monitored for new recordings. It must exist
	// when Start is called.
	WatchDir string

	// OutputDir holds generated feedback reports. Defaults to
	// <WatchDir>/markupr-output and is created on Start if absent.
	OutputDir string

	// SkipFrames disables frame extraction in the invoked pipeline.
	SkipFrames bool

	// Verbose logs the observed size at every stability poll.
	Verbose bool

	// StabilityIntervalMs is the delay between size polls for one path.
	StabilityIntervalMs int

	// MaxStabilityChecks bounds the polls spent on a single detection before
	// the path is abandoned.
	MaxStabilityChecks int
}

// ApplyDefaults fills optional fields that were left zero.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" && c.WatchDir != "" {
		c.OutputDir = filepath.Join(c.WatchDir, naming.DefaultOutputDirName)
	}
	if c.StabilityIntervalMs == 0 {
		c.StabilityIntervalMs = DefaultStabilityIntervalMs
	}
	if c.MaxStabilityChecks == 0 {
		c.MaxStabilityChecks = DefaultMaxStabilityChecks
	}
}

// Validate checks that the configuration can drive a watcher.
func (c *Config) Validate() error {
	if c.WatchDir == "" {
		return ErrWatchDirRequired
	}
	if c.StabilityIntervalMs <= 0 {
		return ErrBadInterval
	}
	if c.MaxStabilityChecks <= 0 {
		return ErrBadCheckCount
	}
	return nil
}

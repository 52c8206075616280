// Package logging provides the structured file logger used by the markupr
// services. Log files rotate daily under ~/.markupr/logs and old files are
// pruned on startup.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents a log severity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Int creates an integer field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 creates an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Float64 creates a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Logger handles structured logging.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Close() error
}

// Config configures the file logger.
type Config struct {
	// LogDir is where log files are stored (default ~/.markupr/logs).
	LogDir string
	// Prefix names the log files: <prefix>-YYYY-MM-DD.log (default "watch").
	Prefix string
	// RetentionDays is how long old log files are kept (default 30).
	RetentionDays int
	// Component is shown in brackets on every line, e.g. "[watcher]".
	Component string
	// MinLevel is the lowest level written (default LevelInfo).
	MinLevel Level
}

// DefaultConfig returns a Config with markupr's defaults.
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()
	return Config{
		LogDir:        filepath.Join(homeDir, ".markupr", "logs"),
		Prefix:        "watch",
		RetentionDays: 30,
		MinLevel:      LevelInfo,
	}
}

// FileLogger implements Logger with daily file rotation.
type FileLogger struct {
	config      Config
	mu          sync.Mutex
	file        *os.File
	currentDate string
}

// New creates a FileLogger, opening today's log file and pruning expired
// ones.
func New(config Config) (*FileLogger, error) {
	if config.LogDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		config.LogDir = filepath.Join(homeDir, ".markupr", "logs")
	}
	if config.Prefix == "" {
		config.Prefix = "watch"
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = 30
	}

	if err := os.MkdirAll(config.LogDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	l := &FileLogger{config: config}
	if err := l.rotateIfNeeded(); err != nil {
		return nil, err
	}
	if err := l.pruneOldLogs(); err != nil {
		l.writeLine(LevelError, "failed to prune old logs", err)
	}
	return l, nil
}

// WithComponent returns a logger that tags every line with the component
// name. The underlying file is shared.
func (l *FileLogger) WithComponent(component string) *FileLogger {
	cfg := l.config
	cfg.Component = component
	return &FileLogger{config: cfg, file: l.file, currentDate: l.currentDate}
}

// Debug logs a debug message.
func (l *FileLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, nil, fields...) }

// Info logs an informational message.
func (l *FileLogger) Info(msg string, fields ...Field) { l.log(LevelInfo, msg, nil, fields...) }

// Error logs an error message.
func (l *FileLogger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, msg, err, fields...)
}

// Close closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LogPath returns the path of the current log file.
func (l *FileLogger) LogPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Name()
	}
	return filepath.Join(l.config.LogDir, l.fileName(time.Now().UTC()))
}

func (l *FileLogger) fileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.log", l.config.Prefix, t.Format("2006-01-02"))
}

func (l *FileLogger) log(level Level, msg string, err error, fields ...Field) {
	if level < l.config.MinLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if rotateErr := l.rotateIfNeeded(); rotateErr != nil {
		fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", rotateErr)
		return
	}
	l.writeLine(level, msg, err, fields...)
}

func (l *FileLogger) writeLine(level Level, msg string, err error, fields ...Field) {
	var sb strings.Builder
	sb.WriteString(time.Now().UTC().Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(fmt.Sprintf("%-5s", level.String()))
	sb.WriteString(" ")

	if l.config.Component != "" {
		sb.WriteString("[" + l.config.Component + "] ")
	}
	sb.WriteString(msg)

	if err != nil {
		sb.WriteString(" error=")
		sb.WriteString(err.Error())
	}
	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(f.Key)
		sb.WriteString("=")
		sb.WriteString(formatValue(f.Value))
	}
	sb.WriteString("\n")

	if l.file != nil {
		l.file.WriteString(sb.String())
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t\n") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case time.Duration:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (l *FileLogger) rotateIfNeeded() error {
	today := time.Now().UTC().Format("2006-01-02")
	if l.currentDate == today && l.file != nil {
		return nil
	}

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	path := filepath.Join(l.config.LogDir, l.fileName(time.Now().UTC()))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l.file = file
	l.currentDate = today
	return nil
}

func (l *FileLogger) pruneOldLogs() error {
	entries, err := os.ReadDir(l.config.LogDir)
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}

	prefix := l.config.Prefix + "-"
	cutoff := time.Now().UTC().AddDate(0, 0, -l.config.RetentionDays)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		dateStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log")
		logDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		if logDate.Before(cutoff) {
			if err := os.Remove(filepath.Join(l.config.LogDir, name)); err != nil {
				return fmt.Errorf("remove old log file %s: %w", name, err)
			}
		}
	}
	return nil
}

// NopLogger discards everything. Useful as a default when the caller does
// not care about the operational log.
type NopLogger struct{}

// Nop returns a Logger that discards all output.
func Nop() NopLogger { return NopLogger{} }

func (NopLogger) Debug(string, ...Field)        {}
func (NopLogger) Info(string, ...Field)         {}
func (NopLogger) Error(string, error, ...Field) {}
func (NopLogger) Close() error                  { return nil }

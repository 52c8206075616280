// Package pidfile manages the watch daemon's PID file so only one watcher
// runs per user and `markupr watch stop` can find the process to signal.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// Common errors.
var (
	ErrNoPIDFile  = errors.New("no PID file found")
	ErrInvalidPID = errors.New("invalid PID in file")
)

const (
	pidFileName = "watch.pid"
	dirPerm     = 0755
	filePerm    = 0644
)

// Path returns the PID file location (~/.markupr/watch.pid).
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".markupr", pidFileName), nil
}

// Write creates the PID file with the given process ID, creating parent
// directories if needed.
func Write(pid int) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	content := strconv.Itoa(pid) + "\n"
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Read reads the PID from the PID file. Returns ErrNoPIDFile if the file
// does not exist and ErrInvalidPID if it holds garbage.
func Read() (int, error) {
	path, err := Path()
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}

// Remove deletes the PID file. A missing file is not an error.
func Remove() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning checks whether the process named by the PID file is alive.
// Returns (running, pid, error); no PID file means (false, 0, nil), a stale
// file means (false, pid, nil).
func IsRunning() (bool, int, error) {
	pid, err := Read()
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return false, 0, nil
		}
		return false, 0, err
	}

	// Signal 0 checks process existence without sending anything.
	err = syscall.Kill(pid, 0)
	if err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return false, pid, nil
		}
		if errors.Is(err, syscall.EPERM) {
			return true, pid, nil
		}
		return false, pid, fmt.Errorf("check process: %w", err)
	}
	return true, pid, nil
}

// CleanStale removes the PID file if its process is gone. Reports whether a
// stale file was removed.
func CleanStale() (bool, error) {
	running, pid, err := IsRunning()
	if err != nil {
		return false, err
	}
	if running || pid == 0 {
		return false, nil
	}

	path, err := Path()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	if err := Remove(); err != nil {
		return false, err
	}
	return true, nil
}

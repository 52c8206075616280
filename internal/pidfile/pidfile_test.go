package pidfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func withTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestWriteReadRemove(t *testing.T) {
	home := withTempHome(t)

	if err := Write(12345); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".markupr", "watch.pid")); err != nil {
		t.Fatalf("expected PID file under ~/.markupr: %v", err)
	}

	pid, err := Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != 12345 {
		t.Errorf("expected 12345, got %d", pid)
	}

	if err := Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := Read(); !errors.Is(err, ErrNoPIDFile) {
		t.Errorf("expected ErrNoPIDFile after removal, got %v", err)
	}
}

func TestRead_MissingFile(t *testing.T) {
	withTempHome(t)

	if _, err := Read(); !errors.Is(err, ErrNoPIDFile) {
		t.Errorf("expected ErrNoPIDFile, got %v", err)
	}
}

func TestRead_Garbage(t *testing.T) {
	home := withTempHome(t)
	dir := filepath.Join(home, ".markupr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	for _, content := range []string{"not a pid\n", "-5\n", "0\n", ""} {
		if err := os.WriteFile(filepath.Join(dir, "watch.pid"), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write PID file: %v", err)
		}
		if _, err := Read(); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("content %q: expected ErrInvalidPID, got %v", content, err)
		}
	}
}

func TestRemove_MissingFileIsNotAnError(t *testing.T) {
	withTempHome(t)

	if err := Remove(); err != nil {
		t.Errorf("Remove of missing file failed: %v", err)
	}
}

func TestIsRunning_NoPIDFile(t *testing.T) {
	withTempHome(t)

	running, pid, err := IsRunning()
	if err != nil {
		t.Fatalf("IsRunning failed: %v", err)
	}
	if running || pid != 0 {
		t.Errorf("expected (false, 0), got (%v, %d)", running, pid)
	}
}

func TestIsRunning_OwnProcess(t *testing.T) {
	withTempHome(t)

	if err := Write(os.Getpid()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	running, pid, err := IsRunning()
	if err != nil {
		t.Fatalf("IsRunning failed: %v", err)
	}
	if !running || pid != os.Getpid() {
		t.Errorf("expected (true, %d), got (%v, %d)", os.Getpid(), running, pid)
	}
}

func TestCleanStale(t *testing.T) {
	home := withTempHome(t)

	// PID values this large are above any real kernel pid limit, so the
	// process is guaranteed gone.
	if err := Write(99999999); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	removed, err := CleanStale()
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if !removed {
		t.Error("expected stale PID file to be removed")
	}
	if _, err := os.Stat(filepath.Join(home, ".markupr", "watch.pid")); !os.IsNotExist(err) {
		t.Error("expected PID file to be gone")
	}
}

func TestCleanStale_LiveProcessKept(t *testing.T) {
	withTempHome(t)

	if err := Write(os.Getpid()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	removed, err := CleanStale()
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if removed {
		t.Error("live process PID file must not be removed")
	}
	if _, err := Read(); err != nil {
		t.Errorf("expected PID file to survive: %v", err)
	}
}

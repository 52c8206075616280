package watch

import (
	"os"
	"sync"
	"time"
)

// pendingCheck tracks one in-flight stability probe.
type pendingCheck struct {
	path     string
	attempts int
	lastSize int64 // -1 until the first successful poll
	cancel   chan struct{}
}

// stabilityDetector decides when a growing file has finished writing using
// only repeated size polls: two consecutive equal non-zero reads mean the
// writer is done. At most one probe runs per path; duplicate detections are
// absorbed. A path that vanishes mid-poll is abandoned silently, and a path
// that never settles within maxChecks polls is given up on with an
// informational log line so a later filesystem event can re-detect it.
type stabilityDetector struct {
	interval  time.Duration
	maxChecks int
	verbose   bool

	logf     func(format string, args ...any)
	onStable func(path string)

	mu      sync.Mutex
	pending map[string]*pendingCheck
	stopped bool
	wg      sync.WaitGroup
}

func newStabilityDetector(cfg Config, logf func(string, ...any), onStable func(string)) *stabilityDetector {
	return &stabilityDetector{
		interval:  time.Duration(cfg.StabilityIntervalMs) * time.Millisecond,
		maxChecks: cfg.MaxStabilityChecks,
		verbose:   cfg.Verbose,
		logf:      logf,
		onStable:  onStable,
		pending:   make(map[string]*pendingCheck),
	}
}

// begin starts a probe for path unless one is already running or the
// detector has been cancelled. Reports whether a new probe was started.
func (d *stabilityDetector) begin(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	if _, ok := d.pending[path]; ok {
		return false
	}

	pc := &pendingCheck{path: path, lastSize: -1, cancel: make(chan struct{})}
	d.pending[path] = pc
	d.wg.Add(1)
	go d.poll(pc)
	return true
}

// poll drives one pending check to a terminal state: stable, vanished, or
// exhausted. The pending entry is removed before onStable fires so the path
// can be re-detected while its pipeline run is still in flight.
func (d *stabilityDetector) poll(pc *pendingCheck) {
	defer d.wg.Done()
	defer d.remove(pc)

	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-pc.cancel:
			return
		case <-timer.C:
		}

		info, err := os.Stat(pc.path)
		if err != nil {
			// Vanished mid-poll: same as never existed.
			return
		}

		size := info.Size()
		pc.attempts++
		if d.verbose {
			d.logf("Stability check %d/%d for %s: %d bytes", pc.attempts, d.maxChecks, pc.path, size)
		}

		if size > 0 && size == pc.lastSize {
			d.remove(pc)
			d.onStable(pc.path)
			return
		}
		pc.lastSize = size

		if pc.attempts >= d.maxChecks {
			d.logf("Gave up waiting for file to stabilize: %s", pc.path)
			return
		}

		timer.Reset(d.interval)
	}
}

// remove clears pc's map entry, but only if it is still the current one; the
// path may already have been re-detected with a fresh probe.
func (d *stabilityDetector) remove(pc *pendingCheck) {
	d.mu.Lock()
	if cur, ok := d.pending[pc.path]; ok && cur == pc {
		delete(d.pending, pc.path)
	}
	d.mu.Unlock()
}

// cancelAll stops every pending probe, prevents new ones, and waits for the
// poll goroutines to exit.
func (d *stabilityDetector) cancelAll() {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, pc := range d.pending {
			close(pc.cancel)
		}
		d.pending = make(map[string]*pendingCheck)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

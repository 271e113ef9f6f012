// Package watch rebuilds a ubc project when its sources change.
package watch

import (
	"slices"
	"sync"
	"time"
)

// MaxPending is the number of distinct changed paths that forces an
// immediate flush.
const MaxPending = 1000

// Debouncer coalesces bursts of file events (editor autosave, formatters,
// git checkouts) into one batch per quiet window.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	window  time.Duration
	onFlush func(paths []string)
	stopped bool
}

// NewDebouncer creates a debouncer. onFlush receives the sorted changed
// paths once no event has arrived for window.
func NewDebouncer(window time.Duration, onFlush func(paths []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a changed path and restarts the window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending[path] = struct{}{}

	if len(d.pending) >= MaxPending {
		paths := d.takeLocked()
		d.mu.Unlock()
		d.emit(paths)
		return
	}

	// A timer that already fired may still run flush; it finds nothing
	// pending or the newer batch, both fine.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.FlushNow)
	d.mu.Unlock()
}

// FlushNow emits pending paths without waiting for the window.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.mu.Unlock()
	d.emit(paths)
}

// Stop flushes what is pending and ignores later events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	paths := d.takeLocked()
	d.stopped = true
	d.mu.Unlock()
	d.emit(paths)
}

// Discard drops what is pending and ignores later events.
func (d *Debouncer) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.takeLocked()
	d.stopped = true
}

// PendingCount returns the number of paths waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// takeLocked stops the timer and drains pending. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	d.pending = make(map[string]struct{})
	return paths
}

// emit runs the callback outside the lock.
func (d *Debouncer) emit(paths []string) {
	if len(paths) > 0 && d.onFlush != nil {
		d.onFlush(paths)
	}
}

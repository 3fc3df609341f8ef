package watch

import (
	"slices"
	"strings"
	"sync"
	"time"
)

const defaultDebounce = 200 * time.Millisecond

// Debouncer collects paths and hands them to the fire callback, sorted and
// de-duplicated, once no new path has arrived for the current delay. The
// delay may depend on how many paths are pending.
type Debouncer struct {
	base time.Duration

	mu      sync.Mutex
	delayFn func(pending int) time.Duration
	fireFn  func(paths []string)
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = defaultDebounce
	}
	return &Debouncer{base: delay, pending: map[string]struct{}{}}
}

// SetDelayFunc installs an adaptive delay. Non-positive results fall back
// to the base delay.
func (d *Debouncer) SetDelayFunc(fn func(pending int) time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.delayFn = fn
	d.mu.Unlock()
}

func (d *Debouncer) DelayFor(pending int) time.Duration {
	if d == nil {
		return 0
	}
	if d.delayFn != nil {
		if v := d.delayFn(pending); v > 0 {
			return v
		}
	}
	return d.base
}

func (d *Debouncer) OnFire(fn func(paths []string)) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.fireFn = fn
	d.mu.Unlock()
}

func (d *Debouncer) Push(path string) {
	if d == nil {
		return
	}
	if path = strings.TrimSpace(path); path == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.DelayFor(len(d.pending)), d.fire)
}

// Pending reports how many distinct paths wait for the next fire.
func (d *Debouncer) Pending() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels the pending fire and drops queued paths. Later pushes are
// ignored.
func (d *Debouncer) Stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	clear(d.pending)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 || d.fireFn == nil {
		d.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	clear(d.pending)
	fn := d.fireFn
	d.mu.Unlock()

	slices.Sort(paths)
	fn(paths)
}

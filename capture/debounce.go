package capture

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDebounceWindow is the quiet period required after the last resize
// before a capture is requested.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer collapses a burst of Trigger calls into one call of fn, issued
// once window has elapsed with no further triggers. fn runs on a timer
// goroutine.
type Debouncer struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	fn      func()
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(c clock.Clock, window time.Duration, fn func()) *Debouncer {
	if c == nil {
		c = clock.New()
	}
	return &Debouncer{clock: c, window: window, fn: fn}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that fired just before a later Trigger reset it is superseded.
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Stop cancels any pending call; later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

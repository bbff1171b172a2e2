package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function once the delay has
// elapsed without another Schedule call (trailing edge).
//
// All methods are safe for concurrent use. The scheduled function runs on the
// clock's goroutine (the timer goroutine for RealClock, the caller of Advance
// for ManualClock) and never concurrently with itself from one Debouncer.
type Debouncer struct {
	mu      sync.Mutex
	run     sync.Mutex
	delay   time.Duration
	clock   Clock
	timer   Timer
	pending func()
	seq     uint64 // invalidates timers that were replaced or cancelled
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock used to schedule calls. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// New creates a debouncer with the given delay.
func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		delay: delay,
		clock: RealClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay returns the debounce window.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending call with fn and restarts the window.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = fn
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(seq)
	})
}

// CancelPending drops the pending call, if any. It returns whether a call
// was pending.
func (d *Debouncer) CancelPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	had := d.pending != nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = nil
	return had
}

// Flush runs the pending call immediately, if any, and cancels its timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	fn := d.pending
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		d.run.Lock()
		defer d.run.Unlock()
		fn()
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.run.Lock()
	defer d.run.Unlock()
	fn()
}

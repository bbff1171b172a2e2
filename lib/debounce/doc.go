// Package debounce provides a trailing-edge debouncer driven by a pluggable
// clock.
//
// A Debouncer groups bursts of Schedule calls into a single call of the most
// recently scheduled function, run once the clock reports that the delay has
// elapsed without another Schedule. There is no maximum wait: a stream of
// Schedule calls spaced closer than the delay postpones the call indefinitely.
//
// The Clock abstraction keeps the debouncer independent of the scheduling
// primitive. RealClock uses time.AfterFunc; ManualClock fires timers only when
// Advance is called, which makes timing-sensitive tests deterministic:
//
//	clock := debounce.NewManualClock()
//	d := debounce.New(10*time.Millisecond, debounce.WithClock(clock))
//	d.Schedule(send)
//	clock.Advance(10 * time.Millisecond) // send runs here
package debounce

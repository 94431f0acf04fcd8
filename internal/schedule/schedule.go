// Package schedule provides the timer primitives behind every periodic or debounced loop in ytfetch.
//
// Each logical timer (task poll, suggestion debounce, connectivity probe) owns exactly one [Slot].
// Arming a slot stops whatever handle it held before, and a callback whose handle was replaced never runs,
// so restarting a loop can never leave a duplicate timer behind.
//
// Time comes from a [Clock] so tests can drive loops with a manual clock instead of sleeping.
package schedule

import (
	"sync"
	"time"
)

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports false if the callback already ran or was stopped.
	Stop() bool
}

// Clock is the time source used by slots, loops and debouncers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns a [Clock] backed by the time package.
func RealClock() Clock { return realClock{} }

// Slot holds at most one pending callback.
type Slot struct {
	clock Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewSlot creates an empty slot. A nil clock selects [RealClock].
func NewSlot(clock Clock) *Slot {
	if clock == nil {
		clock = RealClock()
	}
	return &Slot{clock: clock}
}

// Schedule stops the pending callback, if any, and arms f to run after d.
func (s *Slot) Schedule(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		f()
	})
}

// Cancel stops the pending callback. A callback that has already started is not interrupted.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.gen++
}

// Pending reports whether a callback is armed and has not fired yet.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Slot) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Loop runs a function at a fixed interval.
//
// The next run is armed only after the current one returns, so runs never overlap.
type Loop struct {
	interval time.Duration
	fn       func()
	slot     *Slot

	mu      sync.Mutex
	running bool
	epoch   uint64
}

// NewLoop creates a stopped loop.
func NewLoop(clock Clock, interval time.Duration, fn func()) *Loop {
	return &Loop{interval: interval, fn: fn, slot: NewSlot(clock)}
}

// Start arms the loop. Calling Start on a running loop restarts its interval.
func (l *Loop) Start() {
	l.mu.Lock()
	l.running = true
	l.epoch++
	epoch := l.epoch
	l.mu.Unlock()

	l.arm(epoch)
}

// Stop halts the loop. A run already in progress completes but does not re-arm.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.running = false
	l.epoch++
	l.mu.Unlock()

	l.slot.Cancel()
}

// Running reports whether the loop is started.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) arm(epoch uint64) {
	l.slot.Schedule(l.interval, func() {
		if !l.current(epoch) {
			return
		}
		l.fn()
		if l.current(epoch) {
			l.arm(epoch)
		}
	})
}

func (l *Loop) current(epoch uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running && l.epoch == epoch
}

// Debouncer delays a callback until no new trigger has arrived for the configured delay.
type Debouncer struct {
	delay time.Duration
	slot  *Slot
}

// NewDebouncer creates a debouncer with the given quiet period.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, slot: NewSlot(clock)}
}

// Trigger replaces any pending callback with f and restarts the quiet period.
func (d *Debouncer) Trigger(f func()) { d.slot.Schedule(d.delay, f) }

// Cancel drops the pending callback.
func (d *Debouncer) Cancel() { d.slot.Cancel() }

// Pending reports whether a callback is waiting for the quiet period to end.
func (d *Debouncer) Pending() bool { return d.slot.Pending() }

package app

import (
	"sync"
	"time"
)

// Timer is a countdown tied to a single practice session. While running it
// ticks once per second, decrementing the remaining time (floored at zero),
// notifying the tick observer and firing the expiry observer exactly once
// when zero is reached. Observers are invoked outside the timer's lock.
type Timer struct {
	interval time.Duration

	mu        sync.Mutex
	initial   int
	remaining int
	running   bool
	stop      chan struct{}
	onTick    func(remaining int)
	onExpire  func()
}

// NewTimer builds a timer holding the given number of seconds.
func NewTimer(initialSeconds int) *Timer {
	return NewTimerWithInterval(initialSeconds, time.Second)
}

// NewTimerWithInterval is test-only for deterministic tick pacing.
func NewTimerWithInterval(initialSeconds int, interval time.Duration) *Timer {
	if initialSeconds < 0 {
		initialSeconds = 0
	}
	return &Timer{
		interval:  interval,
		initial:   initialSeconds,
		remaining: initialSeconds,
	}
}

// OnTick registers the observer notified with the remaining seconds after
// every tick. Must be set before Start.
func (t *Timer) OnTick(fn func(remaining int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTick = fn
}

// OnExpire registers the observer fired once when the countdown hits zero.
// Must be set before Start.
func (t *Timer) OnExpire(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Start transitions to running. Starting an already-running or expired timer
// is a no-op; an expired timer must be Reset before it can run again.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running || t.remaining == 0 {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
}

// Pause stops ticking without resetting the remaining time.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
}

// Reset stops the timer and restores the remaining time to newSeconds, or to
// the original initial value when no argument is given.
func (t *Timer) Reset(newSeconds ...int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.haltLocked()
	if len(newSeconds) > 0 && newSeconds[0] >= 0 {
		t.remaining = newSeconds[0]
	} else {
		t.remaining = t.initial
	}
}

// Remaining returns the seconds left on the countdown.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Running reports whether the timer is currently ticking.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Timer) haltLocked() {
	if !t.running {
		return
	}
	t.running = false
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
			if t.remaining > 0 {
				t.remaining--
			}
			remaining := t.remaining
			tick := t.onTick
			var expire func()
			if remaining == 0 {
				t.running = false
				t.stop = nil
				expire = t.onExpire
			}
			t.mu.Unlock()

			if tick != nil {
				tick(remaining)
			}
			if expire != nil {
				expire()
				return
			}
		}
	}
}

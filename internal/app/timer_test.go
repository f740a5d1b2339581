package app_test

import (
	"sync/atomic"
	"testing"
	"time"

	"satprep-service/internal/app"
)

func TestTimerCountsDownAndExpiresOnce(t *testing.T) {
	timer := app.NewTimerWithInterval(3, 5*time.Millisecond)

	ticks := make(chan int, 8)
	var expires int32
	expired := make(chan struct{}, 1)
	timer.OnTick(func(remaining int) { ticks <- remaining })
	timer.OnExpire(func() {
		atomic.AddInt32(&expires, 1)
		expired <- struct{}{}
	})

	timer.Start()

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not expire")
	}

	var seen []int
	for len(ticks) > 0 {
		seen = append(seen, <-ticks)
	}
	if len(seen) != 3 || seen[0] != 2 || seen[1] != 1 || seen[2] != 0 {
		t.Fatalf("expected ticks [2 1 0], got %v", seen)
	}
	if timer.Running() {
		t.Fatalf("expired timer still running")
	}
	if timer.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", timer.Remaining())
	}

	// No extra expiry fires after the countdown ends.
	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&expires); n != 1 {
		t.Fatalf("expected one expiry, got %d", n)
	}
}

func TestTimerPauseFreezesRemaining(t *testing.T) {
	timer := app.NewTimerWithInterval(100, 5*time.Millisecond)

	ticked := make(chan struct{}, 200)
	timer.OnTick(func(int) { ticked <- struct{}{} })

	timer.Start()
	for i := 0; i < 3; i++ {
		select {
		case <-ticked:
		case <-time.After(2 * time.Second):
			t.Fatalf("timer never ticked")
		}
	}
	timer.Pause()
	if timer.Running() {
		t.Fatalf("paused timer reports running")
	}

	frozen := timer.Remaining()
	time.Sleep(30 * time.Millisecond)
	if got := timer.Remaining(); got != frozen {
		t.Fatalf("remaining moved while paused: %d -> %d", frozen, got)
	}

	// Resume continues from where it stopped.
	for len(ticked) > 0 {
		<-ticked
	}
	timer.Start()
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not resume")
	}
	timer.Pause()
	if got := timer.Remaining(); got >= frozen {
		t.Fatalf("expected remaining below %d after resume, got %d", frozen, got)
	}
}

func TestTimerStartIsIdempotentWhileRunning(t *testing.T) {
	timer := app.NewTimerWithInterval(50, 5*time.Millisecond)
	var ticks int32
	timer.OnTick(func(int) { atomic.AddInt32(&ticks, 1) })

	timer.Start()
	timer.Start()
	timer.Start()

	time.Sleep(40 * time.Millisecond)
	timer.Pause()
	// Let an in-flight tick observer land before counting.
	time.Sleep(20 * time.Millisecond)
	elapsed := int(atomic.LoadInt32(&ticks))

	// A duplicated run loop would decrement faster than ticks observed.
	if got := timer.Remaining(); got != 50-elapsed {
		t.Fatalf("expected remaining %d after %d ticks, got %d", 50-elapsed, elapsed, got)
	}
}

func TestTimerStartAfterExpiryIsNoOp(t *testing.T) {
	timer := app.NewTimerWithInterval(1, 5*time.Millisecond)
	var expires int32
	expired := make(chan struct{}, 1)
	timer.OnExpire(func() {
		atomic.AddInt32(&expires, 1)
		expired <- struct{}{}
	})

	timer.Start()
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer did not expire")
	}

	timer.Start()
	time.Sleep(30 * time.Millisecond)
	if timer.Running() {
		t.Fatalf("expired timer restarted without reset")
	}
	if n := atomic.LoadInt32(&expires); n != 1 {
		t.Fatalf("expected one expiry, got %d", n)
	}

	// Reset re-arms the countdown.
	timer.Reset(2)
	timer.Start()
	if !timer.Running() {
		t.Fatalf("reset timer did not start")
	}
	timer.Pause()
}

func TestTimerReset(t *testing.T) {
	timer := app.NewTimerWithInterval(10, 5*time.Millisecond)
	ticked := make(chan struct{}, 20)
	timer.OnTick(func(int) { ticked <- struct{}{} })

	timer.Start()
	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatalf("timer never ticked")
	}

	timer.Reset()
	if timer.Running() {
		t.Fatalf("reset timer still running")
	}
	if timer.Remaining() != 10 {
		t.Fatalf("expected reset to initial 10, got %d", timer.Remaining())
	}

	timer.Reset(42)
	if timer.Remaining() != 42 {
		t.Fatalf("expected reset to 42, got %d", timer.Remaining())
	}
}

func TestTimerNegativeInitialClampsToZero(t *testing.T) {
	timer := app.NewTimer(-5)
	if timer.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", timer.Remaining())
	}
}

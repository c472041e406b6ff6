package booking

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerManagerFiresInOrder(t *testing.T) {
	tm := NewTimerManager()
	defer tm.CancelAll()

	var reminded, closed atomic.Int32
	tm.Schedule("k", 10*time.Millisecond, 30*time.Millisecond,
		func() { reminded.Add(1) },
		func() { closed.Add(1) })

	time.Sleep(20 * time.Millisecond)
	if got := reminded.Load(); got != 1 {
		t.Fatalf("reminder fired %d times, want 1", got)
	}
	if got := closed.Load(); got != 0 {
		t.Fatalf("soft-close fired before its delay")
	}

	time.Sleep(30 * time.Millisecond)
	if got := closed.Load(); got != 1 {
		t.Fatalf("soft-close fired %d times, want 1", got)
	}
}

func TestTimerManagerRescheduleReplacesPrevious(t *testing.T) {
	tm := NewTimerManager()
	defer tm.CancelAll()

	var fired atomic.Int32
	tm.Schedule("k", 10*time.Millisecond, 10*time.Millisecond,
		func() { fired.Add(1) }, func() { fired.Add(1) })
	tm.Schedule("k", 100*time.Millisecond, 100*time.Millisecond,
		func() { fired.Add(1) }, func() { fired.Add(1) })

	time.Sleep(40 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("replaced timers still fired %d times", got)
	}
}

func TestTimerManagerCancel(t *testing.T) {
	tm := NewTimerManager()

	var fired atomic.Int32
	tm.Schedule("a", 10*time.Millisecond, 10*time.Millisecond,
		func() { fired.Add(1) }, func() { fired.Add(1) })
	tm.Schedule("b", 10*time.Millisecond, 10*time.Millisecond,
		func() { fired.Add(1) }, func() { fired.Add(1) })
	tm.Cancel("a")
	tm.CancelAll()

	time.Sleep(30 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("canceled timers fired %d times", got)
	}
	// Canceling unknown keys is a no-op.
	tm.Cancel("nope")
}

package booking

import (
	"sync"
	"time"
)

// TimerManager schedules the per-session reminder and soft-close timers.
// Timers are named by session key and cancelable as a unit; rescheduling
// a key replaces its previous timers. Callbacks run on timer goroutines,
// so they must tolerate the session having been deleted in the meantime
// (the flow's callbacks check-then-noop).
type TimerManager struct {
	mu     sync.Mutex
	timers map[string]*sessionTimers
}

type sessionTimers struct {
	reminder *time.Timer
	close    *time.Timer
}

// NewTimerManager creates an empty timer manager.
func NewTimerManager() *TimerManager {
	return &TimerManager{timers: make(map[string]*sessionTimers)}
}

// Schedule (re)arms the reminder and soft-close timers for key. Any
// previously scheduled timers for the same key are stopped first.
func (tm *TimerManager) Schedule(key string, reminderAfter, closeAfter time.Duration, remind, softClose func()) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.stopLocked(key)
	tm.timers[key] = &sessionTimers{
		reminder: time.AfterFunc(reminderAfter, remind),
		close:    time.AfterFunc(closeAfter, softClose),
	}
}

// Cancel stops and forgets both timers for key. Safe to call for keys
// that were never scheduled.
func (tm *TimerManager) Cancel(key string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopLocked(key)
}

// CancelAll stops every pending timer. Used at shutdown.
func (tm *TimerManager) CancelAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for key := range tm.timers {
		tm.stopLocked(key)
	}
}

func (tm *TimerManager) stopLocked(key string) {
	if t, ok := tm.timers[key]; ok {
		t.reminder.Stop()
		t.close.Stop()
		delete(tm.timers, key)
	}
}

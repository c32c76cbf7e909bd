// Package schedule runs periodic callbacks on their own goroutine, the
// way a microcontroller timer service fires interrupt callbacks.
package schedule

import (
	"sync"
	"time"
)

// Task calls fn every period until stopped.
//
// Start on a running task only changes its period, effective from the
// next tick. Stop never blocks, so fn may stop its own task. A callback
// that is already running when Stop is called finishes normally.
type Task struct {
	fn func()

	mu     sync.Mutex
	ticker *time.Ticker
	stop   chan struct{}
	period time.Duration
}

func NewTask(fn func()) *Task {
	return &Task{fn: fn}
}

// Start schedules the task, or reschedules it if already running.
// Non-positive periods are ignored.
func (t *Task) Start(period time.Duration) {
	if t == nil || period <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticker != nil {
		if period != t.period {
			t.ticker.Reset(period)
			t.period = period
		}
		return
	}
	tk := time.NewTicker(period)
	stop := make(chan struct{})
	t.ticker = tk
	t.stop = stop
	t.period = period
	go t.loop(tk, stop)
}

// Stop cancels future ticks.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
	t.ticker = nil
	t.period = 0
}

// Running reports whether the task is scheduled.
func (t *Task) Running() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticker != nil
}

// Period returns the current period, or 0 when stopped.
func (t *Task) Period() time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.period
}

func (t *Task) loop(tk *time.Ticker, stop <-chan struct{}) {
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			// Prefer stop when both are ready.
			select {
			case <-stop:
				return
			default:
			}
			t.fn()
		}
	}
}

// Package debounce collapses a rapid burst of triggers (user keystrokes
// streamed over the live-search socket) into a single downstream call after
// a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Trigger schedules one pending callback at a time. Each Schedule call
// cancels the previous pending invocation, so a burst of N calls less than
// delay apart produces exactly one callback carrying the last value.
type Trigger struct {
	mu     sync.Mutex
	timer  *time.Timer
	latest string
}

func NewTrigger() *Trigger {
	return &Trigger{}
}

// Schedule arranges fn(value) to run after delay of no further Schedule
// calls. fn runs on a timer goroutine; callers needing serialization must
// provide it themselves.
func (t *Trigger) Schedule(value string, delay time.Duration, fn func(string)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.latest = value
	t.timer = time.AfterFunc(delay, func() {
		fn(value)
	})
}

// Cancel clears any pending invocation. Called on session teardown.
func (t *Trigger) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// Latest returns the most recently scheduled value. A result arriving for
// any other value belongs to a superseded cycle and should be dropped:
// in-flight requests are never aborted, only their results ignored.
func (t *Trigger) Latest() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

// IsCurrent reports whether value is still the latest scheduled input.
func (t *Trigger) IsCurrent(value string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest == value
}

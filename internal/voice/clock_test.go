package voice

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manual Clock for scheduler tests. Advance fires due timers
// in deadline order with now stepped to each deadline first, so a callback
// that arms a follow-up timer (fire → retire) sees the time its buffer
// actually started, not the far edge of the advance. Callbacks run outside
// the clock lock so they may arm new timers.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	when    time.Time
	f       func()
	fired   bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, when: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock to now+d, firing every timer due within the window
// in deadline order. Before each callback runs, now is stepped to that
// timer's deadline; timers armed by a callback are considered for the same
// window.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.when.After(target) {
				continue
			}
			if next == nil || t.when.Before(next.when) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		if next.when.After(c.now) {
			c.now = next.when
		}
		f := next.f
		c.mu.Unlock()
		f()
		c.mu.Lock()
	}
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// TestFakeClock_ChainedTimersFireWithinOneAdvance pins the stepping behavior
// the scheduler depends on: a playback buffer's write timer arms a retirement
// timer when it fires, and both must run inside a single Advance that covers
// the full play-out.
func TestFakeClock_ChainedTimersFireWithinOneAdvance(t *testing.T) {
	t.Parallel()
	c := newFakeClock()

	var firstAt, secondAt time.Time
	c.AfterFunc(100*time.Millisecond, func() {
		firstAt = c.Now()
		c.AfterFunc(500*time.Millisecond, func() {
			secondAt = c.Now()
		})
	})

	start := c.Now()
	c.Advance(time.Second)

	if want := start.Add(100 * time.Millisecond); !firstAt.Equal(want) {
		t.Errorf("first callback saw now = %v, want %v", firstAt, want)
	}
	if want := start.Add(600 * time.Millisecond); !secondAt.Equal(want) {
		t.Errorf("chained callback saw now = %v, want %v", secondAt, want)
	}
	if want := start.Add(time.Second); !c.Now().Equal(want) {
		t.Errorf("clock landed at %v, want %v", c.Now(), want)
	}
}

// TestFakeClock_StoppedTimerNeverFires covers the Stop contract the
// scheduler's Interrupt path relies on.
func TestFakeClock_StoppedTimerNeverFires(t *testing.T) {
	t.Parallel()
	c := newFakeClock()

	fired := false
	timer := c.AfterFunc(50*time.Millisecond, func() { fired = true })
	if !timer.Stop() {
		t.Fatal("Stop on a pending timer should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}

	c.Advance(time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
}

package schedule

import (
	"sort"
	"time"
)

type manualTimer struct {
	handle Handle
	due    time.Time
	fn     func()
}

// Manual is a simulated-time Scheduler. Time only moves when Advance is called.
type Manual struct {
	now     time.Time
	next    Handle
	pending []manualTimer
}

// NewManual returns a Manual scheduler starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	return m.now
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	m.next++
	m.pending = append(m.pending, manualTimer{handle: m.next, due: m.now.Add(d), fn: fn})
	return m.next
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(h Handle) {
	for i, t := range m.pending {
		if t.handle == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of timers that have not fired.
func (m *Manual) Pending() int {
	return len(m.pending)
}

// NextDue returns the due time of the earliest pending timer.
func (m *Manual) NextDue() (time.Time, bool) {
	if len(m.pending) == 0 {
		return time.Time{}, false
	}
	m.sortPending()
	return m.pending[0].due, true
}

// Advance moves the clock forward by d, firing due timers in order.
// Callbacks scheduled by fired timers also fire if they fall within d.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		if len(m.pending) == 0 {
			break
		}
		m.sortPending()
		t := m.pending[0]
		if t.due.After(target) {
			break
		}
		m.pending = m.pending[1:]
		m.now = t.due
		t.fn()
	}
	m.now = target
}

// RunUntilIdle jumps from one due time to the next until no timers remain
// or limit steps have run. It returns the number of steps taken.
func (m *Manual) RunUntilIdle(limit int) int {
	steps := 0
	for steps < limit {
		due, ok := m.NextDue()
		if !ok {
			break
		}
		m.Advance(due.Sub(m.now))
		steps++
	}
	return steps
}

func (m *Manual) sortPending() {
	sort.SliceStable(m.pending, func(i, j int) bool {
		if m.pending[i].due.Equal(m.pending[j].due) {
			return m.pending[i].handle < m.pending[j].handle
		}
		return m.pending[i].due.Before(m.pending[j].due)
	})
}

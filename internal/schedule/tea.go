package schedule

import (
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FiredMsg is delivered to the Bubble Tea program when a timer elapses.
type FiredMsg struct {
	Handle Handle
}

// Tea schedules callbacks as Bubble Tea tick commands. Callbacks run inside
// the program's Update when the matching FiredMsg is passed to Fire, so they
// never race with other model updates.
type Tea struct {
	next      Handle
	callbacks map[Handle]func()
	cmds      []tea.Cmd
}

// NewTea returns an empty Tea scheduler.
func NewTea() *Tea {
	return &Tea{callbacks: map[Handle]func(){}}
}

// Now implements Scheduler.
func (s *Tea) Now() time.Time {
	return time.Now()
}

// After implements Scheduler. The timer starts once the command returned by
// Flush is executed by the program.
func (s *Tea) After(d time.Duration, fn func()) Handle {
	s.next++
	h := s.next
	s.callbacks[h] = fn
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return FiredMsg{Handle: h}
	}))
	return h
}

// Cancel implements Scheduler. A cancelled timer still delivers its
// FiredMsg, which Fire then ignores.
func (s *Tea) Cancel(h Handle) {
	delete(s.callbacks, h)
}

// Fire runs the callback for msg if it is still pending.
func (s *Tea) Fire(msg FiredMsg) bool {
	fn, ok := s.callbacks[msg.Handle]
	if !ok {
		return false
	}
	delete(s.callbacks, msg.Handle)
	fn()
	return true
}

// Pending returns the handles of timers that have not fired or been cancelled,
// oldest first.
func (s *Tea) Pending() []Handle {
	out := make([]Handle, 0, len(s.callbacks))
	for h := range s.callbacks {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Flush returns the commands for timers scheduled since the last Flush.
func (s *Tea) Flush() tea.Cmd {
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}

package session

import (
	"sync"
	"time"
)

// ManualScheduler is a deterministic Scheduler and Clock for tests and
// simulations. Time only moves on Advance, which runs every due callback in
// due-time order, ties broken by arming order.
type ManualScheduler struct {
	mu      sync.Mutex
	start   time.Time
	elapsed time.Duration
	seq     int
	entries []*manualEntry
}

type manualEntry struct {
	sched  *ManualScheduler
	id     int
	period time.Duration
	next   time.Duration
	fn     func()
}

func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{start: start}
}

func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start.Add(m.elapsed)
}

func (m *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		d = time.Millisecond
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e := &manualEntry{sched: m, id: m.seq, period: d, next: m.elapsed + d, fn: fn}
	m.entries = append(m.entries, e)
	return e
}

func (e *manualEntry) Stop() {
	m := e.sched
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.entries {
		if other == e {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Advance moves time forward by d, firing callbacks as their time comes.
// Callbacks run without the scheduler lock held, so they may arm or stop
// timers.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.elapsed + d
	for {
		e := m.due(target)
		if e == nil {
			break
		}
		m.elapsed = e.next
		e.next += e.period
		m.mu.Unlock()
		e.fn()
		m.mu.Lock()
	}
	m.elapsed = target
	m.mu.Unlock()
}

func (m *ManualScheduler) due(target time.Duration) *manualEntry {
	var best *manualEntry
	for _, e := range m.entries {
		if e.next > target {
			continue
		}
		if best == nil || e.next < best.next || (e.next == best.next && e.id < best.id) {
			best = e
		}
	}
	return best
}

// Live is the number of armed timers.
func (m *ManualScheduler) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

package session

import (
	"sort"
	"sync"
	"time"
)

// Clock tells the session the wall-clock time.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Timer is a live periodic callback.
type Timer interface {
	Stop()
}

// Scheduler arms periodic callbacks. Each callback runs to completion before
// the session handles anything else because callbacks take the session lock.
type Scheduler interface {
	Every(d time.Duration, fn func()) Timer
}

// TickerScheduler runs each callback from its own time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{ticker: time.NewTicker(d), done: make(chan struct{})}
	go t.run(fn)
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}

// registry is the single place every live timer is tracked, so the terminal
// and reset transitions can cancel all of them. Not safe for concurrent use.
type registry struct {
	timers map[string]Timer
}

func newRegistry() *registry {
	return &registry{timers: make(map[string]Timer)}
}

// ensure arms a timer under key unless one is already live. It reports
// whether a new timer was created.
func (r *registry) ensure(key string, arm func() Timer) bool {
	if _, ok := r.timers[key]; ok {
		return false
	}
	r.timers[key] = arm()
	return true
}

func (r *registry) cancel(key string) {
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
}

// cancelAll stops every live timer and returns how many there were.
func (r *registry) cancelAll() int {
	n := len(r.timers)
	for key, t := range r.timers {
		t.Stop()
		delete(r.timers, key)
	}
	return n
}

func (r *registry) keys() []string {
	keys := make([]string, 0, len(r.timers))
	for k := range r.timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

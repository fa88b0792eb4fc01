package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time so schedulers stay deterministic in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) (<-chan time.Time, func())
}

type Timer interface {
	Stop() bool
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (SystemClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Manual only moves when Advance is called. Timers fire synchronously inside
// Advance, in deadline order, outside the clock's lock.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	timers  map[int]*manualTimer
	tickers map[int]*manualTicker
}

type manualTimer struct {
	clock    *Manual
	id       int
	deadline time.Time
	f        func()
}

type manualTicker struct {
	period time.Duration
	next   time.Time
	c      chan time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{
		now:     start,
		timers:  make(map[int]*manualTimer),
		tickers: make(map[int]*manualTicker),
	}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{clock: m, id: m.seq, deadline: m.now.Add(d), f: f}
	m.timers[t.id] = t
	return t
}

func (m *Manual) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	t := &manualTicker{period: d, next: m.now.Add(d), c: make(chan time.Time, 1)}
	m.tickers[id] = t

	return t.c, func() {
		m.mu.Lock()
		delete(m.tickers, id)
		m.mu.Unlock()
	}
}

// Pending is the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing due timers and delivering at
// most one buffered tick per ticker per step.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next, ok := m.nextDeadline(target)
		if !ok {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next

		var due []*manualTimer
		for id, t := range m.timers {
			if !t.deadline.After(next) {
				due = append(due, t)
				delete(m.timers, id)
			}
		}
		for _, t := range m.tickers {
			for !t.next.After(next) {
				select {
				case t.c <- t.next:
				default:
				}
				t.next = t.next.Add(t.period)
			}
		}
		m.mu.Unlock()

		sort.Slice(due, func(i, j int) bool {
			if due[i].deadline.Equal(due[j].deadline) {
				return due[i].id < due[j].id
			}
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, t := range due {
			t.f()
		}
	}
}

func (m *Manual) nextDeadline(limit time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	consider := func(t time.Time) {
		if t.After(limit) {
			return
		}
		if !found || t.Before(next) {
			next = t
			found = true
		}
	}
	for _, t := range m.timers {
		consider(t.deadline)
	}
	for _, t := range m.tickers {
		consider(t.next)
	}
	return next, found
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if _, ok := t.clock.timers[t.id]; !ok {
		return false
	}
	delete(t.clock.timers, t.id)
	return true
}

package playback

import "sort"

// PlayFunc starts output of a segment at start (seconds on the output clock)
// and returns a function that stops it early.
type PlayFunc func(id int64, start float64) (stop func(), err error)

type Segment struct {
	ID       int64   `json:"id"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Scheduler lays audio segments back to back on an output clock. It is owned
// by a single goroutine and is not safe for concurrent use.
type Scheduler struct {
	next    float64
	seq     int64
	pending map[int64]func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[int64]func())}
}

// Schedule places a segment of the given duration at max(next, now). The clock
// only advances when play succeeds.
func (s *Scheduler) Schedule(now, duration float64, play PlayFunc) (Segment, error) {
	start := s.next
	if now > start {
		start = now
	}

	s.seq++
	id := s.seq

	stop, err := play(id, start)
	if err != nil {
		return Segment{}, err
	}
	if stop == nil {
		stop = func() {}
	}

	s.pending[id] = stop
	s.next = start + duration

	return Segment{ID: id, Start: start, Duration: duration}, nil
}

// Done forgets a segment that finished on its own.
func (s *Scheduler) Done(id int64) {
	delete(s.pending, id)
}

// Interrupt stops everything pending and zeroes the clock, so the next
// segment starts at whatever "now" is when it arrives.
func (s *Scheduler) Interrupt() {
	s.stopPending()
	s.next = 0
}

func (s *Scheduler) StopAll() {
	s.stopPending()
}

func (s *Scheduler) Reset() {
	s.next = 0
}

func (s *Scheduler) Next() float64 {
	return s.next
}

func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// stopPending stops segments in scheduling order.
func (s *Scheduler) stopPending() {
	ids := make([]int64, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		s.pending[id]()
	}
	s.pending = make(map[int64]func())
}

package pomodoro

import (
	"fmt"
	"sync"
	"time"
)

type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5

	// CueVolume is used for the phase completion chime.
	CueVolume = 0.2
)

// Cue plays a short sound. Failures are ignored by the timer.
type Cue interface {
	Play(volume float64) error
}

// TickerFunc returns a channel firing every d and a function releasing it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Snapshot struct {
	Phase        Phase   `json:"phase"`
	Remaining    int     `json:"remaining_seconds"`
	Display      string  `json:"display"`
	Running      bool    `json:"running"`
	Progress     float64 `json:"progress"`
	FocusMinutes int     `json:"focus_minutes"`
	BreakMinutes int     `json:"break_minutes"`
}

type Option func(*Timer)

func WithTicker(f TickerFunc) Option {
	return func(t *Timer) { t.newTicker = f }
}

func WithCue(c Cue) Option {
	return func(t *Timer) { t.cue = c }
}

// WithFocusComplete registers the callback fired each time a focus phase
// runs out. It is not fired when a break ends.
func WithFocusComplete(f func()) Option {
	return func(t *Timer) { t.onFocusComplete = f }
}

// WithChange registers an observer for every state change.
func WithChange(f func(Snapshot)) Option {
	return func(t *Timer) { t.onChange = f }
}

type Timer struct {
	mu sync.Mutex

	focusMinutes int
	breakMinutes int
	phase        Phase
	remaining    int
	running      bool
	generation   int64
	stopTicker   func()

	newTicker       TickerFunc
	cue             Cue
	onFocusComplete func()
	onChange        func(Snapshot)
}

func New(opts ...Option) *Timer {
	t := &Timer{
		focusMinutes: DefaultFocusMinutes,
		breakMinutes: DefaultBreakMinutes,
		phase:        PhaseFocus,
		remaining:    DefaultFocusMinutes * 60,
		newTicker:    realTicker,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Timer) Start() Snapshot {
	t.mu.Lock()
	if !t.running {
		t.running = true
		t.generation++
		ch, stop := t.newTicker(time.Second)
		done := make(chan struct{})
		var once sync.Once
		t.stopTicker = func() {
			once.Do(func() {
				stop()
				close(done)
			})
		}
		go t.run(ch, done, t.generation)
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return snap
}

func (t *Timer) Pause() Snapshot {
	t.mu.Lock()
	t.haltLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return snap
}

func (t *Timer) Toggle() Snapshot {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if running {
		return t.Pause()
	}
	return t.Start()
}

// Reset stops the countdown and restores the full duration of the current phase.
func (t *Timer) Reset() Snapshot {
	t.mu.Lock()
	t.haltLocked()
	t.remaining = t.phaseSecondsLocked(t.phase)
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return snap
}

// SetDurations updates the configured minutes. Values below one become one.
// When the edited phase is current and the timer is stopped the remaining
// time jumps to the new full duration.
func (t *Timer) SetDurations(focusMinutes, breakMinutes int) Snapshot {
	t.mu.Lock()
	focusChanged := t.focusMinutes != atLeastOne(focusMinutes)
	breakChanged := t.breakMinutes != atLeastOne(breakMinutes)
	t.focusMinutes = atLeastOne(focusMinutes)
	t.breakMinutes = atLeastOne(breakMinutes)

	if !t.running {
		if (t.phase == PhaseFocus && focusChanged) || (t.phase == PhaseBreak && breakChanged) {
			t.remaining = t.phaseSecondsLocked(t.phase)
		}
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.notify(snap)
	return snap
}

// Tick advances the countdown by one second. It does nothing while paused.
func (t *Timer) Tick() Snapshot {
	return t.tick(0)
}

// tick ignores ticks from a ticker that belonged to an earlier run when
// generation is non-zero.
func (t *Timer) tick(generation int64) Snapshot {
	t.mu.Lock()
	if !t.running || (generation != 0 && generation != t.generation) {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		return snap
	}

	if t.remaining > 1 {
		t.remaining--
		snap := t.snapshotLocked()
		t.mu.Unlock()
		t.notify(snap)
		return snap
	}

	leavingFocus := t.phase == PhaseFocus
	if leavingFocus {
		t.phase = PhaseBreak
	} else {
		t.phase = PhaseFocus
	}
	t.remaining = t.phaseSecondsLocked(t.phase)
	t.haltLocked()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	if t.cue != nil {
		_ = t.cue.Play(CueVolume)
	}
	if leavingFocus && t.onFocusComplete != nil {
		t.onFocusComplete()
	}
	t.notify(snap)
	return snap
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Close stops the ticker goroutine.
func (t *Timer) Close() {
	t.mu.Lock()
	t.haltLocked()
	t.mu.Unlock()
}

func (t *Timer) run(ch <-chan time.Time, done <-chan struct{}, generation int64) {
	for {
		select {
		case <-done:
			return
		case <-ch:
			t.tick(generation)
		}
	}
}

func (t *Timer) haltLocked() {
	t.running = false
	if t.stopTicker != nil {
		t.stopTicker()
		t.stopTicker = nil
	}
}

func (t *Timer) phaseSecondsLocked(p Phase) int {
	if p == PhaseBreak {
		return t.breakMinutes * 60
	}
	return t.focusMinutes * 60
}

func (t *Timer) snapshotLocked() Snapshot {
	total := t.phaseSecondsLocked(t.phase)
	progress := 0.0
	if total > 0 {
		progress = (1 - float64(t.remaining)/float64(total)) * 100
	}

	return Snapshot{
		Phase:        t.phase,
		Remaining:    t.remaining,
		Display:      FormatTime(t.remaining),
		Running:      t.running,
		Progress:     progress,
		FocusMinutes: t.focusMinutes,
		BreakMinutes: t.breakMinutes,
	}
}

func (t *Timer) notify(s Snapshot) {
	if t.onChange != nil {
		t.onChange(s)
	}
}

// FormatTime renders seconds as zero padded MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

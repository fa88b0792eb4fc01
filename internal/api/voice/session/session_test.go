package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"Focus2026/pkg/audio"
	"Focus2026/pkg/gemini"

	"github.com/sirupsen/logrus"
)

const waitTimeout = 2 * time.Second

type fakeStream struct {
	mu     sync.Mutex
	sent   []audio.Blob
	closed int

	incoming chan *gemini.ServerMessage
	errs     chan error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		incoming: make(chan *gemini.ServerMessage, 16),
		errs:     make(chan error, 1),
	}
}

func (f *fakeStream) Send(blob audio.Blob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, blob)
	return nil
}

func (f *fakeStream) Receive() (*gemini.ServerMessage, error) {
	select {
	case msg := <-f.incoming:
		return msg, nil
	case err := <-f.errs:
		return nil, err
	}
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	select {
	case f.errs <- io.EOF:
	default:
	}
	return nil
}

func (f *fakeStream) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeStream) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeDialer struct {
	hasKey bool
	stream *fakeStream
	err    error
	dials  int
}

func (d *fakeDialer) HasCredential() bool { return d.hasKey }

func (d *fakeDialer) Dial(context.Context, string) (Stream, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.stream, nil
}

type fakeCapture struct {
	frames    chan []float32
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func (c *fakeCapture) Frames() <-chan []float32 { return c.frames }

func (c *fakeCapture) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
	})
	return nil
}

func (c *fakeCapture) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeMicrophone struct {
	capture *fakeCapture
	err     error
}

func (m *fakeMicrophone) Open(context.Context) (Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.capture, nil
}

type fakeSpeaker struct {
	mu      sync.Mutex
	now     float64
	opened  int
	starts  []float64
	stopped []int64
}

func (s *fakeSpeaker) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
}

func (s *fakeSpeaker) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *fakeSpeaker) Play(id int64, _ *audio.Buffer, start float64, _ func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, start)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stopped = append(s.stopped, id)
	}, nil
}

func (s *fakeSpeaker) stoppedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stopped)
}

type harness struct {
	session *Session
	dialer  *fakeDialer
	mic     *fakeMicrophone
	speaker *fakeSpeaker
	stream  *fakeStream
	events  chan Event
}

func newHarness(t *testing.T, hasKey bool) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		stream:  newFakeStream(),
		speaker: &fakeSpeaker{},
		events:  make(chan Event, 256),
	}
	h.dialer = &fakeDialer{hasKey: hasKey, stream: h.stream}
	h.mic = &fakeMicrophone{capture: &fakeCapture{frames: make(chan []float32, 8)}}
	h.session = New(Config{
		Dialer:            h.dialer,
		Microphone:        h.mic,
		Speaker:           h.speaker,
		SystemInstruction: "be loud",
		OnEvent:           func(ev Event) { h.events <- ev },
		Log:               logger,
	})
	t.Cleanup(h.session.Close)

	return h
}

func (h *harness) waitFor(t *testing.T, match func(Event) bool) Event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-h.events:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

func isState(s State) func(Event) bool {
	return func(ev Event) bool { return ev.Type == EventState && ev.State == s }
}

func pcm(samples int) []byte {
	return make([]byte, samples*2)
}

func TestMissingCredentialKeepsIdle(t *testing.T) {
	h := newHarness(t, false)

	err := h.session.Start(context.Background())
	if !errors.Is(err, ErrCredentialMissing) {
		t.Fatalf("Start() error = %v, want ErrCredentialMissing", err)
	}
	if h.session.State() != StateIdle {
		t.Fatalf("State() = %s, want idle", h.session.State())
	}

	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventError })
	if !errors.Is(ev.Err, ErrCredentialMissing) {
		t.Fatalf("error event = %v", ev.Err)
	}
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected event after refusal: %+v", ev)
	default:
	}
	if h.dialer.dials != 0 {
		t.Fatalf("dialed %d times without credential", h.dialer.dials)
	}
}

func TestPermissionDenied(t *testing.T) {
	h := newHarness(t, true)
	h.mic.err = errors.New("NotAllowedError")

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventError })
	if !errors.Is(ev.Err, ErrPermissionDenied) {
		t.Fatalf("error = %v, want ErrPermissionDenied", ev.Err)
	}
	h.waitFor(t, isState(StateIdle))
}

func TestConnectionFailedReleasesMicrophone(t *testing.T) {
	h := newHarness(t, true)
	h.dialer.err = errors.New("dial tcp: refused")

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventError })
	if !errors.Is(ev.Err, ErrConnectionFailed) {
		t.Fatalf("error = %v, want ErrConnectionFailed", ev.Err)
	}
	h.waitFor(t, isState(StateIdle))
	if !h.mic.capture.isClosed() {
		t.Fatal("microphone not released after failed dial")
	}
}

func TestActiveSessionStreamsAndSchedules(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))

	h.mic.capture.frames <- []float32{0.1, 0.2}
	h.mic.capture.frames <- []float32{-0.1}

	deadline := time.Now().Add(waitTimeout)
	for h.stream.sentCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("microphone frames not forwarded")
		}
		time.Sleep(5 * time.Millisecond)
	}
	h.stream.mu.Lock()
	mime := h.stream.sent[0].MIMEType
	h.stream.mu.Unlock()
	if mime != audio.InputMIMEType {
		t.Fatalf("MIMEType = %q", mime)
	}

	h.stream.incoming <- &gemini.ServerMessage{OutputTranscript: "GIDEON!"}
	h.stream.incoming <- &gemini.ServerMessage{OutputTranscript: "FOCUS!", Audio: pcm(12000)}
	h.stream.incoming <- &gemini.ServerMessage{Audio: pcm(24000)}

	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventTranscript && ev.Text == "FOCUS!" })
	if ev.Transcript != " GIDEON! FOCUS!" {
		t.Fatalf("Transcript = %q", ev.Transcript)
	}

	first := h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })
	second := h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })
	if first.Segment.Start != 0 || first.Segment.Duration != 0.5 {
		t.Fatalf("first segment = %+v", first.Segment)
	}
	if second.Segment.Start != 0.5 {
		t.Fatalf("second segment start = %v, want 0.5", second.Segment.Start)
	}
	if h.session.Transcript() != " GIDEON! FOCUS!" {
		t.Fatalf("Transcript() = %q", h.session.Transcript())
	}
}

func TestInterruptionRestartsOutputImmediately(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))

	h.stream.incoming <- &gemini.ServerMessage{Audio: pcm(24000)}
	h.stream.incoming <- &gemini.ServerMessage{Audio: pcm(24000)}
	h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })
	h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })

	h.speaker.mu.Lock()
	h.speaker.now = 0.25
	h.speaker.mu.Unlock()

	h.stream.incoming <- &gemini.ServerMessage{Interrupted: true}
	h.waitFor(t, func(ev Event) bool { return ev.Type == EventInterrupted })
	if h.speaker.stoppedCount() != 2 {
		t.Fatalf("stopped %d segments, want 2", h.speaker.stoppedCount())
	}

	h.stream.incoming <- &gemini.ServerMessage{Audio: pcm(2400)}
	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })
	if ev.Segment.Start != 0.25 {
		t.Fatalf("start after interrupt = %v, want 0.25", ev.Segment.Start)
	}
}

func TestMalformedAudioIsSkipped(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))

	h.stream.incoming <- &gemini.ServerMessage{Audio: []byte{1, 2, 3}}
	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventError })

	var decodeErr *audio.DecodeError
	if !errors.As(ev.Err, &decodeErr) {
		t.Fatalf("error = %v, want *audio.DecodeError", ev.Err)
	}
	if h.session.State() != StateActive {
		t.Fatalf("State() = %s, want active", h.session.State())
	}
}

func TestStopIsSynchronousAndIdempotent(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))
	h.stream.incoming <- &gemini.ServerMessage{Audio: pcm(2400)}
	h.waitFor(t, func(ev Event) bool { return ev.Type == EventAudioScheduled })

	h.session.Stop()

	if h.session.State() != StateIdle {
		t.Fatalf("State() = %s after Stop", h.session.State())
	}
	if h.stream.closeCount() != 1 {
		t.Fatalf("stream closed %d times", h.stream.closeCount())
	}
	if !h.mic.capture.isClosed() {
		t.Fatal("microphone still open after Stop")
	}
	if h.speaker.stoppedCount() != 1 {
		t.Fatalf("stopped %d segments, want 1", h.speaker.stoppedCount())
	}

	h.session.Stop()
	if h.session.State() != StateIdle || h.stream.closeCount() != 1 {
		t.Fatalf("second Stop changed state: %s, closes=%d", h.session.State(), h.stream.closeCount())
	}
}

func TestMessagesAfterTeardownAreDropped(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))
	h.session.Stop()

	h.session.post(inbound{kind: kindMessage, generation: 1, msg: &gemini.ServerMessage{OutputTranscript: "late"}})
	h.session.Stop()

	if h.session.Transcript() != "" {
		t.Fatalf("late message changed transcript: %q", h.session.Transcript())
	}
}

func TestRemoteErrorTearsDown(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))

	h.stream.errs <- errors.New("1011 internal error")

	ev := h.waitFor(t, func(ev Event) bool { return ev.Type == EventError })
	if !errors.Is(ev.Err, ErrStreamError) {
		t.Fatalf("error = %v, want ErrStreamError", ev.Err)
	}
	h.waitFor(t, isState(StateIdle))
	if !h.mic.capture.isClosed() {
		t.Fatal("microphone not released on stream error")
	}
}

func TestRemoteCloseTearsDownWithoutError(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	h.waitFor(t, isState(StateActive))

	h.stream.errs <- io.EOF

	ev := h.waitFor(t, func(ev Event) bool {
		return ev.Type == EventError || (ev.Type == EventState && ev.State == StateIdle)
	})
	if ev.Type == EventError {
		t.Fatalf("remote close surfaced error: %v", ev.Err)
	}
}

func TestStartWhileActive(t *testing.T) {
	h := newHarness(t, true)

	if err := h.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := h.session.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"Focus2026/pkg/audio"
	"Focus2026/pkg/gemini"
	"Focus2026/pkg/log"
	"Focus2026/pkg/playback"

	"github.com/sirupsen/logrus"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateClosing    State = "closing"
)

var (
	ErrCredentialMissing = errors.New("API key is missing. Check environment variables")
	ErrPermissionDenied  = errors.New("microphone access was not granted")
	ErrConnectionFailed  = errors.New("could not start voice session")
	ErrStreamError       = errors.New("voice session stream failed")
	ErrAlreadyStarted    = errors.New("voice session already started")
	ErrClosed            = errors.New("voice session is closed")
)

// Stream is an open bidirectional live audio stream.
type Stream interface {
	Send(blob audio.Blob) error
	Receive() (*gemini.ServerMessage, error)
	Close() error
}

type Dialer interface {
	HasCredential() bool
	Dial(ctx context.Context, systemInstruction string) (Stream, error)
}

// Capture delivers microphone frames at audio.InputSampleRate. Frames is
// closed once the capture ends.
type Capture interface {
	Frames() <-chan []float32
	Close() error
}

type Microphone interface {
	Open(ctx context.Context) (Capture, error)
}

// Speaker owns the output clock. Play starts buf at start seconds and calls
// ended when the segment finished by itself.
type Speaker interface {
	Open()
	Now() float64
	Play(id int64, buf *audio.Buffer, start float64, ended func()) (stop func(), err error)
}

type Config struct {
	Dialer            Dialer
	Microphone        Microphone
	Speaker           Speaker
	SystemInstruction string
	OnEvent           func(Event)
	Log               *logrus.Logger
}

// Session drives one voice conversation. All state below the inbox is owned
// by the loop goroutine.
type Session struct {
	cfg   Config
	log   *logrus.Logger
	inbox chan inbound
	quit  chan struct{}

	closeOnce sync.Once
	loopDone  chan struct{}

	statusMu   sync.RWMutex
	status     State
	transcript string

	state         State
	generation    int64
	stream        Stream
	capture       Capture
	runDone       chan struct{}
	cancelConnect context.CancelFunc
	scheduler     *playback.Scheduler
	output        []string
}

func New(cfg Config) *Session {
	logger := cfg.Log
	if logger == nil {
		logger = log.NewLogger()
	}
	if cfg.OnEvent == nil {
		cfg.OnEvent = func(Event) {}
	}

	s := &Session{
		cfg:       cfg,
		log:       logger,
		inbox:     make(chan inbound, 64),
		quit:      make(chan struct{}),
		loopDone:  make(chan struct{}),
		status:    StateIdle,
		state:     StateIdle,
		scheduler: playback.NewScheduler(),
	}
	go s.loop()

	return s
}

// Start asks for the microphone and dials the live stream. It returns once
// the session is Connecting, or with ErrCredentialMissing when no API key
// is configured, in which case the state does not change.
func (s *Session) Start(ctx context.Context) error {
	reply := make(chan error, 1)
	if !s.post(inbound{kind: kindStart, ctx: ctx, reply: reply}) {
		return ErrClosed
	}

	select {
	case err := <-reply:
		return err
	case <-s.loopDone:
		return ErrClosed
	}
}

// Stop tears the session down and returns after the stream and microphone
// are released. Stopping an idle session is a no-op.
func (s *Session) Stop() {
	done := make(chan struct{})
	if !s.post(inbound{kind: kindStop, done: done}) {
		return
	}

	select {
	case <-done:
	case <-s.loopDone:
	}
}

// Close stops the session and ends its loop.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.Stop()
		close(s.quit)
		<-s.loopDone
	})
}

func (s *Session) State() State {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Transcript is the running agent transcript.
func (s *Session) Transcript() string {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.transcript
}

func (s *Session) post(ev inbound) bool {
	select {
	case <-s.quit:
		return false
	default:
	}

	select {
	case s.inbox <- ev:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) loop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.quit:
			s.teardown()
			return
		case ev := <-s.inbox:
			s.handle(ev)
		}
	}
}

func (s *Session) handle(ev inbound) {
	switch ev.kind {
	case kindStart:
		ev.reply <- s.onStart(ev.ctx)
	case kindStop:
		s.teardown()
		close(ev.done)
	case kindOpened:
		s.onOpened(ev)
	case kindFailed:
		s.onFailed(ev)
	case kindMessage:
		s.onMessage(ev)
	case kindEnded:
		if ev.generation == s.generation {
			s.scheduler.Done(ev.id)
		}
	case kindStreamClosed:
		s.onStreamClosed(ev)
	}
}

func (s *Session) onStart(ctx context.Context) error {
	if s.state != StateIdle {
		return ErrAlreadyStarted
	}

	if !s.cfg.Dialer.HasCredential() {
		s.log.Warn("voice session start refused: missing API key")
		s.emit(Event{Type: EventError, Err: ErrCredentialMissing})
		return ErrCredentialMissing
	}

	s.generation++
	s.output = nil
	s.publishTranscript("")
	s.scheduler.StopAll()
	s.scheduler.Reset()
	s.cfg.Speaker.Open()
	s.setState(StateConnecting)

	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelConnect = cancel

	go s.connect(connectCtx, s.generation)

	return nil
}

func (s *Session) connect(ctx context.Context, generation int64) {
	capture, err := s.cfg.Microphone.Open(ctx)
	if err != nil {
		if !errors.Is(err, ErrPermissionDenied) {
			err = fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		s.post(inbound{kind: kindFailed, generation: generation, err: err})
		return
	}

	stream, err := s.cfg.Dialer.Dial(ctx, s.cfg.SystemInstruction)
	if err != nil {
		_ = capture.Close()
		s.post(inbound{kind: kindFailed, generation: generation, err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)})
		return
	}

	if !s.post(inbound{kind: kindOpened, generation: generation, stream: stream, capture: capture}) {
		_ = stream.Close()
		_ = capture.Close()
	}
}

func (s *Session) onOpened(ev inbound) {
	if ev.generation != s.generation || s.state != StateConnecting {
		_ = ev.stream.Close()
		_ = ev.capture.Close()
		return
	}

	s.stream = ev.stream
	s.capture = ev.capture
	s.runDone = make(chan struct{})
	s.setState(StateActive)

	s.log.WithFields(log.Fields{
		"generation": s.generation,
	}).Info("voice session opened")

	go s.pumpMicrophone(ev.generation, ev.capture, ev.stream, s.runDone)
	go s.receive(ev.generation, ev.stream)
}

func (s *Session) onFailed(ev inbound) {
	if ev.generation != s.generation || s.state != StateConnecting {
		return
	}

	s.log.WithFields(log.Fields{
		"error": ev.err.Error(),
	}).Warn("voice session failed to start")

	s.emit(Event{Type: EventError, Err: ev.err})
	s.teardown()
}

// pumpMicrophone forwards frames in capture order until the capture or the
// run ends.
func (s *Session) pumpMicrophone(generation int64, capture Capture, stream Stream, runDone <-chan struct{}) {
	frames := capture.Frames()
	for {
		select {
		case <-runDone:
			return
		case frame, ok := <-frames:
			if !ok {
				return
			}
			if err := stream.Send(audio.CreatePCMBlob(frame)); err != nil {
				s.post(inbound{kind: kindStreamClosed, generation: generation, err: err})
				return
			}
		}
	}
}

func (s *Session) receive(generation int64, stream Stream) {
	for {
		msg, err := stream.Receive()
		if err != nil {
			s.post(inbound{kind: kindStreamClosed, generation: generation, err: err})
			return
		}
		if !s.post(inbound{kind: kindMessage, generation: generation, msg: msg}) {
			return
		}
	}
}

func (s *Session) onMessage(ev inbound) {
	if ev.generation != s.generation || s.state != StateActive || ev.msg == nil {
		return
	}
	msg := ev.msg

	if msg.OutputTranscript != "" {
		s.output = append(s.output, msg.OutputTranscript)
		transcript := joinTranscript(s.output)
		s.publishTranscript(transcript)
		s.emit(Event{Type: EventTranscript, Text: msg.OutputTranscript, Transcript: transcript})
	}
	if msg.InputTranscript != "" {
		s.emit(Event{Type: EventInputTranscript, Text: msg.InputTranscript})
	}

	if len(msg.Audio) > 0 {
		s.scheduleAudio(msg.Audio)
	}

	if msg.Interrupted {
		s.scheduler.Interrupt()
		s.emit(Event{Type: EventInterrupted})
	}
}

func (s *Session) scheduleAudio(data []byte) {
	buf, err := audio.DecodeAudioData(data, audio.OutputSampleRate, 1)
	if err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
			"bytes": len(data),
		}).Warn("skipping malformed audio fragment")
		s.emit(Event{Type: EventError, Err: err})
		return
	}

	generation := s.generation
	seg, err := s.scheduler.Schedule(s.cfg.Speaker.Now(), buf.Duration(), func(id int64, start float64) (func(), error) {
		return s.cfg.Speaker.Play(id, buf, start, func() {
			s.post(inbound{kind: kindEnded, generation: generation, id: id})
		})
	})
	if err != nil {
		s.log.WithFields(log.Fields{
			"error": err.Error(),
		}).Warn("failed to schedule audio fragment")
		return
	}

	s.emit(Event{Type: EventAudioScheduled, Segment: seg})
}

func (s *Session) onStreamClosed(ev inbound) {
	if ev.generation != s.generation || s.state != StateActive {
		return
	}

	if errors.Is(ev.err, io.EOF) {
		s.log.Info("voice session closed by remote")
	} else {
		s.log.WithFields(log.Fields{
			"error": ev.err.Error(),
		}).Error("voice session stream error")
		s.emit(Event{Type: EventError, Err: fmt.Errorf("%w: %v", ErrStreamError, ev.err)})
	}

	s.teardown()
}

// teardown releases everything the current run holds. Any event still in
// flight for this run is dropped because the generation moves on.
func (s *Session) teardown() {
	if s.state == StateIdle {
		return
	}

	s.setState(StateClosing)
	s.generation++

	if s.cancelConnect != nil {
		s.cancelConnect()
		s.cancelConnect = nil
	}
	if s.runDone != nil {
		close(s.runDone)
		s.runDone = nil
	}
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.log.WithFields(log.Fields{"error": err.Error()}).Debug("closing live stream")
		}
		s.stream = nil
	}
	if s.capture != nil {
		if err := s.capture.Close(); err != nil {
			s.log.WithFields(log.Fields{"error": err.Error()}).Debug("closing microphone")
		}
		s.capture = nil
	}
	s.scheduler.StopAll()

	s.setState(StateIdle)
}

func (s *Session) setState(state State) {
	s.state = state
	s.statusMu.Lock()
	s.status = state
	s.statusMu.Unlock()

	s.emit(Event{Type: EventState, State: state})
}

func (s *Session) publishTranscript(t string) {
	s.statusMu.Lock()
	s.transcript = t
	s.statusMu.Unlock()
}

func (s *Session) emit(ev Event) {
	s.cfg.OnEvent(ev)
}

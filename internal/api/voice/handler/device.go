package voiceHandler

import (
	"Focus2026/internal/api/voice"
	"Focus2026/internal/api/voice/session"
	"Focus2026/pkg/audio"
	"Focus2026/pkg/log"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type jsonWriter interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
}

// deviceConn serializes writes to one websocket.
type deviceConn struct {
	mu   sync.Mutex
	conn jsonWriter
}

func (d *deviceConn) send(v interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	if err := d.conn.WriteJSON(v); err != nil {
		return err
	}
	return d.conn.SetWriteDeadline(time.Time{})
}

// wsSpeaker plays segments on the client. Its clock counts seconds since the
// last audio_open.
type wsSpeaker struct {
	out *deviceConn
	now func() time.Time

	mu       sync.Mutex
	openedAt time.Time
}

func newWSSpeaker(out *deviceConn) *wsSpeaker {
	return &wsSpeaker{out: out, now: time.Now, openedAt: time.Now()}
}

func (s *wsSpeaker) Open() {
	s.mu.Lock()
	s.openedAt = s.now()
	s.mu.Unlock()

	_ = s.out.send(voice.AudioOpenMessage{Type: voice.ServerAudioOpen, SampleRate: audio.OutputSampleRate})
}

func (s *wsSpeaker) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.openedAt).Seconds()
}

func (s *wsSpeaker) Play(id int64, buf *audio.Buffer, start float64, ended func()) (func(), error) {
	err := s.out.send(voice.AudioMessage{
		Type:     voice.ServerAudio,
		ID:       id,
		Start:    start,
		Duration: buf.Duration(),
		Data:     audio.Encode(buf.Interleaved()),
		MIMEType: audio.OutputMIMEType,
	})
	if err != nil {
		return nil, err
	}

	delay := time.Duration((start + buf.Duration() - s.Now()) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}
	timer := time.AfterFunc(delay, ended)

	return func() {
		timer.Stop()
		_ = s.out.send(voice.AudioStopMessage{Type: voice.ServerAudioStop, ID: id})
	}, nil
}

type micReply struct {
	granted    bool
	sampleRate int
}

// wsMicrophone asks the client for microphone access and feeds the frames
// it sends into the open capture.
type wsMicrophone struct {
	out     *deviceConn
	log     *logrus.Logger
	timeout time.Duration
	replies chan micReply

	mu      sync.Mutex
	current *wsCapture
}

func newWSMicrophone(out *deviceConn, logger *logrus.Logger, timeout time.Duration) *wsMicrophone {
	return &wsMicrophone{
		out:     out,
		log:     logger,
		timeout: timeout,
		replies: make(chan micReply, 1),
	}
}

func (m *wsMicrophone) Open(ctx context.Context) (session.Capture, error) {
	select {
	case <-m.replies:
	default:
	}

	if err := m.out.send(voice.MicRequestMessage{Type: voice.ServerMicRequest, SampleRate: audio.InputSampleRate}); err != nil {
		return nil, err
	}

	var reply micReply
	select {
	case reply = <-m.replies:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.timeout):
		return nil, voice.ErrMicTimeout
	}

	if !reply.granted {
		return nil, session.ErrPermissionDenied
	}

	rate := reply.sampleRate
	if rate == 0 {
		rate = audio.InputSampleRate
	}
	resampler, err := audio.NewResampler(rate, audio.InputSampleRate)
	if err != nil {
		return nil, err
	}

	capture := &wsCapture{
		frames:    make(chan []float32, 64),
		resampler: resampler,
		log:       m.log,
	}
	capture.onClose = func() {
		m.mu.Lock()
		if m.current == capture {
			m.current = nil
		}
		m.mu.Unlock()
	}

	m.mu.Lock()
	previous := m.current
	m.current = capture
	m.mu.Unlock()

	if previous != nil {
		_ = previous.Close()
	}

	return capture, nil
}

func (m *wsMicrophone) deliver(r micReply) {
	select {
	case m.replies <- r:
	default:
	}
}

var errNoCapture = errors.New("microphone is not open")

func (m *wsMicrophone) push(samples []float32) error {
	m.mu.Lock()
	capture := m.current
	m.mu.Unlock()

	if capture == nil {
		return errNoCapture
	}
	return capture.push(samples)
}

type wsCapture struct {
	frames    chan []float32
	resampler *audio.Resampler
	log       *logrus.Logger
	onClose   func()

	mu     sync.Mutex
	closed bool
}

func (c *wsCapture) Frames() <-chan []float32 {
	return c.frames
}

// push drops the frame when the stream falls behind; live input has no
// delivery guarantee.
func (c *wsCapture) push(samples []float32) error {
	frame, err := c.resampler.Process(samples)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errNoCapture
	}

	select {
	case c.frames <- frame:
	default:
		c.log.WithFields(log.Fields{
			"samples": len(frame),
		}).Debug("dropping microphone frame")
	}
	return nil
}

func (c *wsCapture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.frames)
	c.mu.Unlock()

	if c.onClose != nil {
		c.onClose()
	}
	return nil
}

package voiceHandler

import (
	"Focus2026/internal/api/voice"
	"Focus2026/internal/api/voice/session"
	"Focus2026/pkg/audio"
	"context"
	"errors"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
)

const maxReadTimeout = 90 * time.Second

func (h *VoiceHandler) handleVoiceWebSocket(c *websocket.Conn) {
	h.log.Info("Voice device WebSocket client connected")
	defer h.log.Info("Voice device WebSocket client disconnected")

	out := &deviceConn{conn: c}
	mic := newWSMicrophone(out, h.log, h.micTimeout)
	speaker := newWSSpeaker(out)

	sess := h.voiceService.NewSession(mic, speaker, func(ev session.Event) {
		h.forwardEvent(out, ev)
	})
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return c.SetReadDeadline(time.Now().Add(maxReadTimeout))
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Errorf("Voice WebSocket error: %v", err)
			}
			break
		}

		switch messageType {
		case websocket.BinaryMessage:
			samples, err := audio.Float32FromBytes(message)
			if err != nil {
				h.sendError(out, err)
				continue
			}
			if err := mic.push(samples); err != nil && !errors.Is(err, errNoCapture) {
				h.sendError(out, err)
			}
		case websocket.TextMessage:
			h.handleClientMessage(ctx, out, mic, sess, message)
		default:
			h.log.Warnf("Received unexpected message type: %d", messageType)
		}
	}
}

func (h *VoiceHandler) handleClientMessage(ctx context.Context, out *deviceConn, mic *wsMicrophone, sess *session.Session, raw []byte) {
	var msg voice.ClientMessage
	if err := jsoniter.Unmarshal(raw, &msg); err != nil {
		h.sendError(out, voice.ErrInvalidMessage)
		return
	}
	if err := h.validator.Struct(msg); err != nil {
		h.sendError(out, voice.ErrInvalidMessage)
		return
	}

	switch msg.Type {
	case voice.ClientStart:
		// A missing key is already reported through the session's error event.
		if err := sess.Start(ctx); err != nil && !errors.Is(err, session.ErrCredentialMissing) {
			h.sendError(out, err)
		}
	case voice.ClientStop:
		sess.Stop()
	case voice.ClientMic:
		mic.deliver(micReply{granted: msg.Granted, sampleRate: msg.SampleRate})
	case voice.ClientMicFrame:
		data, err := audio.Decode(msg.Data)
		if err != nil {
			h.sendError(out, err)
			return
		}
		samples, err := audio.PCM16ToFloat32(data)
		if err != nil {
			h.sendError(out, err)
			return
		}
		if err := mic.push(samples); err != nil && !errors.Is(err, errNoCapture) {
			h.sendError(out, err)
		}
	}
}

func (h *VoiceHandler) forwardEvent(out *deviceConn, ev session.Event) {
	var msg interface{}

	switch ev.Type {
	case session.EventState:
		msg = voice.StateMessage{Type: voice.ServerState, State: string(ev.State)}
	case session.EventTranscript:
		msg = voice.TranscriptMessage{Type: voice.ServerTranscript, Text: ev.Text, Transcript: ev.Transcript}
	case session.EventInputTranscript:
		msg = voice.TranscriptMessage{Type: voice.ServerInputTranscript, Text: ev.Text}
	case session.EventInterrupted:
		msg = voice.SimpleMessage{Type: voice.ServerInterrupted}
	case session.EventError:
		h.sendError(out, ev.Err)
		return
	default:
		return
	}

	if err := out.send(msg); err != nil {
		h.log.Debugf("Dropping voice event %s: %v", ev.Type, err)
	}
}

func (h *VoiceHandler) sendError(out *deviceConn, err error) {
	if sendErr := out.send(voice.ErrorMessage{
		Type:  voice.ServerError,
		Error: err.Error(),
		Code:  voice.ErrorCode(err),
	}); sendErr != nil {
		h.log.Debugf("Dropping voice error %v: %v", err, sendErr)
	}
}

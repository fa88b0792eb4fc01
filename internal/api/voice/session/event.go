package session

import (
	"context"
	"strings"

	"Focus2026/pkg/gemini"
	"Focus2026/pkg/playback"
)

type EventType string

const (
	EventState           EventType = "state"
	EventTranscript      EventType = "transcript"
	EventInputTranscript EventType = "input_transcript"
	EventError           EventType = "error"
	EventAudioScheduled  EventType = "audio_scheduled"
	EventInterrupted     EventType = "interrupted"
)

// Event is emitted from the session loop, one at a time and in order.
type Event struct {
	Type       EventType
	State      State
	Text       string
	Transcript string
	Err        error
	Segment    playback.Segment
}

type inboundKind int

const (
	kindStart inboundKind = iota
	kindStop
	kindOpened
	kindFailed
	kindMessage
	kindEnded
	kindStreamClosed
)

type inbound struct {
	kind       inboundKind
	generation int64

	ctx     context.Context
	reply   chan error
	done    chan struct{}
	stream  Stream
	capture Capture
	msg     *gemini.ServerMessage
	err     error
	id      int64
}

// joinTranscript mirrors how fragments were shown: each one preceded by a space.
func joinTranscript(parts []string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	return b.String()
}

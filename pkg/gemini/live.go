package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"Focus2026/pkg/audio"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// ServerMessage is the part of a live server message the voice session reads.
type ServerMessage struct {
	OutputTranscript string
	InputTranscript  string
	Audio            []byte
	Interrupted      bool
	TurnComplete     bool
}

// LiveStream is one open live connection.
type LiveStream interface {
	Send(blob audio.Blob) error
	Receive() (*ServerMessage, error)
	Close() error
}

var _ LiveStream = (*LiveSession)(nil)

type LiveSession struct {
	session *genai.Session

	closeOnce sync.Once
	closeErr  error
}

func (g *geminiClient) Connect(ctx context.Context, systemInstruction string) (LiveStream, error) {
	client, err := g.genai(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &genai.LiveConnectConfig{
		ResponseModalities:       []genai.Modality{genai.ModalityAudio},
		SpeechConfig:             g.speechConfig(),
		SystemInstruction:        genai.NewContentFromText(systemInstruction, genai.RoleUser),
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
	}

	session, err := client.Live.Connect(ctx, g.cfg.LiveModel, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini live connect: %w", err)
	}

	return &LiveSession{session: session}, nil
}

// Send forwards one microphone blob. The blob carries base64 text on the
// wire; the SDK wants the raw bytes back.
func (s *LiveSession) Send(blob audio.Blob) error {
	data, err := audio.Decode(blob.Data)
	if err != nil {
		return err
	}

	return s.session.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: data, MIMEType: blob.MIMEType},
	})
}

// Receive blocks for the next server message. A normal close of the
// underlying websocket is reported as io.EOF.
func (s *LiveSession) Receive() (*ServerMessage, error) {
	msg, err := s.session.Receive()
	if err != nil {
		return nil, mapCloseError(err)
	}
	return convertMessage(msg), nil
}

func (s *LiveSession) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.session.Close()
	})
	return s.closeErr
}

func convertMessage(msg *genai.LiveServerMessage) *ServerMessage {
	out := &ServerMessage{}
	if msg == nil || msg.ServerContent == nil {
		return out
	}

	content := msg.ServerContent
	if content.OutputTranscription != nil {
		out.OutputTranscript = content.OutputTranscription.Text
	}
	if content.InputTranscription != nil {
		out.InputTranscript = content.InputTranscription.Text
	}
	if content.ModelTurn != nil && len(content.ModelTurn.Parts) > 0 {
		if part := content.ModelTurn.Parts[0]; part != nil && part.InlineData != nil {
			out.Audio = part.InlineData.Data
		}
	}
	out.Interrupted = content.Interrupted
	out.TurnComplete = content.TurnComplete

	return out
}

func mapCloseError(err error) error {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		switch closeErr.Code {
		case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived:
			return io.EOF
		}
	}
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	return err
}

package voiceService

import (
	"Focus2026/internal/api/voice"
	"Focus2026/internal/api/voice/session"
	"Focus2026/internal/entity"
	"Focus2026/pkg/log"
	"context"
	"strings"
	"time"
)

func (s *voiceService) NewSession(mic session.Microphone, speaker session.Speaker, onEvent func(session.Event)) *session.Session {
	rec := &sessionRecorder{service: s}

	return session.New(session.Config{
		Dialer:            geminiDialer{client: s.gemini},
		Microphone:        mic,
		Speaker:           speaker,
		SystemInstruction: s.roadmap.SystemInstruction(),
		Log:               s.log,
		OnEvent: func(ev session.Event) {
			rec.observe(ev)
			if onEvent != nil {
				onEvent(ev)
			}
		},
	})
}

func (s *voiceService) Status() voice.StatusResponse {
	cfg := s.gemini.Config()
	return voice.StatusResponse{
		ActiveSessions:       s.active.Load(),
		CredentialConfigured: s.gemini.HasCredential(),
		Model:                cfg.LiveModel,
		VoiceName:            cfg.VoiceName,
	}
}

func (s *voiceService) GetHistory(ctx context.Context, page, limit int) ([]entity.VoiceTranscript, int, error) {
	client, err := s.voiceRepo.NewClient(false)
	if err != nil {
		return nil, 0, err
	}

	return client.Transcripts.ListTranscripts(ctx, limit, (page-1)*limit)
}

// sessionRecorder counts active sessions and stores the agent transcript
// when a session that reached Active goes back to Idle. It only sees events
// from one session loop, so it needs no locking.
type sessionRecorder struct {
	service    *voiceService
	active     bool
	startedAt  time.Time
	transcript string
}

func (r *sessionRecorder) observe(ev session.Event) {
	switch ev.Type {
	case session.EventTranscript:
		r.transcript = ev.Transcript
	case session.EventState:
		switch ev.State {
		case session.StateActive:
			r.active = true
			r.startedAt = time.Now()
			r.transcript = ""
			r.service.active.Add(1)
		case session.StateIdle:
			if !r.active {
				return
			}
			r.active = false
			r.service.active.Add(-1)
			if text := strings.TrimSpace(r.transcript); text != "" {
				go r.service.saveTranscript(text, r.startedAt, time.Now())
			}
		}
	}
}

func (s *voiceService) saveTranscript(text string, startedAt, endedAt time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := log.WithComponent(s.log, "voice")

	id, err := s.utils.NewULIDFromTimestamp(endedAt)
	if err != nil {
		logger.WithFields(log.Fields{"error": err.Error()}).Warn("failed to generate transcript id")
		return
	}

	client, err := s.voiceRepo.NewClient(false)
	if err != nil {
		logger.WithFields(log.Fields{"error": err.Error()}).Warn("failed to open transcript repository")
		return
	}

	err = client.Transcripts.CreateTranscript(ctx, entity.VoiceTranscript{
		ID:         id,
		Transcript: text,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	})
	if err != nil {
		logger.WithFields(log.Fields{"error": err.Error()}).Warn("failed to store voice transcript")
	}
}

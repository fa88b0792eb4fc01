package voiceService

import (
	"Focus2026/internal/api/voice"
	voiceRepository "Focus2026/internal/api/voice/repository"
	"Focus2026/internal/api/voice/session"
	"Focus2026/internal/entity"
	"Focus2026/pkg/gemini"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/utils"
	"context"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type IVoiceService interface {
	NewSession(mic session.Microphone, speaker session.Speaker, onEvent func(session.Event)) *session.Session
	Status() voice.StatusResponse
	GetHistory(ctx context.Context, page, limit int) ([]entity.VoiceTranscript, int, error)
}

type voiceService struct {
	log       *logrus.Logger
	voiceRepo voiceRepository.Repository
	gemini    gemini.IGemini
	roadmap   *roadmap.Roadmap
	utils     utils.IUtils
	active    atomic.Int64
}

func NewVoiceService(
	log *logrus.Logger,
	voiceRepo voiceRepository.Repository,
	geminiClient gemini.IGemini,
	rm *roadmap.Roadmap,
	utils utils.IUtils,
) IVoiceService {
	return &voiceService{
		log:       log,
		voiceRepo: voiceRepo,
		gemini:    geminiClient,
		roadmap:   rm,
		utils:     utils,
	}
}

type geminiDialer struct {
	client gemini.IGemini
}

func (d geminiDialer) HasCredential() bool {
	return d.client.HasCredential()
}

func (d geminiDialer) Dial(ctx context.Context, systemInstruction string) (session.Stream, error) {
	live, err := d.client.Connect(ctx, systemInstruction)
	if err != nil {
		return nil, err
	}
	return live, nil
}

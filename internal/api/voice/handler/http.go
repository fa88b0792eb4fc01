package voiceHandler

import (
	voiceService "Focus2026/internal/api/voice/service"
	"Focus2026/internal/middleware"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
	micTimeout   time.Duration
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
		micTimeout:   30 * time.Second,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	voice := srv.Group("/voice")
	voice.Use(h.middleware.NewTokenMiddleware)

	voice.Get("/status", h.GetStatus)
	voice.Get("/history", h.GetHistory)

	voice.Use("/ws", wsMiddleware)
	voice.Get("/ws", websocket.New(h.handleVoiceWebSocket))
}

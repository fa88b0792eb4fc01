package timerHandler

import (
	timerService "Focus2026/internal/api/timer/service"
	"Focus2026/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TimerHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	timerService timerService.ITimerService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ts timerService.ITimerService,
) *TimerHandler {
	return &TimerHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		timerService: ts,
	}
}

func (h *TimerHandler) Start(srv fiber.Router) {
	timer := srv.Group("/timer")
	timer.Use(h.middleware.NewTokenMiddleware)

	timer.Get("", h.GetTimer)
	timer.Post("/toggle", h.ControlTimer("toggle"))
	timer.Post("/start", h.ControlTimer("start"))
	timer.Post("/pause", h.ControlTimer("pause"))
	timer.Post("/reset", h.ControlTimer("reset"))
	timer.Put("/settings", h.UpdateSettings)
}

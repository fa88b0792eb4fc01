package notificationHandler

import (
	notificationService "Focus2026/internal/api/notification/service"
	"Focus2026/internal/middleware"
	websocketPkg "Focus2026/pkg/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	log                 *logrus.Logger
	validator           *validator.Validate
	middleware          middleware.Middleware
	notificationService notificationService.INotificationService
	hub                 websocketPkg.IHub
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ns notificationService.INotificationService,
	hub websocketPkg.IHub,
) *NotificationHandler {
	return &NotificationHandler{
		log:                 log,
		validator:           validate,
		middleware:          middleware,
		notificationService: ns,
		hub:                 hub,
	}
}

func (h *NotificationHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	notifications := srv.Group("/notifications")
	notifications.Use(h.middleware.NewTokenMiddleware)

	notifications.Get("", h.ListNotifications)
	notifications.Post("", h.CreateNotification)
	notifications.Delete("/:id", h.DeleteNotification)

	notifications.Use("/ws", wsMiddleware)
	notifications.Get("/ws", websocket.New(h.handleEventsWebSocket))
}

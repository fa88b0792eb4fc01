package notificationHandler

import (
	"Focus2026/internal/api/notification"
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/handlerUtil"
	"Focus2026/pkg/log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *NotificationHandler) ListNotifications(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing list notifications request")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, notification.NotificationListResponse{
		Notifications: h.notificationService.List(),
	})
}

func (h *NotificationHandler) CreateNotification(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req notification.CreateNotificationRequest
	if err := ctx.BodyParser(&req); err != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to parse notification request body")
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	n := h.notificationService.Add(c, req.Message, entity.NotificationType(req.Type))

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusCreated, notification.NotificationResponse{Notification: n})
	}
}

func (h *NotificationHandler) DeleteNotification(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	id, err := strconv.ParseInt(ctx.Params("id"), 10, 64)
	if err != nil {
		return errHandler.Handle(ctx, requestID, notification.ErrInvalidID, ctx.Path(), "delete_notification")
	}

	if err := h.notificationService.Remove(c, id); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "delete_notification")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusNoContent, nil)
	}
}

package timerHandler

import (
	"Focus2026/internal/api/timer"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/handlerUtil"
	"Focus2026/pkg/log"
	"Focus2026/pkg/pomodoro"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *TimerHandler) GetTimer(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get timer request")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.timerService.Snapshot())
}

// ControlTimer builds the handler for one of the toggle/start/pause/reset actions.
func (h *TimerHandler) ControlTimer(action string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestID := h.middleware.GetRequestID(ctx)
		c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
		defer cancel()

		errHandler := handlerUtil.New(h.log)

		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"action":     action,
		}).Debug("Processing timer control request")

		var snap pomodoro.Snapshot
		switch action {
		case "toggle":
			snap = h.timerService.Toggle(c)
		case "start":
			snap = h.timerService.Start(c)
		case "pause":
			snap = h.timerService.Pause(c)
		default:
			snap = h.timerService.Reset(c)
		}

		select {
		case <-c.Done():
			return errHandler.HandleRequestTimeout(ctx)
		default:
			return errHandler.HandleSuccess(ctx, fiber.StatusOK, snap)
		}
	}
}

func (h *TimerHandler) UpdateSettings(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req timer.UpdateSettingsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	snap := h.timerService.UpdateSettings(c, req)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, snap)
	}
}

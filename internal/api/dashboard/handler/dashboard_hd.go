package dashboardHandler

import (
	"Focus2026/internal/api/dashboard"
	"Focus2026/internal/entity"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/handlerUtil"
	"Focus2026/pkg/log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *DashboardHandler) GetRoadmap(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.dashboardService.GetRoadmap())
}

func (h *DashboardHandler) GetDashboard(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing get dashboard request")

	state, err := h.dashboardService.GetDashboard(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_dashboard")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, state)
	}
}

func (h *DashboardHandler) ToggleTarget(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	id := ctx.Params("id")

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"target_id":  id,
	}).Debug("Processing toggle target request")

	target, err := h.dashboardService.ToggleTarget(c, id)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "toggle_target")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, target)
	}
}

func (h *DashboardHandler) ToggleChecklistItem(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	index, err := ctx.ParamsInt("index")
	if err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	list := entity.ChecklistList(ctx.Params("list"))

	item, err := h.dashboardService.ToggleChecklistItem(c, list, index)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "toggle_checklist_item")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, item)
	}
}

func (h *DashboardHandler) SetFocusRating(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req dashboard.SetRatingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	rating, err := h.dashboardService.SetFocusRating(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "set_focus_rating")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, rating)
	}
}

func (h *DashboardHandler) GenerateDevotional(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)
	refresh := ctx.QueryBool("refresh", false)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"refresh":    refresh,
	}).Info("Generating devotional")

	res, err := h.dashboardService.GenerateDevotional(c, refresh)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "generate_devotional")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *DashboardHandler) GenerateProgressReport(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 90*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
	}).Info("Generating progress report")

	res, err := h.dashboardService.GenerateProgressReport(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "generate_progress_report")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

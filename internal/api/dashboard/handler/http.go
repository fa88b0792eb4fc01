package dashboardHandler

import (
	dashboardService "Focus2026/internal/api/dashboard/service"
	"Focus2026/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type DashboardHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	dashboardService dashboardService.IDashboardService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ds dashboardService.IDashboardService,
) *DashboardHandler {
	return &DashboardHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		dashboardService: ds,
	}
}

func (h *DashboardHandler) Start(srv fiber.Router) {
	srv.Get("/roadmap", h.middleware.NewTokenMiddleware, h.GetRoadmap)

	dashboard := srv.Group("/dashboard")
	dashboard.Use(h.middleware.NewTokenMiddleware)

	dashboard.Get("", h.GetDashboard)
	dashboard.Patch("/targets/:id/toggle", h.ToggleTarget)
	dashboard.Patch("/checklists/:list/:index/toggle", h.ToggleChecklistItem)
	dashboard.Put("/ratings", h.SetFocusRating)
	dashboard.Post("/devotional", h.GenerateDevotional)
	dashboard.Post("/progress-report", h.GenerateProgressReport)
}

package dashboardHandler

import (
	"Focus2026/internal/api/dashboard"
	dashboardRepository "Focus2026/internal/api/dashboard/repository"
	dashboardService "Focus2026/internal/api/dashboard/service"
	"Focus2026/internal/entity"
	"Focus2026/internal/middleware"
	"Focus2026/pkg/clock"
	"Focus2026/pkg/roadmap"
	"Focus2026/pkg/utils"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type stubGenerator struct {
	credential bool
	text       string
}

func (g stubGenerator) HasCredential() bool { return g.credential }

func (g stubGenerator) GenerateText(context.Context, string) (string, error) {
	return g.text, nil
}

func (g stubGenerator) GenerateSpeech(context.Context, string) ([]byte, error) {
	return make([]byte, 4800), nil
}

func newTestApp(t *testing.T, gen stubGenerator) *fiber.App {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := dashboardService.NewDashboardService(
		logger,
		dashboardRepository.New(nil, logger),
		gen,
		roadmap.Default(),
		utils.New(),
		dashboardService.Config{Clock: clock.NewManual(time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local))},
	)
	if err := svc.Seed(t.Context()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	app := fiber.New()
	New(logger, validator.New(), middleware.New(logger), svc).Start(app.Group("/api/v1"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestDashboardRoutes(t *testing.T) {
	app := newTestApp(t, stubGenerator{})

	var state dashboard.DashboardResponse
	if status := do(t, app, "GET", "/api/v1/dashboard", "", &state); status != fiber.StatusOK {
		t.Fatalf("GET dashboard status = %d", status)
	}
	if len(state.WeeklyTargets) == 0 || len(state.DailyOS) == 0 || len(state.FocusRatings) == 0 {
		t.Fatalf("state = %+v", state)
	}

	var target entity.WeeklyTarget
	path := "/api/v1/dashboard/targets/" + state.WeeklyTargets[0].ID + "/toggle"
	if status := do(t, app, "PATCH", path, "", &target); status != fiber.StatusOK || !target.IsCompleted {
		t.Fatalf("toggle = %d %+v", status, target)
	}

	if status := do(t, app, "PATCH", "/api/v1/dashboard/targets/ghost/toggle", "", nil); status != fiber.StatusNotFound {
		t.Fatalf("toggle ghost status = %d", status)
	}

	var item entity.ChecklistItem
	if status := do(t, app, "PATCH", "/api/v1/dashboard/checklists/daily_os/1/toggle", "", &item); status != fiber.StatusOK || !item.Checked {
		t.Fatalf("checklist toggle = %d %+v", status, item)
	}
	if status := do(t, app, "PATCH", "/api/v1/dashboard/checklists/daily_os/x/toggle", "", nil); status != fiber.StatusBadRequest {
		t.Fatalf("bad index status = %d", status)
	}

	body := `{"title":"` + state.FocusRatings[0].Title + `","rating":5}`
	if status := do(t, app, "PUT", "/api/v1/dashboard/ratings", body, nil); status != fiber.StatusOK {
		t.Fatalf("rating status = %d", status)
	}
	if status := do(t, app, "PUT", "/api/v1/dashboard/ratings", `{"title":"Health","rating":9}`, nil); status != fiber.StatusBadRequest {
		t.Fatalf("invalid rating status = %d", status)
	}

	var rm roadmap.Roadmap
	if status := do(t, app, "GET", "/api/v1/roadmap", "", &rm); status != fiber.StatusOK || rm.Theme == "" {
		t.Fatalf("roadmap = %d %+v", status, rm)
	}
}

func TestOneShotRequests(t *testing.T) {
	if status := do(t, newTestApp(t, stubGenerator{}), "POST", "/api/v1/dashboard/devotional", "", nil); status != fiber.StatusServiceUnavailable {
		t.Fatalf("devotional without key status = %d", status)
	}

	app := newTestApp(t, stubGenerator{credential: true, text: "Nehemiah 6:3"})

	var devotional dashboard.DevotionalResponse
	if status := do(t, app, "POST", "/api/v1/dashboard/devotional?refresh=true", "", &devotional); status != fiber.StatusOK {
		t.Fatalf("devotional status = %d", status)
	}
	if devotional.Devotional != "Nehemiah 6:3" || devotional.Fallback {
		t.Fatalf("devotional = %+v", devotional)
	}

	var report dashboard.ProgressReportResponse
	if status := do(t, app, "POST", "/api/v1/dashboard/progress-report", "", &report); status != fiber.StatusOK {
		t.Fatalf("report status = %d", status)
	}
	if report.Fallback || report.Duration != 0.1 || report.Audio == "" {
		t.Fatalf("report = %+v", report)
	}
}

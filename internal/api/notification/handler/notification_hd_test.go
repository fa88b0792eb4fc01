package notificationHandler

import (
	"Focus2026/internal/api/notification"
	notificationService "Focus2026/internal/api/notification/service"
	"Focus2026/internal/middleware"
	"Focus2026/pkg/clock"
	websocketPkg "Focus2026/pkg/websocket"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func newTestApp(t *testing.T) (*fiber.App, *clock.Manual, notificationService.INotificationService) {
	t.Helper()
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "")

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := websocketPkg.NewHub(logger)
	clk := clock.NewManual(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	svc := notificationService.NewNotificationService(logger, hub, notificationService.Config{Clock: clk})

	app := fiber.New()
	New(logger, validator.New(), middleware.New(logger), svc, hub).Start(app.Group("/api/v1"))
	return app, clk, svc
}

func TestCreateListDelete(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/notifications", strings.NewReader(`{"message":"SHIP THE MVP","type":"info"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}

	var created notification.NotificationResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/notifications", nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list notification.NotificationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Notifications) != 1 || list.Notifications[0].Message != "SHIP THE MVP" {
		t.Fatalf("list = %+v", list)
	}

	path := "/api/v1/notifications/" + strconv.FormatInt(created.Notification.ID, 10)
	resp, err = app.Test(httptest.NewRequest("DELETE", path, nil))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", path, nil))
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateValidation(t *testing.T) {
	app, _, _ := newTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing message", body: `{"type":"alert"}`},
		{name: "unknown type", body: `{"message":"x","type":"panic"}`},
		{name: "not json", body: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/notifications", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}

	resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/notifications/abc", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", resp.StatusCode)
	}
}

func TestEventsWebSocket(t *testing.T) {
	app, clk, svc := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/api/v1/notifications/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() map[string]interface{} {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		var ev map[string]interface{}
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read: %v", err)
		}
		return ev
	}

	if ev := read(); ev["type"] != notification.EventSnapshot {
		t.Fatalf("first event = %v, want snapshot", ev["type"])
	}

	svc.Add(t.Context(), "ALERT: are you shipping?", "alert")
	if ev := read(); ev["type"] != notification.EventAdded {
		t.Fatalf("event = %v, want %s", ev["type"], notification.EventAdded)
	}
	if ev := read(); ev["type"] != websocketPkg.EventCue {
		t.Fatalf("event = %v, want cue", ev["type"])
	}

	clk.Advance(8 * time.Second)
	if ev := read(); ev["type"] != notification.EventRemoved {
		t.Fatalf("event = %v, want %s", ev["type"], notification.EventRemoved)
	}
}

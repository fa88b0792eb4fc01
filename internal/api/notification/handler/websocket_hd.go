package notificationHandler

import (
	"Focus2026/internal/api/notification"
	websocketPkg "Focus2026/pkg/websocket"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	maxReadTimeout = 90 * time.Second
	writeTimeout   = 5 * time.Second
	subscriberBuf  = 32
)

// handleEventsWebSocket streams hub events to a device. The current list is
// sent first so a late subscriber does not miss live entries.
func (h *NotificationHandler) handleEventsWebSocket(c *websocket.Conn) {
	h.log.Info("Notification WebSocket client connected")
	defer h.log.Info("Notification WebSocket client disconnected")

	events, unsubscribe := h.hub.Subscribe(subscriberBuf)
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		c.SetPingHandler(func(data string) error {
			if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeTimeout)); err != nil {
				h.log.Errorf("Error sending pong: %v", err)
			}
			return c.SetReadDeadline(time.Now().Add(maxReadTimeout))
		})

		for {
			if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
				return
			}
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Errorf("Notification WebSocket error: %v", err)
				}
				return
			}
		}
	}()

	snapshot := websocketPkg.Event{
		Type: notification.EventSnapshot,
		Data: notification.NotificationListResponse{Notifications: h.notificationService.List()},
	}
	if err := h.write(c, snapshot); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(c, ev); err != nil {
				h.log.Debugf("Error writing %s event: %v", ev.Type, err)
				return
			}
		}
	}
}

func (h *NotificationHandler) write(c *websocket.Conn, ev websocketPkg.Event) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.WriteJSON(ev)
}

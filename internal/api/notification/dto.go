package notification

import "Focus2026/internal/entity"

// Events pushed to device subscribers.
const (
	EventAdded    = "notification.added"
	EventRemoved  = "notification.removed"
	EventSnapshot = "notification.snapshot"
)

type CreateNotificationRequest struct {
	Message string `json:"message" validate:"required,max=280"`
	Type    string `json:"type" validate:"omitempty,oneof=alert info success"`
}

type NotificationResponse struct {
	Notification entity.Notification `json:"notification"`
}

type NotificationListResponse struct {
	Notifications []entity.Notification `json:"notifications"`
}

type RemovedPayload struct {
	ID int64 `json:"id"`
}

package entity

import "time"

type NotificationType string

const (
	NotificationAlert   NotificationType = "alert"
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
)

// Notification ids are creation timestamps in milliseconds, bumped by one
// when two entries land in the same millisecond.
type Notification struct {
	ID        int64            `json:"id"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	CreatedAt time.Time        `json:"created_at"`
}

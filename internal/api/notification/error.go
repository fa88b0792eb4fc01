package notification

import (
	"Focus2026/pkg/response"
	"net/http"
)

var (
	ErrNotificationNotFound = response.NewError(http.StatusNotFound, "notification not found")
	ErrInvalidID            = response.NewError(http.StatusBadRequest, "notification id must be an integer")
)

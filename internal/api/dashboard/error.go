package dashboard

import (
	"Focus2026/pkg/response"
	"net/http"
)

var (
	ErrTargetNotFound        = response.NewError(http.StatusNotFound, "weekly target not found")
	ErrChecklistItemNotFound = response.NewError(http.StatusNotFound, "checklist item not found")
	ErrUnknownFocusArea      = response.NewError(http.StatusNotFound, "focus area not found")
	ErrInvalidRating         = response.NewError(http.StatusBadRequest, "rating must be between 1 and 5")
	ErrCredentialMissing     = response.NewError(http.StatusServiceUnavailable, "generative API key is not configured")
	ErrRequestInFlight       = response.NewError(http.StatusConflict, "a request of this kind is already in progress")
)

package voice

import (
	"errors"
	"net/http"

	"Focus2026/internal/api/voice/session"
	"Focus2026/pkg/audio"
	"Focus2026/pkg/response"
)

var (
	ErrInvalidMessage  = response.NewError(http.StatusBadRequest, "invalid voice message")
	ErrMicNotRequested = response.NewError(http.StatusConflict, "microphone was not requested")
	ErrMicTimeout      = response.NewError(http.StatusRequestTimeout, "timed out waiting for microphone")
)

// ErrorCode names an error for device clients.
func ErrorCode(err error) string {
	var formatErr *audio.FormatError
	var decodeErr *audio.DecodeError

	switch {
	case errors.Is(err, session.ErrCredentialMissing):
		return "CREDENTIAL_MISSING"
	case errors.Is(err, session.ErrPermissionDenied):
		return "PERMISSION_DENIED"
	case errors.Is(err, session.ErrConnectionFailed):
		return "CONNECTION_FAILED"
	case errors.Is(err, session.ErrStreamError):
		return "STREAM_ERROR"
	case errors.Is(err, session.ErrAlreadyStarted):
		return "ALREADY_STARTED"
	case errors.As(err, &formatErr):
		return "FORMAT_ERROR"
	case errors.As(err, &decodeErr):
		return "DECODE_ERROR"
	case errors.Is(err, ErrInvalidMessage):
		return "INVALID_MESSAGE"
	default:
		return "INTERNAL_ERROR"
	}
}

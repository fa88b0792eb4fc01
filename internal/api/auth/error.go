package auth

import (
	"Focus2026/pkg/response"
	"net/http"
)

var (
	ErrInvalidPassphrase = response.NewError(http.StatusUnauthorized, "passphrase is wrong")
	ErrAuthNotConfigured = response.NewError(http.StatusServiceUnavailable, "login is not configured")
)

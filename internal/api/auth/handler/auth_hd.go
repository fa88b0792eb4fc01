package authHandler

import (
	"Focus2026/internal/api/auth"
	"Focus2026/internal/middleware"
	contextPkg "Focus2026/pkg/context"
	"Focus2026/pkg/handlerUtil"
	jwtPkg "Focus2026/pkg/jwt"
	"Focus2026/pkg/log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *AuthHandler) HandleLogin(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req auth.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"client_ip":  ctx.IP(),
	}).Debug("Processing login request")

	res, err := h.authService.Login(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "login")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *AuthHandler) HandleMe(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)

	subject, _ := jwtPkg.GetOwner(ctx)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, auth.MeResponse{
		Subject:     subject,
		AuthEnabled: os.Getenv(middleware.AccessTokenSecret) != "",
	})
}

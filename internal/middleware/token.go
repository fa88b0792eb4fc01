package middleware

import (
	jwtPkg "Focus2026/pkg/jwt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

const (
	AccessTokenSecret = "JWT_ACCESS_TOKEN_SECRET"
	OwnerKey          = "owner"
)

type tokenMiddleware struct {
	secretEnvKey string
}

func newTokenMiddleware() *tokenMiddleware {
	return &tokenMiddleware{secretEnvKey: AccessTokenSecret}
}

func (t *tokenMiddleware) enabled() bool {
	return os.Getenv(t.secretEnvKey) != ""
}

// NewTokenMiddleware lets every request through when no signing secret is
// configured, which is how the dashboard runs on a single trusted machine.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	if !m.token.enabled() {
		return ctx.Next()
	}

	unauthorized := func(reason string) error {
		m.log.WithFields(logrus.Fields{
			"path":      ctx.Path(),
			"method":    ctx.Method(),
			"client_ip": ctx.IP(),
			"error":     reason,
		}).Warn("Token check failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized, access token invalid or expired",
			"code":  "UNAUTHORIZED",
		})
	}

	userToken, err := jwtPkg.VerifyTokenHeader(ctx, m.token.secretEnvKey)
	if err != nil {
		return unauthorized(err.Error())
	}

	claims, ok := userToken.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized("invalid token claims")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return unauthorized("token subject missing")
	}

	ctx.Locals(OwnerKey, subject)

	m.log.WithFields(logrus.Fields{
		"path":  ctx.Path(),
		"owner": subject,
	}).Debug("Authentication successful")
	return ctx.Next()
}

package jwtPkg

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerify(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "s3cret")

	token, exp, err := Sign(map[string]interface{}{"sub": "gideon"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Fatalf("exp = %d is not in the future", exp)
	}

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "header", target: "/", header: "Bearer " + token, want: fiber.StatusOK},
		{name: "query", target: "/?token=" + token, want: fiber.StatusOK},
		{name: "missing", target: "/", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", target: "/", header: "Basic " + token, want: fiber.StatusUnauthorized},
		{name: "garbage", target: "/", header: "Bearer nope", want: fiber.StatusUnauthorized},
	}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		tok, err := VerifyTokenHeader(c, "JWT_ACCESS_TOKEN_SECRET")
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		claims := tok.Claims.(jwt.MapClaims)
		return c.SendString(claims["sub"].(string))
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSignWithoutSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "")
	if _, _, err := Sign(nil, time.Minute); err == nil {
		t.Fatal("expected error without secret")
	}
}

package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type stubVerifier map[string]uint

func (s stubVerifier) VerifyToken(token string) (uint, error) {
	id, ok := s[token]
	if !ok {
		return 0, errors.New("bad token")
	}
	return id, nil
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireAdmin(stubVerifier{"good": 7}), func(c *fiber.Ctx) error {
		if AdminID(c) != 7 {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer good", fiber.StatusOK},
		{"no header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"empty token", "Bearer ", fiber.StatusUnauthorized},
		{"unknown token", "Bearer other", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestAdminIDOutsideMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if AdminID(c) != 0 {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

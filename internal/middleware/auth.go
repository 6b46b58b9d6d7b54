package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const adminIDKey = "admin_id"

// TokenVerifier resolves a bearer token to an administrator id.
type TokenVerifier interface {
	VerifyToken(token string) (uint, error)
}

// RequireAdmin rejects requests without a valid "Authorization: Bearer"
// token and stores the administrator id for AdminID.
func RequireAdmin(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token de autorizacion requerido")
		}

		id, err := verifier.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Token de autorizacion invalido")
		}

		c.Locals(adminIDKey, id)
		return c.Next()
	}
}

// AdminID returns the id stored by RequireAdmin, or 0 outside it.
func AdminID(c *fiber.Ctx) uint {
	id, _ := c.Locals(adminIDKey).(uint)
	return id
}

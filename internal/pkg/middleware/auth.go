package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

// RequireAuth ensures a logged-in session and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireRole ensures the session user holds one of the given roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !usercontext.IsLoggedIn(c) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "login required",
			})
		}
		if !usercontext.HasRole(c, roles...) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "insufficient permissions",
			})
		}
		return c.Next()
	}
}

// RequireEditor admits editors and admins.
func RequireEditor(c *fiber.Ctx) error {
	return RequireRole(models.ROLE_EDITOR, models.ROLE_ADMIN)(c)
}

// RequireAdmin admits admins only.
func RequireAdmin(c *fiber.Ctx) error {
	return RequireRole(models.ROLE_ADMIN)(c)
}

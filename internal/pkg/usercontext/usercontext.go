package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// UserContext represents the complete user context for a request
type UserContext struct {
	UserID             uint   `json:"user_id"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	SubscriptionStatus string `json:"subscription_status"`
	IsLoggedIn         bool   `json:"is_logged_in"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals("USER_CONTEXT"); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetUserName returns the current user's display name, or empty string if not logged in
func GetUserName(c *fiber.Ctx) string {
	return GetUserContext(c).Name
}

// GetRole returns the current user's role, or empty string if not logged in
func GetRole(c *fiber.Ctx) string {
	return GetUserContext(c).Role
}

// HasRole reports whether the current user holds one of the given roles.
func HasRole(c *fiber.Ctx, roles ...string) bool {
	ctx := GetUserContext(c)
	if !ctx.IsLoggedIn {
		return false
	}
	for _, role := range roles {
		if ctx.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return HasRole(c, models.ROLE_ADMIN)
}

// IsEditor checks if the current user may manage content
func IsEditor(c *fiber.Ctx) bool {
	return HasRole(c, models.ROLE_EDITOR, models.ROLE_ADMIN)
}

package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

// HandleGetProfile returns the authenticated user's account.
func HandleGetProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonNotFound(c, "account not found")
	}

	return c.JSON(fiber.Map{
		"id":                    user.ID,
		"name":                  user.Name,
		"email":                 user.Email,
		"role":                  user.Role,
		"email_verified":        user.IsEmailVerified(),
		"subscription_status":   user.SubscriptionStatus,
		"subscription_end_date": formatTimePtr(user.SubscriptionEndDate),
		"created_at":            user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":         formatTimePtr(user.LastLoginAt),
	})
}

// HandleUpdateProfile changes the account's display name.
func HandleUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if len(name) < 3 {
		return jsonBadRequest(c, "name must be at least 3 characters")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return jsonNotFound(c, "account not found")
	}

	user.Name = name
	if err := repo.Update(user); err != nil {
		return jsonInternalError(c, "failed to update profile")
	}
	_ = session.SetSessionValue(c, usercontext.KeyUserName, user.Name)

	return c.JSON(fiber.Map{"id": user.ID, "name": user.Name})
}

// HandleChangePassword verifies the current password before setting a new one.
func HandleChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}
	if len(req.NewPassword) < 6 {
		return jsonBadRequest(c, "new password must be at least 6 characters")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return jsonNotFound(c, "account not found")
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return jsonError(c, fiber.StatusForbidden, "invalid_password", "current password is incorrect")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return jsonInternalError(c, "failed to hash password")
	}
	if err := repo.Update(user); err != nil {
		return jsonInternalError(c, "failed to update password")
	}

	return c.JSON(fiber.Map{"message": "password changed"})
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

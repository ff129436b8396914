package controllers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/mail"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleAuthRegister creates a new unverified account and mails the
// activation link.
func HandleAuthRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user, err := models.CreateUser(strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		return jsonBadRequest(c, "name, email and a password of at least 6 characters are required")
	}
	if err := user.GenerateActivationToken(); err != nil {
		return jsonInternalError(c, "failed to create activation token")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(req.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return jsonInternalError(c, "failed to check email")
	}

	if err := repo.Create(user); err != nil {
		// The unique index catches registrations that raced past the
		// read above.
		if isDuplicateKey(err) {
			return jsonError(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
		}
		return jsonInternalError(c, "failed to create account")
	}

	if err := mail.SendVerificationEmail(user.Email, user.Name, user.ActivationToken); err != nil {
		// The account exists; verification can be re-sent later.
		log.Printf("verification mail to %s failed: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      user.ID,
		"email":   user.Email,
		"message": "account created, check your inbox to verify your email",
	})
}

// HandleAuthLogin verifies credentials and establishes a session.
func HandleAuthLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !user.CheckPassword(req.Password) {
		// One message for both cases so the endpoint does not leak which
		// emails have accounts.
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	}
	if !user.IsEmailVerified() {
		return jsonError(c, fiber.StatusForbidden, "email_not_verified", "verify your email before logging in")
	}
	if user.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "account_disabled", "this account has been disabled")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternalError(c, "failed to open session")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	sess.Set(usercontext.KeyUserName, user.Name)
	sess.Set(usercontext.KeyUserRole, user.Role)
	if err := sess.Save(); err != nil {
		return jsonInternalError(c, "failed to save session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Printf("failed to stamp last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// HandleAuthLogout destroys the session.
func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternalError(c, "failed to open session")
	}
	if err := sess.Destroy(); err != nil {
		return jsonInternalError(c, "failed to destroy session")
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleVerifyEmail consumes an activation token.
func HandleVerifyEmail(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return jsonBadRequest(c, "missing token")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		return jsonBadRequest(c, "invalid or expired token")
	}
	if !user.IsActivationTokenValid(token) {
		return jsonBadRequest(c, "invalid or expired token")
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	user.ActivationToken = ""
	user.ActivationSentAt = nil
	if err := repo.Update(user); err != nil {
		return jsonInternalError(c, "failed to verify email")
	}

	if err := mail.SendWelcomeEmail(user.Email, user.Name); err != nil {
		log.Printf("welcome mail to %s failed: %v", user.Email, err)
	}

	return c.JSON(fiber.Map{"message": "email verified"})
}

// HandleResendVerification issues a fresh activation token for an
// unverified account. The response is identical whether or not the email
// exists.
func HandleResendVerification(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	neutral := fiber.Map{"message": "if the account exists, a new verification email was sent"}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || user.IsEmailVerified() {
		return c.JSON(neutral)
	}

	if err := user.GenerateActivationToken(); err != nil {
		return jsonInternalError(c, "failed to create activation token")
	}
	if err := repo.Update(user); err != nil {
		return jsonInternalError(c, "failed to update account")
	}
	if err := mail.SendVerificationEmail(user.Email, user.Name, user.ActivationToken); err != nil {
		log.Printf("verification mail to %s failed: %v", user.Email, err)
	}
	return c.JSON(neutral)
}

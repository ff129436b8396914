package controllers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

// HandleOAuthBegin redirects to the provider's consent screen.
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return jsonBadRequest(c, fmt.Sprintf("OAuth failed: %v", err))
	}

	repo := repository.GetGlobalFactory().GetUserRepository()

	var appUser *models.User
	account, err := repo.GetProviderAccount(u.Provider, u.UserID)
	switch {
	case err == nil:
		account.AccessToken = u.AccessToken
		account.RefreshToken = u.RefreshToken
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			account.ExpiresAt = &t
		} else {
			account.ExpiresAt = nil
		}
		if err := repo.UpdateProviderAccount(account); err != nil {
			return jsonInternalError(c, "failed to refresh provider tokens")
		}

		appUser, err = repo.GetByID(account.UserID)
		if err != nil {
			return jsonInternalError(c, "linked account not found")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Match by email first so a provider login attaches to an existing
		// account instead of creating a duplicate.
		if u.Email != "" {
			appUser, _ = repo.GetByEmail(u.Email)
		}
		if appUser == nil {
			// Password is a random placeholder; provider logins never use it.
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			hash, _ := models.HashPassword(placeholder)
			email := u.Email
			if email == "" {
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			now := time.Now()
			appUser = &models.User{
				Name:               firstNonEmpty(u.Name, u.NickName, u.Email, "User"),
				Email:              email,
				Password:           hash,
				Role:               models.ROLE_USER,
				Status:             models.STATUS_ACTIVE,
				SubscriptionStatus: models.SubscriptionFree,
				// The provider vouched for the address.
				EmailVerifiedAt: &now,
			}
			if err := repo.Create(appUser); err != nil {
				return jsonInternalError(c, "failed to create account")
			}
		}

		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		account = &models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			AccessToken:    u.AccessToken,
			RefreshToken:   u.RefreshToken,
			ExpiresAt:      exp,
		}
		if err := repo.LinkProviderAccount(account); err != nil {
			return jsonInternalError(c, "failed to link provider account")
		}

	default:
		return jsonInternalError(c, "provider account lookup failed")
	}

	if appUser.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "account_disabled", "this account has been disabled")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternalError(c, "failed to open session")
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	sess.Set(usercontext.KeyUserName, appUser.Name)
	sess.Set(usercontext.KeyUserRole, appUser.Role)
	if err := sess.Save(); err != nil {
		return jsonInternalError(c, "failed to save session")
	}

	now := time.Now()
	appUser.LastLoginAt = &now
	_ = repo.Update(appUser)

	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session alongside the app session.
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	return HandleAuthLogout(c)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/database"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

// UserContextMiddleware resolves the session into a request-scoped user
// context so controllers never read the session store directly.
func UserContextMiddleware(c *fiber.Ctx) error {
	// Goth uses its own fiber session store on the OAuth routes; skipping
	// them avoids cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	anonymous := usercontext.UserContext{IsLoggedIn: false}

	store := session.GetSessionStore()
	if store == nil {
		c.Locals("USER_CONTEXT", anonymous)
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		c.Locals("USER_CONTEXT", anonymous)
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		c.Locals("USER_CONTEXT", anonymous)
		return c.Next()
	}

	name := session.GetSessionValue(c, usercontext.KeyUserName)
	role := session.GetSessionValue(c, usercontext.KeyUserRole)

	// Role and entitlement changes made by an admin or a webhook must take
	// effect on the next request, so both are refreshed from the database.
	subscription := models.SubscriptionFree
	if db := database.GetDB(); db != nil {
		var user models.User
		if err := db.First(&user, userID).Error; err == nil {
			if user.Status == models.STATUS_DISABLED {
				// Disabling an account kills its existing sessions too.
				_ = sess.Destroy()
				c.Locals("USER_CONTEXT", anonymous)
				return c.Next()
			}
			role = user.Role
			name = user.Name
			subscription = user.SubscriptionStatus
		} else {
			// The account behind the session is gone.
			_ = sess.Destroy()
			c.Locals("USER_CONTEXT", anonymous)
			return c.Next()
		}
	}

	c.Locals("USER_CONTEXT", usercontext.UserContext{
		UserID:             userID,
		Name:               name,
		Role:               role,
		SubscriptionStatus: subscription,
		IsLoggedIn:         true,
	})

	return c.Next()
}

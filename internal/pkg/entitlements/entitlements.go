package entitlements

import (
	"time"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// IsSubscriber reports whether a status/end-date pair grants access to
// subscriber-only content. The end date must be present and in the future;
// a lapsed end date means the entitlement expired even if no webhook has
// arrived yet to flip the status.
func IsSubscriber(status string, endDate *time.Time, now time.Time) bool {
	if status != models.SubscriptionActive {
		return false
	}
	if endDate == nil {
		return false
	}
	return endDate.After(now)
}

// CanViewRestricted decides access to restricted posts/pages. Editors and
// admins always pass so they can review gated content.
func CanViewRestricted(u *models.User, now time.Time) bool {
	if u == nil {
		return false
	}
	if u.HasRole(models.ROLE_EDITOR, models.ROLE_ADMIN) {
		return true
	}
	return IsSubscriber(u.SubscriptionStatus, u.SubscriptionEndDate, now)
}

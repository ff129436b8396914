package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

const impersonatorSessionKey = "impersonator_id"

// HandleAdminListUsers lists or searches accounts.
func HandleAdminListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		users, err := repo.Search(q)
		if err != nil {
			return jsonInternalError(c, "failed to search users")
		}
		return c.JSON(fiber.Map{"users": users, "total": len(users)})
	}

	offset, limit := parsePagination(c)
	users, err := repo.List(offset, limit)
	if err != nil {
		return jsonInternalError(c, "failed to load users")
	}
	total, err := repo.Count()
	if err != nil {
		return jsonInternalError(c, "failed to count users")
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

// HandleAdminGetUser returns one account.
func HandleAdminGetUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid user id")
	}
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(id)
	if err != nil {
		return jsonNotFound(c, "user not found")
	}
	return c.JSON(user)
}

// HandleAdminUpdateUser edits name, email and role of an account.
func HandleAdminUpdateUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid user id")
	}
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Role   string `json:"role"`
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "user not found")
	}

	if req.Role != "" && !validRole(req.Role) {
		return jsonBadRequest(c, "role must be user, editor or admin")
	}
	if req.Status != "" && !validStatus(req.Status) {
		return jsonBadRequest(c, "status must be active, inactive or disabled")
	}
	if req.Status != "" && req.Status != models.STATUS_ACTIVE && user.ID == usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "self_disable", "you cannot disable your own account")
	}
	// Admins cannot demote themselves; it is too easy to lock everyone out.
	if req.Role != "" && req.Role != models.ROLE_ADMIN && user.ID == usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "self_demotion", "you cannot change your own role")
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		if _, err := repo.GetByEmail(email); err == nil {
			return jsonError(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
		}
		user.Email = email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}

	if err := repo.Update(user); err != nil {
		if isDuplicateKey(err) {
			return jsonError(c, fiber.StatusConflict, "email_taken", "an account with this email already exists")
		}
		return jsonInternalError(c, "failed to update user")
	}
	return c.JSON(user)
}

// HandleAdminSetPassword overwrites an account's password.
func HandleAdminSetPassword(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid user id")
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}
	if len(req.Password) < 6 {
		return jsonBadRequest(c, "password must be at least 6 characters")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "user not found")
	}
	if err := user.SetPassword(req.Password); err != nil {
		return jsonInternalError(c, "failed to hash password")
	}
	if err := repo.Update(user); err != nil {
		return jsonInternalError(c, "failed to update password")
	}
	return c.JSON(fiber.Map{"message": "password updated"})
}

// HandleAdminImpersonate switches the session to the target account while
// remembering the admin so the session can be switched back.
func HandleAdminImpersonate(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid user id")
	}
	adminID := usercontext.GetUserID(c)
	if id == adminID {
		return jsonBadRequest(c, "already logged in as this user")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	target, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "user not found")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternalError(c, "failed to open session")
	}
	sess.Set(impersonatorSessionKey, adminID)
	sess.Set(usercontext.KeyUserID, target.ID)
	sess.Set(usercontext.KeyUserName, target.Name)
	sess.Set(usercontext.KeyUserRole, target.Role)
	if err := sess.Save(); err != nil {
		return jsonInternalError(c, "failed to save session")
	}

	return c.JSON(fiber.Map{"message": "impersonating", "user_id": target.ID, "name": target.Name})
}

// HandleStopImpersonating restores the admin session.
func HandleStopImpersonating(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return jsonInternalError(c, "failed to open session")
	}
	adminID, ok := sess.Get(impersonatorSessionKey).(uint)
	if !ok || adminID == 0 {
		return jsonBadRequest(c, "not impersonating")
	}

	admin, err := repository.GetGlobalFactory().GetUserRepository().GetByID(adminID)
	if err != nil {
		return jsonInternalError(c, "original account no longer exists")
	}

	sess.Delete(impersonatorSessionKey)
	sess.Set(usercontext.KeyUserID, admin.ID)
	sess.Set(usercontext.KeyUserName, admin.Name)
	sess.Set(usercontext.KeyUserRole, admin.Role)
	if err := sess.Save(); err != nil {
		return jsonInternalError(c, "failed to save session")
	}

	return c.JSON(fiber.Map{"message": "impersonation ended", "user_id": admin.ID})
}

// HandleAdminDeleteUser soft-deletes an account.
func HandleAdminDeleteUser(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid user id")
	}
	if id == usercontext.GetUserID(c) {
		return jsonError(c, fiber.StatusForbidden, "self_deletion", "you cannot delete your own account")
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByID(id); err != nil {
		return jsonNotFound(c, "user not found")
	}
	if err := repo.Delete(id); err != nil {
		return jsonInternalError(c, "failed to delete user")
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}

func validRole(role string) bool {
	switch role {
	case models.ROLE_USER, models.ROLE_EDITOR, models.ROLE_ADMIN:
		return true
	}
	return false
}

func validStatus(status string) bool {
	switch status {
	case models.STATUS_ACTIVE, models.STATUS_INACTIVE, models.STATUS_DISABLED:
		return true
	}
	return false
}

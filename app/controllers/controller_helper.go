package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// jsonError writes the uniform error envelope used by every endpoint.
func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func jsonInternalError(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", message)
}

func jsonNotFound(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusNotFound, "not_found", message)
}

func jsonBadRequest(c *fiber.Ctx, message string) error {
	return jsonError(c, fiber.StatusBadRequest, "bad_request", message)
}

// isDuplicateKey reports whether err is a unique-index violation surfaced
// through GORM's translated errors.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// parseIDParam reads a positive numeric :id route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

// parsePagination reads page/per_page query parameters with sane bounds.
func parsePagination(c *fiber.Ctx) (offset, limit int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := c.QueryInt("per_page", 20)
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return (page - 1) * perPage, perPage
}

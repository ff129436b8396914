package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
)

type menuItemRequest struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// HandleListMenu returns the navigation menu ordered by position.
func HandleListMenu(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetMenuRepository()
	items, err := repo.List()
	if err != nil {
		return jsonInternalError(c, "failed to load menu")
	}
	return c.JSON(fiber.Map{"items": items})
}

// HandleCreateMenuItem appends a new navigation entry.
func HandleCreateMenuItem(c *fiber.Ctx) error {
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	item := &models.MenuItem{
		Label:    strings.TrimSpace(req.Label),
		URL:      strings.TrimSpace(req.URL),
		Position: req.Position,
	}
	if err := item.Validate(); err != nil {
		return jsonBadRequest(c, "label and url are required")
	}

	repo := repository.GetGlobalFactory().GetMenuRepository()
	if err := repo.Create(item); err != nil {
		return jsonInternalError(c, "failed to create menu item")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// HandleUpdateMenuItem updates a navigation entry.
func HandleUpdateMenuItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid menu item id")
	}
	var req menuItemRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetMenuRepository()
	item, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "menu item not found")
	}

	item.Label = strings.TrimSpace(req.Label)
	item.URL = strings.TrimSpace(req.URL)
	if req.Position > 0 {
		item.Position = req.Position
	}
	if err := item.Validate(); err != nil {
		return jsonBadRequest(c, "label and url are required")
	}
	if err := repo.Update(item); err != nil {
		return jsonInternalError(c, "failed to update menu item")
	}
	return c.JSON(item)
}

// HandleDeleteMenuItem removes a navigation entry.
func HandleDeleteMenuItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid menu item id")
	}
	repo := repository.GetGlobalFactory().GetMenuRepository()
	if _, err := repo.GetByID(id); err != nil {
		return jsonNotFound(c, "menu item not found")
	}
	if err := repo.Delete(id); err != nil {
		return jsonInternalError(c, "failed to delete menu item")
	}
	return c.JSON(fiber.Map{"message": "menu item deleted"})
}

// HandleReorderMenu rewrites menu positions to the given id order.
func HandleReorderMenu(c *fiber.Ctx) error {
	var req struct {
		OrderedIDs []uint `json:"ordered_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetMenuRepository()
	items, err := repo.List()
	if err != nil {
		return jsonInternalError(c, "failed to load menu")
	}

	order, err := normalizeMenuOrder(req.OrderedIDs, items)
	if err != nil {
		return jsonBadRequest(c, err.Error())
	}
	if err := repo.Reorder(order); err != nil {
		return jsonInternalError(c, "failed to reorder menu")
	}

	items, err = repo.List()
	if err != nil {
		return jsonInternalError(c, "failed to load menu")
	}
	return c.JSON(fiber.Map{"items": items})
}

// normalizeMenuOrder validates the requested order against the existing
// items: ids must exist and may not repeat. Items missing from the request
// keep their relative order after the named ones.
func normalizeMenuOrder(requested []uint, existing []models.MenuItem) ([]uint, error) {
	if len(requested) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "ordered_ids must not be empty")
	}

	known := make(map[uint]bool, len(existing))
	for _, item := range existing {
		known[item.ID] = true
	}

	seen := make(map[uint]bool, len(requested))
	order := make([]uint, 0, len(existing))
	for _, id := range requested {
		if !known[id] {
			return nil, fiber.NewError(fiber.StatusBadRequest, "unknown menu item id in ordered_ids")
		}
		if seen[id] {
			return nil, fiber.NewError(fiber.StatusBadRequest, "duplicate menu item id in ordered_ids")
		}
		seen[id] = true
		order = append(order, id)
	}

	for _, item := range existing {
		if !seen[item.ID] {
			order = append(order, item.ID)
		}
	}
	return order, nil
}

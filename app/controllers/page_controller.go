package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/entitlements"
)

type pageRequest struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	Status       string `json:"status"`
	IsRestricted bool   `json:"is_restricted"`
}

// HandleListPages returns all published pages.
func HandleListPages(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPageRepository()
	pages, err := repo.List(false)
	if err != nil {
		return jsonInternalError(c, "failed to load pages")
	}

	viewer := currentUser(c)
	now := time.Now()
	items := make([]fiber.Map, 0, len(pages))
	for i := range pages {
		items = append(items, pageResponse(&pages[i], viewer, now))
	}
	return c.JSON(fiber.Map{"pages": items})
}

// HandleGetPageBySlug returns one published page with restricted gating.
func HandleGetPageBySlug(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPageRepository()
	page, err := repo.GetBySlug(c.Params("slug"))
	if err != nil || !page.IsPublished() {
		return jsonNotFound(c, "page not found")
	}
	return c.JSON(pageResponse(page, currentUser(c), time.Now()))
}

func pageResponse(page *models.Page, viewer *models.User, now time.Time) fiber.Map {
	resp := fiber.Map{
		"id":            page.ID,
		"title":         page.Title,
		"slug":          page.Slug,
		"status":        page.Status,
		"is_restricted": page.IsRestricted,
	}
	if page.IsRestricted && !entitlements.CanViewRestricted(viewer, now) {
		resp["content"] = ""
		resp["content_locked"] = true
		return resp
	}
	resp["content"] = page.Content
	return resp
}

// HandleEditorListPages returns all pages, drafts included.
func HandleEditorListPages(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPageRepository()
	pages, err := repo.List(true)
	if err != nil {
		return jsonInternalError(c, "failed to load pages")
	}
	return c.JSON(fiber.Map{"pages": pages})
}

// HandleCreatePage creates a page.
func HandleCreatePage(c *fiber.Ctx) error {
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	status := req.Status
	if status == "" {
		status = models.ContentStatusDraft
	}
	page := &models.Page{
		Title:        strings.TrimSpace(req.Title),
		Slug:         normalizeSlug(req.Slug, req.Title),
		Content:      req.Content,
		Status:       status,
		IsRestricted: req.IsRestricted,
	}
	if err := page.Validate(); err != nil {
		return jsonBadRequest(c, "title, slug and content are required")
	}

	repo := repository.GetGlobalFactory().GetPageRepository()
	if _, err := repo.GetBySlug(page.Slug); err == nil {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "a page with this slug already exists")
	}
	if err := repo.Create(page); err != nil {
		return jsonInternalError(c, "failed to create page")
	}
	return c.Status(fiber.StatusCreated).JSON(page)
}

// HandleUpdatePage updates an existing page.
func HandleUpdatePage(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid page id")
	}
	var req pageRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetPageRepository()
	page, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "page not found")
	}

	page.Title = strings.TrimSpace(req.Title)
	page.Slug = normalizeSlug(req.Slug, req.Title)
	page.Content = req.Content
	if req.Status != "" {
		page.Status = req.Status
	}
	page.IsRestricted = req.IsRestricted
	if err := page.Validate(); err != nil {
		return jsonBadRequest(c, "title, slug and content are required")
	}

	if existing, err := repo.GetBySlug(page.Slug); err == nil && existing.ID != page.ID {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "a page with this slug already exists")
	}
	if err := repo.Update(page); err != nil {
		return jsonInternalError(c, "failed to update page")
	}
	return c.JSON(page)
}

// HandleDeletePage removes a page.
func HandleDeletePage(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid page id")
	}
	repo := repository.GetGlobalFactory().GetPageRepository()
	if _, err := repo.GetByID(id); err != nil {
		return jsonNotFound(c, "page not found")
	}
	if err := repo.Delete(id); err != nil {
		return jsonInternalError(c, "failed to delete page")
	}
	return c.JSON(fiber.Map{"message": "page deleted"})
}

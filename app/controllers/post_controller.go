package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/entitlements"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

type postRequest struct {
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Content      string `json:"content"`
	Status       string `json:"status"`
	IsRestricted bool   `json:"is_restricted"`
}

// currentUser loads the full account row for entitlement decisions, or nil
// for anonymous callers.
func currentUser(c *fiber.Ctx) *models.User {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil
	}
	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return nil
	}
	return user
}

// HandleListPosts returns published posts, newest first.
func HandleListPosts(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetPostRepository()

	var (
		posts []models.Post
		err   error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		posts, err = repo.Search(q, offset, limit)
	} else {
		posts, err = repo.List(offset, limit, false)
	}
	if err != nil {
		return jsonInternalError(c, "failed to load posts")
	}

	total, err := repo.Count(false)
	if err != nil {
		return jsonInternalError(c, "failed to count posts")
	}

	viewer := currentUser(c)
	now := time.Now()
	items := make([]fiber.Map, 0, len(posts))
	for i := range posts {
		items = append(items, postResponse(&posts[i], viewer, now))
	}

	return c.JSON(fiber.Map{"posts": items, "total": total})
}

// HandleGetPostBySlug returns one published post. Restricted content is
// withheld from callers without an entitlement, but the metadata stays
// visible so the client can show a paywall.
func HandleGetPostBySlug(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPostRepository()
	post, err := repo.GetBySlug(c.Params("slug"))
	if err != nil || !post.IsPublished() {
		return jsonNotFound(c, "post not found")
	}

	return c.JSON(postResponse(post, currentUser(c), time.Now()))
}

// postResponse hides restricted content from readers without entitlement.
func postResponse(post *models.Post, viewer *models.User, now time.Time) fiber.Map {
	resp := fiber.Map{
		"id":            post.ID,
		"title":         post.Title,
		"slug":          post.Slug,
		"status":        post.Status,
		"is_restricted": post.IsRestricted,
		"published_at":  post.PublishedAt.UTC().Format(time.RFC3339),
		"author_id":     post.UserID,
	}
	if post.IsRestricted && !entitlements.CanViewRestricted(viewer, now) {
		resp["content"] = ""
		resp["content_locked"] = true
		return resp
	}
	resp["content"] = post.Content
	return resp
}

// HandleEditorListPosts returns all posts, drafts included.
func HandleEditorListPosts(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetPostRepository()

	posts, err := repo.List(offset, limit, true)
	if err != nil {
		return jsonInternalError(c, "failed to load posts")
	}
	total, err := repo.Count(true)
	if err != nil {
		return jsonInternalError(c, "failed to count posts")
	}
	return c.JSON(fiber.Map{"posts": posts, "total": total})
}

// HandleCreatePost creates a post owned by the calling editor.
func HandleCreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	status := req.Status
	if status == "" {
		status = models.ContentStatusDraft
	}
	post := &models.Post{
		Title:        strings.TrimSpace(req.Title),
		Slug:         normalizeSlug(req.Slug, req.Title),
		Content:      req.Content,
		Status:       status,
		IsRestricted: req.IsRestricted,
		PublishedAt:  time.Now(),
		UserID:       usercontext.GetUserID(c),
	}
	if err := post.Validate(); err != nil {
		return jsonBadRequest(c, "title, slug and content are required")
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	if _, err := repo.GetBySlug(post.Slug); err == nil {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "a post with this slug already exists")
	}
	if err := repo.Create(post); err != nil {
		return jsonInternalError(c, "failed to create post")
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdatePost updates an existing post.
func HandleUpdatePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid post id")
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetPostRepository()
	post, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "post not found")
	}

	wasDraft := !post.IsPublished()
	post.Title = strings.TrimSpace(req.Title)
	post.Slug = normalizeSlug(req.Slug, req.Title)
	post.Content = req.Content
	if req.Status != "" {
		post.Status = req.Status
	}
	post.IsRestricted = req.IsRestricted
	if wasDraft && post.IsPublished() {
		post.PublishedAt = time.Now()
	}
	if err := post.Validate(); err != nil {
		return jsonBadRequest(c, "title, slug and content are required")
	}

	if existing, err := repo.GetBySlug(post.Slug); err == nil && existing.ID != post.ID {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "a post with this slug already exists")
	}
	if err := repo.Update(post); err != nil {
		return jsonInternalError(c, "failed to update post")
	}
	return c.JSON(post)
}

// HandleDeletePost removes a post.
func HandleDeletePost(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid post id")
	}
	repo := repository.GetGlobalFactory().GetPostRepository()
	if _, err := repo.GetByID(id); err != nil {
		return jsonNotFound(c, "post not found")
	}
	if err := repo.Delete(id); err != nil {
		return jsonInternalError(c, "failed to delete post")
	}
	return c.JSON(fiber.Map{"message": "post deleted"})
}

// normalizeSlug lowercases and hyphenates the slug, deriving it from the
// title when absent.
func normalizeSlug(slug, title string) string {
	s := strings.TrimSpace(slug)
	if s == "" {
		s = strings.TrimSpace(title)
	}
	s = strings.ToLower(s)
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

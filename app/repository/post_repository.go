package repository

import (
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// postRepository implements the PostRepository interface
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// Create creates a new post in the database
func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a post by its ID
func (r *postRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySlug retrieves a post by its slug
func (r *postRepository) GetBySlug(slug string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update saves changes to an existing post
func (r *postRepository) Update(post *models.Post) error {
	return r.db.Save(post).Error
}

// Delete soft-deletes a post by ID
func (r *postRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// List retrieves posts with pagination, newest published first. Drafts are
// only included for the editorial views.
func (r *postRepository) List(offset, limit int, includeDrafts bool) ([]models.Post, error) {
	var posts []models.Post
	query := r.db.Order("published_at DESC, created_at DESC").Offset(offset).Limit(limit)
	if !includeDrafts {
		query = query.Where("status = ?", models.ContentStatusPublished)
	}
	err := query.Find(&posts).Error
	return posts, err
}

// Count returns the number of posts visible to the caller
func (r *postRepository) Count(includeDrafts bool) (int64, error) {
	var count int64
	query := r.db.Model(&models.Post{})
	if !includeDrafts {
		query = query.Where("status = ?", models.ContentStatusPublished)
	}
	err := query.Count(&count).Error
	return count, err
}

// Search finds published posts by title or content fragment
func (r *postRepository) Search(query string, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	pattern := "%" + query + "%"
	err := r.db.Where("status = ?", models.ContentStatusPublished).
		Where("title LIKE ? OR content LIKE ?", pattern, pattern).
		Order("published_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

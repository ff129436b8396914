package repository

import (
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// pageRepository implements the PageRepository interface
type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new page repository instance
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// Create creates a new page in the database
func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

// GetByID retrieves a page by its ID
func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug retrieves a page by its slug
func (r *pageRepository) GetBySlug(slug string) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("slug = ?", slug).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Update saves changes to an existing page
func (r *pageRepository) Update(page *models.Page) error {
	return r.db.Save(page).Error
}

// Delete soft-deletes a page by ID
func (r *pageRepository) Delete(id uint) error {
	return r.db.Delete(&models.Page{}, id).Error
}

// List retrieves all pages, drafts included only for editorial views
func (r *pageRepository) List(includeDrafts bool) ([]models.Page, error) {
	var pages []models.Page
	query := r.db.Order("title ASC")
	if !includeDrafts {
		query = query.Where("status = ?", models.ContentStatusPublished)
	}
	err := query.Find(&pages).Error
	return pages, err
}

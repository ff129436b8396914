package repository

import (
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// menuRepository implements the MenuRepository interface
type menuRepository struct {
	db *gorm.DB
}

// NewMenuRepository creates a new menu repository instance
func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

// Create appends a new menu item at the end of the menu
func (r *menuRepository) Create(item *models.MenuItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if item.Position == 0 {
			var max int
			if err := tx.Model(&models.MenuItem{}).
				Select("COALESCE(MAX(position), 0)").Scan(&max).Error; err != nil {
				return err
			}
			item.Position = max + 1
		}
		return tx.Create(item).Error
	})
}

// GetByID retrieves a menu item by its ID
func (r *menuRepository) GetByID(id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update saves changes to an existing menu item
func (r *menuRepository) Update(item *models.MenuItem) error {
	return r.db.Save(item).Error
}

// Delete removes a menu item by ID
func (r *menuRepository) Delete(id uint) error {
	return r.db.Delete(&models.MenuItem{}, id).Error
}

// List retrieves all menu items ordered by position
func (r *menuRepository) List() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Order("position ASC, id ASC").Find(&items).Error
	return items, err
}

// Reorder rewrites menu positions to match the given id order in a single
// transaction, so a failed update never leaves the menu half-reordered.
// Items not named keep their relative order after the named ones.
func (r *menuRepository) Reorder(orderedIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&models.MenuItem{}).
				Where("id = ?", id).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

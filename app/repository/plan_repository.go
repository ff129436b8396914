package repository

import (
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new subscription plan
func (r *planRepository) Create(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update saves changes to an existing plan. Accounts already subscribed are
// unaffected; the change only applies to future checkouts.
func (r *planRepository) Update(plan *models.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

// Delete removes a plan by ID
func (r *planRepository) Delete(id uint) error {
	return r.db.Delete(&models.SubscriptionPlan{}, id).Error
}

// List retrieves all plans, cheapest first
func (r *planRepository) List() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Order("price ASC").Find(&plans).Error
	return plans, err
}

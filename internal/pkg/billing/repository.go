package billing

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// Store is the entitlement store: account rows keyed by local id, email or
// external subscription id, plus the plan catalog.
type Store interface {
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserBySubscriptionID(subscriptionID string) (*models.User, error)
	ApplyEntitlement(userID uint, update EntitlementUpdate) error
	GetPlanByID(id uint) (*models.SubscriptionPlan, error)
	GetPlanByPriceID(priceID string) (*models.SubscriptionPlan, error)
	ListPlans() ([]models.SubscriptionPlan, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates an entitlement store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (r *gormStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *gormStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (r *gormStore) GetUserBySubscriptionID(subscriptionID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("stripe_subscription_id = ?", subscriptionID).First(&user).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

// ApplyEntitlement writes the overwrite as a single UPDATE so concurrent
// webhook deliveries converge without locking.
func (r *gormStore) ApplyEntitlement(userID uint, update EntitlementUpdate) error {
	values := map[string]interface{}{
		"subscription_status":   update.Status,
		"subscription_end_date": update.EndDate,
	}
	if update.SubscriptionID != nil {
		values["stripe_subscription_id"] = *update.SubscriptionID
	}
	if update.CustomerID != nil {
		values["stripe_customer_id"] = *update.CustomerID
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(values).Error
}

func (r *gormStore) GetPlanByID(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &plan, nil
}

func (r *gormStore) GetPlanByPriceID(priceID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := r.db.Where("stripe_price_id = ?", priceID).First(&plan).Error; err != nil {
		return nil, translateErr(err)
	}
	return &plan, nil
}

func (r *gormStore) ListPlans() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Order("price ASC").Find(&plans).Error
	return plans, err
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

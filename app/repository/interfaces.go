package repository

import (
	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetProviderAccount(provider, providerUserID string) (*models.ProviderAccount, error)
	LinkProviderAccount(account *models.ProviderAccount) error
	UpdateProviderAccount(account *models.ProviderAccount) error
}

// PostRepository defines the interface for post-related database operations
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	GetBySlug(slug string) (*models.Post, error)
	Update(post *models.Post) error
	Delete(id uint) error
	List(offset, limit int, includeDrafts bool) ([]models.Post, error)
	Count(includeDrafts bool) (int64, error)
	Search(query string, offset, limit int) ([]models.Post, error)
}

// PageRepository defines the interface for page-related database operations
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	Update(page *models.Page) error
	Delete(id uint) error
	List(includeDrafts bool) ([]models.Page, error)
}

// MenuRepository defines the interface for navigation menu operations
type MenuRepository interface {
	Create(item *models.MenuItem) error
	GetByID(id uint) (*models.MenuItem, error)
	Update(item *models.MenuItem) error
	Delete(id uint) error
	List() ([]models.MenuItem, error)
	Reorder(orderedIDs []uint) error
}

// PlanRepository defines the interface for subscription plan operations
type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	GetByID(id uint) (*models.SubscriptionPlan, error)
	Update(plan *models.SubscriptionPlan) error
	Delete(id uint) error
	List() ([]models.SubscriptionPlan, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User UserRepository
	Post PostRepository
	Page PageRepository
	Menu MenuRepository
	Plan PlanRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User: NewUserRepository(db),
		Post: NewPostRepository(db),
		Page: NewPageRepository(db),
		Menu: NewMenuRepository(db),
		Plan: NewPlanRepository(db),
	}
}

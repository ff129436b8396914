package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/Decoupled-Saas/nextpress/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("activation_token = ?", trimmed).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves changes to an existing user
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft-deletes a user by ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves users with pagination, newest first
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search finds users by name or email fragment
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", pattern, pattern).
		Order("created_at DESC").Limit(100).Find(&users).Error
	return users, err
}

// GetProviderAccount resolves an external OAuth identity to its linkage row
func (r *userRepository) GetProviderAccount(provider, providerUserID string) (*models.ProviderAccount, error) {
	var account models.ProviderAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// LinkProviderAccount stores a new OAuth identity linkage
func (r *userRepository) LinkProviderAccount(account *models.ProviderAccount) error {
	return r.db.Create(account).Error
}

// UpdateProviderAccount refreshes the stored provider tokens
func (r *userRepository) UpdateProviderAccount(account *models.ProviderAccount) error {
	return r.db.Save(account).Error
}

package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER   = "user"
	ROLE_EDITOR = "editor"
	ROLE_ADMIN  = "admin"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// Subscription status of a user's entitlement. The account row is the local
// source of truth; the billing gateway owns billing reality.
const (
	SubscriptionFree     = "free"
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"
	SubscriptionCanceled = "canceled"
)

type User struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	Name                 string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email                string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password             string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                 string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user editor admin"`
	Status               string         `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	EmailVerifiedAt      *time.Time     `gorm:"type:timestamp;default:null" json:"email_verified_at,omitempty"`
	ActivationToken      string         `gorm:"type:varchar(100);index" json:"-"`
	ActivationSentAt     *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	SubscriptionStatus   string         `gorm:"type:varchar(32);not null;default:'free'" json:"subscription_status" validate:"oneof=free active inactive canceled"`
	SubscriptionEndDate  *time.Time     `gorm:"type:timestamp;default:null" json:"subscription_end_date,omitempty"`
	StripeCustomerID     string         `gorm:"type:varchar(191);default:'';index" json:"-"`
	StripeSubscriptionID string         `gorm:"type:varchar(191);default:'';index" json:"-"`
	LastLoginAt          *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at,omitempty"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// CreateUser builds an unverified account with the default role and free
// entitlement.
func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:               name,
		Email:              email,
		Password:           pw,
		Role:               ROLE_USER,
		Status:             STATUS_ACTIVE,
		SubscriptionStatus: SubscriptionFree,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies the provided password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// GenerateActivationToken creates a random email verification token and
// stamps ActivationSentAt.
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	now := time.Now()
	u.ActivationSentAt = &now
	return nil
}

// IsEmailVerified reports whether the account completed email verification.
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// IsActivationTokenValid checks the token and its 24 hour expiry window.
func (u *User) IsActivationTokenValid(token string) bool {
	if u.ActivationToken == "" || u.ActivationSentAt == nil {
		return false
	}
	if u.ActivationToken != token {
		return false
	}
	return time.Since(*u.ActivationSentAt) < 24*time.Hour
}

// HasRole reports whether the user's role is one of the given roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

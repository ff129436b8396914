package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// SubscriptionPlan is a catalog entry mapping a purchasable tier to the
// gateway's product/price identifiers. Prices are minor currency units.
// Editing or deleting a plan only affects future checkouts; entitlements
// granted under a previous version of a plan stay untouched.
type SubscriptionPlan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=1,max=150"`
	Price           int64     `gorm:"not null" json:"price" validate:"gte=0"`
	DurationDays    int       `gorm:"not null" json:"duration_days" validate:"gt=0"`
	StripeProductID string    `gorm:"type:varchar(191);not null" json:"stripe_product_id" validate:"required"`
	StripePriceID   string    `gorm:"type:varchar(191);not null;index" json:"stripe_price_id" validate:"required"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *SubscriptionPlan) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

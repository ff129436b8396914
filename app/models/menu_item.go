package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// MenuItem is a navigation entry ordered by Position.
type MenuItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Label     string    `gorm:"type:varchar(150);not null" json:"label" validate:"required,min=1,max=150"`
	URL       string    `gorm:"type:varchar(255);not null" json:"url" validate:"required,min=1,max=255"`
	Position  int       `gorm:"not null;default:0;index" json:"position"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *MenuItem) Validate() error {
	v := validator.New()
	return v.Struct(m)
}

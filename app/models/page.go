package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Page is a standalone content page addressed by slug.
type Page struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title" validate:"required,min=1,max=255"`
	Slug         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,min=1,max=255"`
	Content      string         `gorm:"type:longtext;not null" json:"content" validate:"required,min=1"`
	Status       string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status" validate:"oneof=draft published"`
	IsRestricted bool           `gorm:"default:false" json:"is_restricted"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Page) Validate() error {
	v := validator.New()
	return v.Struct(p)
}

// IsPublished reports whether the page is publicly visible.
func (p *Page) IsPublished() bool {
	return p.Status == ContentStatusPublished
}

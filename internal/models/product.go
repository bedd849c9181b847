package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a product in the store catalog.
type Product struct {
	ID          string         `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string         `json:"name" validate:"required,min=3,max=100"`
	Description string         `json:"description" validate:"omitempty,max=500"`
	Category    string         `json:"category" validate:"omitempty,max=50"`
	Image       string         `json:"image" validate:"omitempty,max=500"`
	Price       float64        `json:"price" validate:"required,gt=0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// Property is a listed real-estate unit, referenced by rent and sale
// transactions.
type Property struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Code      string         `gorm:"size:64;not null;uniqueIndex" json:"code"`
	Address   string         `gorm:"size:512" json:"address"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentType is a settlement method (cash, transfer, check...). Seeded at
// startup; required on every paid transaction.
type PaymentType struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

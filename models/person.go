package models

import (
	"time"

	"gorm.io/gorm"
)

// Person is a brokerage contact (owner, tenant, buyer or broker).
// Full person management lives outside this service; the ledger only
// needs identity, a searchable name and soft-delete awareness.
type Person struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:255;not null;index" json:"name"`
	Email     string         `gorm:"size:255" json:"email"`
	Phone     string         `gorm:"size:64" json:"phone"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// BankAccount is one of the brokerage's own accounts a transaction can be
// settled against.
type BankAccount struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Bank      string         `gorm:"size:255" json:"bank"`
	Agency    string         `gorm:"size:32" json:"agency"`
	Number    string         `gorm:"size:32" json:"number"`
	Active    bool           `gorm:"default:true;not null" json:"active"`
}

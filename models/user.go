package models

import (
	"time"

	"gorm.io/gorm"
)

// User model
type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
	Username       string         `gorm:"size:255;not null;unique"`
	HashedPassword []byte         `gorm:"not null"`
	RoleID         *uint          `gorm:"index"`
	Role           Role           `gorm:"foreignKey:RoleID;references:ID"`
}

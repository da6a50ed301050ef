package models

import (
	"time"

	"gorm.io/gorm"
)

// Contract is a rental or sale agreement. Managed elsewhere; referenced
// here by rent, sale and commission transactions.
type Contract struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	Number     string         `gorm:"size:64;not null;uniqueIndex" json:"number"`
	PersonID   *uint          `gorm:"index" json:"person_id"`
	PropertyID *uint          `gorm:"index" json:"property_id"`
	StartDate  time.Time      `json:"start_date"`
	EndDate    *time.Time     `json:"end_date"`
}

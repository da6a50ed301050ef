package models

import "gorm.io/gorm"

// Permission is a named capability attached to roles. The financial
// endpoints require "manage_financial".
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;unique;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

// UserPermissions returns the names of all permissions granted to the user
// through its role.
func UserPermissions(db *gorm.DB, userID uint) ([]string, error) {
	var user User
	if err := db.Preload("Role.Permissions").First(&user, userID).Error; err != nil {
		return nil, err
	}
	names := make([]string, 0, len(user.Role.Permissions))
	for _, p := range user.Role.Permissions {
		names = append(names, p.Name)
	}
	return names, nil
}

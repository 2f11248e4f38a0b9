package models

import "gorm.io/gorm"

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	gorm.Model
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	Role          string `gorm:"default:user" json:"role"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`
}

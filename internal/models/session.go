package models

import (
	"time"

	"gorm.io/gorm"
)

// Session represents an issued login token. Expired rows are swept
// periodically and on lookup.
type Session struct {
	gorm.Model
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

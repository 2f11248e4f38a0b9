package models

import (
	"time"

	"gorm.io/gorm"
)

// Verification holds a pending email-verification code or password-reset
// token. At most one active row exists per identifier.
type Verification struct {
	gorm.Model
	Identifier string    `gorm:"index;not null" json:"identifier"`
	Code       string    `gorm:"not null" json:"code"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
}

package models

import "gorm.io/gorm"

// OAuth providers supported for account linking.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// OAuthAccount links a user to an external identity provider.
type OAuthAccount struct {
	gorm.Model
	UserID     uint   `gorm:"index;not null" json:"user_id"`
	Provider   string `gorm:"uniqueIndex:idx_provider_account;not null" json:"provider"`
	ProviderID string `gorm:"uniqueIndex:idx_provider_account;not null" json:"provider_id"`
}

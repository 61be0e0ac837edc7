package models

import "time"

// UserWallet holds the spendable point balance for one user. Created
// lazily on first touch with a zero balance.
type UserWallet struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:text;not null;uniqueIndex"` // Opaque user identity supplied by the auth collaborator.

	Stamina        int64 `gorm:"not null;default:0"` // Spendable point balance, never negative.
	PremiumCredits int64 `gorm:"not null;default:0"` // Reserved balance for future pricing tiers.

	StaminaUpdatedAt  time.Time  `gorm:"not null"` // Last balance mutation.
	LastDailyRefillAt *time.Time // Reserved legacy field.
	LastLoginBonusAt  *time.Time // Last UTC day the login bonus was evaluated.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

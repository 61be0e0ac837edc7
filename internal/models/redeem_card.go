package models

import "time"

// RedeemCard is a one-time code granting points and/or VIP months.
type RedeemCard struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Code string `gorm:"type:text;not null;uniqueIndex"` // Normalized upper-case code.

	Points          int64  `gorm:"not null;default:0"` // Points granted per redemption.
	VipMonths       int64  `gorm:"not null;default:0"` // VIP months granted per redemption.
	VipMonthlyQuota *int64 // Quota for granted VIP; nil means "use system default".

	// MaxUses and Enabled carry no column defaults: a default tag makes
	// GORM skip the field on create when it holds the zero value, so a
	// card created disabled would be stored enabled.
	MaxUses   int64 `gorm:"not null"`           // Global redemption cap.
	UsedCount int64 `gorm:"not null;default:0"` // Redemptions so far. Guarded by a conditional update.

	ExpiresAt *time.Time // Redemption deadline; nil never expires.
	Enabled   bool       `gorm:"not null"` // Disabled cards cannot be redeemed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// CardRedemption records one redemption per (card, user) pair. Its
// unique index is what stops a user redeeming the same code twice.
type CardRedemption struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CardID uint64 `gorm:"not null;uniqueIndex:idx_card_redemptions_card_user"` // Redeemed card.
	UserID string `gorm:"type:text;not null;uniqueIndex:idx_card_redemptions_card_user"` // Redeeming user.

	PointsGranted    int64 `gorm:"not null;default:0"` // Points granted by this redemption.
	VipMonthsGranted int64 `gorm:"not null;default:0"` // VIP months granted by this redemption.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Redemption time.
}

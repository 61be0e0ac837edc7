package models

import "time"

// VipSubscription is a renewing entitlement with a monthly quota cycle.
// At most one row per user is active; expired rows are kept as history.
type VipSubscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:text;not null;index"` // Owning user.
	Active bool   `gorm:"not null;default:true;index"` // Cleared once ExpiresAt passes (lazy expiry).

	StartedAt time.Time `gorm:"not null"` // Subscription start.
	ExpiresAt time.Time `gorm:"not null"` // Subscription end; renewals extend this in place.

	MonthlyQuota int64     `gorm:"not null;default:0"` // Quota ceiling for the current cycle.
	MonthlyUsed  int64     `gorm:"not null;default:0"` // Quota consumed this cycle.
	QuotaResetAt time.Time `gorm:"not null"`           // Start instant of the current cycle.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

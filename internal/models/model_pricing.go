package models

import "time"

// Pricing tiers.
const (
	// TierFree charges the wallet; VIP users are exempt entirely.
	TierFree = "FREE"
	// TierAdvanced charges VIP quota first, then falls back to the wallet.
	TierAdvanced = "ADVANCED"
)

// ModelPricing is the per-channel cost schedule. A channel with no
// pricing row uses the FREE-tier defaults.
type ModelPricing struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	ChannelID string `gorm:"type:text;not null;uniqueIndex"` // Priced channel.
	Tier      string `gorm:"type:text;not null"`             // FREE or ADVANCED.

	// Costs carry no column defaults: zero is a meaningful admin-set
	// value (free usage, immediate fallback) and a default tag would
	// make GORM skip it on create.
	StaminaCost  int64 `gorm:"not null"` // Points charged per use under FREE.
	VipQuotaCost int64 `gorm:"not null"` // Quota units charged per use under ADVANCED.
	CreditCost   int64 `gorm:"not null"` // Fallback point cost when VIP quota is exhausted.

	VipOnly bool `gorm:"not null"` // Reserved.
	Enabled bool `gorm:"not null"` // Disabled channels reject consumption.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// DefaultModelPricing returns the schedule applied when a channel has
// no pricing row.
func DefaultModelPricing(channelID string) ModelPricing {
	return ModelPricing{
		ChannelID:    channelID,
		Tier:         TierFree,
		StaminaCost:  1,
		VipQuotaCost: 1,
		CreditCost:   10,
		Enabled:      true,
	}
}

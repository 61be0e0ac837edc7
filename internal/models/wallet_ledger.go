package models

import (
	"time"

	"gorm.io/datatypes"
)

// Ledger entry types. Amounts are signed: negative for consumption.
const (
	LedgerTypeDailyLoginBonus = "DAILY_LOGIN_BONUS"
	LedgerTypeStaminaConsume  = "STAMINA_CONSUME"
	LedgerTypeCreditConsume   = "CREDIT_CONSUME"
	LedgerTypeCreditGrant     = "CREDIT_GRANT"
	LedgerTypeVipQuotaConsume = "VIP_QUOTA_CONSUME"
	LedgerTypeVipGrant        = "VIP_GRANT"
	LedgerTypeVipExpire       = "VIP_EXPIRE"
)

// WalletLedger is the append-only audit trail. Every balance mutation
// writes exactly one row in the same transaction; rows are never
// updated or deleted.
type WalletLedger struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID string `gorm:"type:text;not null;index"` // Affected user.

	WalletID          *uint64 `gorm:"index"` // Wallet touched, if any.
	VipSubscriptionID *uint64 `gorm:"index"` // Subscription touched, if any.
	ChannelID         string  `gorm:"type:text"` // Priced channel, for consumption rows.

	Type   string `gorm:"column:type;type:text;not null;index"` // Ledger entry type.
	Amount int64  `gorm:"not null"`                             // Signed amount.
	Note   string `gorm:"type:text"`                            // Human-readable context.

	Meta datatypes.JSON `gorm:"type:jsonb"` // Structured context (card code, granted amounts).

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}

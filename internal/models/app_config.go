package models

import "time"

// AppConfigID is the fixed primary key of the singleton config row.
const AppConfigID = "global"

// Stamina recovery modes. Stored for the admin surface; the consume
// logic never reads them.
const (
	// RecoveryModeIntervalOnly recovers stamina on a fixed interval.
	RecoveryModeIntervalOnly = "INTERVAL_ONLY"
	// RecoveryModeDailyOnly recovers stamina once per day.
	RecoveryModeDailyOnly = "DAILY_ONLY"
)

// AppConfig is the process-wide billing policy, stored as a single row
// and created with defaults on first read.
type AppConfig struct {
	ID string `gorm:"type:varchar(32);primaryKey"` // Fixed singleton key.

	LoginDailyPoints       int64 `gorm:"not null;default:80"`  // Points granted on first visit of a UTC day.
	PointsStackLimit       int64 `gorm:"not null;default:300"` // Cap the daily bonus tops up toward. Always >= 1.
	VipDefaultMonthlyQuota int64 `gorm:"not null;default:200"` // Monthly quota used when a grant does not specify one.

	StaminaMax                    int64  `gorm:"not null;default:50"`                          // Reserved stamina ceiling.
	StaminaRecoveryMode           string `gorm:"type:text;not null;default:'INTERVAL_ONLY'"`   // Reserved recovery mode.
	StaminaRecoverIntervalMinutes int64  `gorm:"not null;default:10"`                          // Reserved recovery interval.
	StaminaRecoverAmount          int64  `gorm:"not null;default:1"`                           // Reserved recovery amount.
	DailyRefillHour               int64  `gorm:"not null;default:0"`                           // Reserved refill hour (UTC).

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (AppConfig) TableName() string {
	return "app_config"
}

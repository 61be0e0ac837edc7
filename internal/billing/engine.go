// Package billing implements the usage-metering core: the spendable
// point balance ("stamina"), the renewing VIP quota cycle, the daily
// login bonus, and the tiered consume algorithm that charges one unit
// of usage against them. Every public operation runs as one database
// transaction; every balance mutation writes a ledger row in that
// same transaction.
package billing

import (
	"errors"
	"time"

	dbutil "github.com/unlimited-chat/chatbilling/internal/db"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// Engine orchestrates wallet, VIP subscription, pricing and ledger
// state for the quota operations.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs an Engine backed by GORM.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// DB exposes the underlying connection for collaborators that start
// their own transactions.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// GetOrCreateConfig loads the singleton billing policy, creating it
// with defaults on first read. The second return reports creation.
func GetOrCreateConfig(tx *gorm.DB) (*models.AppConfig, bool, error) {
	var cfg models.AppConfig
	errFind := tx.First(&cfg).Error
	if errFind == nil {
		return &cfg, false, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, false, errFind
	}

	cfg = defaultAppConfig()
	if errCreate := tx.Create(&cfg).Error; errCreate != nil {
		return nil, false, errCreate
	}
	return &cfg, true, nil
}

// defaultAppConfig returns the hardcoded first-boot policy.
func defaultAppConfig() models.AppConfig {
	return models.AppConfig{
		ID:                            models.AppConfigID,
		LoginDailyPoints:              80,
		PointsStackLimit:              300,
		VipDefaultMonthlyQuota:        200,
		StaminaMax:                    50,
		StaminaRecoveryMode:           models.RecoveryModeIntervalOnly,
		StaminaRecoverIntervalMinutes: 10,
		StaminaRecoverAmount:          1,
		DailyRefillHour:               0,
	}
}

// GetOrCreateWallet loads a user's wallet, creating an empty one on
// first touch. The row is locked for the rest of the transaction so
// concurrent balance checks serialize. The second return reports
// creation.
func GetOrCreateWallet(tx *gorm.DB, userID string, now time.Time) (*models.UserWallet, bool, error) {
	var wallet models.UserWallet
	errFind := dbutil.LockForUpdate(tx).Where("user_id = ?", userID).First(&wallet).Error
	if errFind == nil {
		return &wallet, false, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, false, errFind
	}

	wallet = models.UserWallet{
		UserID:           userID,
		Stamina:          0,
		PremiumCredits:   0,
		StaminaUpdatedAt: now,
	}
	if errCreate := tx.Create(&wallet).Error; errCreate != nil {
		return nil, false, errCreate
	}
	return &wallet, true, nil
}

// pointsCap returns the effective point cap, never below 1.
func pointsCap(cfg *models.AppConfig) int64 {
	if cfg.PointsStackLimit < 1 {
		return 1
	}
	return cfg.PointsStackLimit
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

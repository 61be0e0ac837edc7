package billing

import (
	"context"
	"time"

	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// VipStatus is the subscription part of the status view.
type VipStatus struct {
	Active           bool       `json:"active"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	MonthlyQuota     int64      `json:"monthlyQuota"`
	MonthlyUsed      int64      `json:"monthlyUsed"`
	MonthlyRemaining int64      `json:"monthlyRemaining"`
}

// Status is the stable billing view assembled for callers after every
// operation, success or rejection.
type Status struct {
	Points            int64 `json:"points"`
	PointsCap         int64 `json:"pointsCap"`
	DailyLoginPoints  int64 `json:"dailyLoginPoints"`
	DailyLoginGranted int64 `json:"dailyLoginGranted"`

	Stamina    int64 `json:"stamina"`
	StaminaMax int64 `json:"staminaMax"`

	// Reserved surface carried for the UI contract; the consume logic
	// never reads these.
	PremiumCredits          int64  `json:"premiumCredits"`
	RecoveryMode            string `json:"recoveryMode"`
	RecoveryIntervalMinutes int64  `json:"recoveryIntervalMinutes"`
	RecoveryAmount          int64  `json:"recoveryAmount"`
	DailyRefillHour         int64  `json:"dailyRefillHour"`

	Vip VipStatus `json:"vip"`
}

// StatusOptions controls status-read side effects.
type StatusOptions struct {
	// ApplyDailyBonus grants the daily login bonus before assembling
	// the view.
	ApplyDailyBonus bool
}

// buildStatus assembles the view from loaded state. vip may be nil.
func buildStatus(cfg *models.AppConfig, wallet *models.UserWallet, vip *models.VipSubscription, dailyGranted int64) Status {
	status := Status{
		Points:                  wallet.Stamina,
		PointsCap:               pointsCap(cfg),
		DailyLoginPoints:        max64(0, cfg.LoginDailyPoints),
		DailyLoginGranted:       max64(0, dailyGranted),
		Stamina:                 wallet.Stamina,
		StaminaMax:              pointsCap(cfg),
		PremiumCredits:          0,
		RecoveryMode:            cfg.StaminaRecoveryMode,
		RecoveryIntervalMinutes: cfg.StaminaRecoverIntervalMinutes,
		RecoveryAmount:          cfg.StaminaRecoverAmount,
		DailyRefillHour:         cfg.DailyRefillHour,
	}
	if vip != nil {
		expiresAt := vip.ExpiresAt
		status.Vip = VipStatus{
			Active:           vip.Active,
			ExpiresAt:        &expiresAt,
			MonthlyQuota:     vip.MonthlyQuota,
			MonthlyUsed:      vip.MonthlyUsed,
			MonthlyRemaining: max64(0, vip.MonthlyQuota-vip.MonthlyUsed),
		}
	}
	return status
}

// GetStatus runs the status query in one transaction: config and
// wallet are created on first touch, the daily bonus is granted when
// requested, and the VIP cycle is synced. Calling it repeatedly within
// one UTC day never grants the bonus twice.
func (e *Engine) GetStatus(ctx context.Context, userID string, opts StatusOptions) (*Status, error) {
	var status Status
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		cfg, _, errCfg := GetOrCreateConfig(tx)
		if errCfg != nil {
			return errCfg
		}
		wallet, _, errWallet := GetOrCreateWallet(tx, userID, now)
		if errWallet != nil {
			return errWallet
		}

		granted := int64(0)
		if opts.ApplyDailyBonus {
			var errBonus error
			granted, errBonus = applyDailyLoginBonus(tx, cfg, wallet, now)
			if errBonus != nil {
				return errBonus
			}
		}

		vip, errSync := syncVipSubscription(tx, userID, now)
		if errSync != nil {
			return errSync
		}

		status = buildStatus(cfg, wallet, vip, granted)
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &status, nil
}

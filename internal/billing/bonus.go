package billing

import (
	"time"

	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// applyDailyLoginBonus grants the daily login bonus at most once per
// UTC calendar day, topping the wallet up toward the point cap and
// never past it. LastLoginBonusAt is advanced even when nothing is
// granted, so a capped wallet is not re-evaluated the same day; a
// ledger row is written only for a strictly positive grant. The wallet
// is updated in place.
func applyDailyLoginBonus(tx *gorm.DB, cfg *models.AppConfig, wallet *models.UserWallet, now time.Time) (int64, error) {
	if wallet.LastLoginBonusAt != nil && sameDayUTC(*wallet.LastLoginBonusAt, now) {
		return 0, nil
	}

	reward := max64(0, cfg.LoginDailyPoints)
	cap := pointsCap(cfg)
	next := wallet.Stamina
	if wallet.Stamina < cap {
		next = min64(cap, wallet.Stamina+reward)
	}
	granted := next - wallet.Stamina

	if errUpdate := tx.Model(&models.UserWallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]any{
			"stamina":             next,
			"stamina_updated_at":  now,
			"last_login_bonus_at": now,
		}).Error; errUpdate != nil {
		return 0, errUpdate
	}
	wallet.Stamina = next
	wallet.StaminaUpdatedAt = now
	bonusAt := now
	wallet.LastLoginBonusAt = &bonusAt

	if granted > 0 {
		walletID := wallet.ID
		entry := models.WalletLedger{
			UserID:   wallet.UserID,
			WalletID: &walletID,
			Type:     models.LedgerTypeDailyLoginBonus,
			Amount:   granted,
			Note:     "daily login bonus",
		}
		if errCreate := tx.Create(&entry).Error; errCreate != nil {
			return 0, errCreate
		}
	}

	return granted, nil
}

package billing

import (
	"context"
	"time"

	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// GrantPoints is the admin-initiated point grant. The grant is applied
// on top of the current balance with no cap: only the daily bonus is
// throttled by PointsStackLimit. A non-positive amount is a no-op.
func (e *Engine) GrantPoints(ctx context.Context, userID string, amount int64, note string) (*models.UserWallet, error) {
	var wallet *models.UserWallet
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		found, _, errWallet := GetOrCreateWallet(tx, userID, now)
		if errWallet != nil {
			return errWallet
		}
		wallet = found

		if amount <= 0 {
			return nil
		}

		if errUpdate := tx.Model(&models.UserWallet{}).
			Where("id = ?", wallet.ID).
			Updates(map[string]any{
				"stamina":            gorm.Expr("stamina + ?", amount),
				"stamina_updated_at": now,
			}).Error; errUpdate != nil {
			return errUpdate
		}
		wallet.Stamina += amount
		wallet.StaminaUpdatedAt = now

		if note == "" {
			note = "admin grant points"
		}
		walletID := wallet.ID
		entry := models.WalletLedger{
			UserID:   userID,
			WalletID: &walletID,
			Type:     models.LedgerTypeCreditGrant,
			Amount:   amount,
			Note:     note,
		}
		return tx.Create(&entry).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return wallet, nil
}

package billing

import (
	"context"
	"errors"
	"time"

	dbutil "github.com/unlimited-chat/chatbilling/internal/db"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// syncVipSubscription reconciles the user's active subscription with
// the current time: expired rows are flipped inactive (a one-way
// transition, recorded with a VIP_EXPIRE ledger entry) and elapsed
// quota cycles are rolled forward, resetting MonthlyUsed. Returns nil
// when the user has no live subscription.
func syncVipSubscription(tx *gorm.DB, userID string, now time.Time) (*models.VipSubscription, error) {
	var sub models.VipSubscription
	errFind := dbutil.LockForUpdate(tx).
		Where("user_id = ? AND active = ?", userID, true).
		Order("expires_at DESC, created_at DESC").
		First(&sub).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}

	if !sub.ExpiresAt.After(now) {
		if errUpdate := tx.Model(&models.VipSubscription{}).
			Where("id = ?", sub.ID).
			Update("active", false).Error; errUpdate != nil {
			return nil, errUpdate
		}
		subID := sub.ID
		entry := models.WalletLedger{
			UserID:            userID,
			VipSubscriptionID: &subID,
			Type:              models.LedgerTypeVipExpire,
			Amount:            0,
			Note:              "VIP expired",
		}
		if errCreate := tx.Create(&entry).Error; errCreate != nil {
			return nil, errCreate
		}
		return nil, nil
	}

	// Guard against a reset timestamp predating the subscription start.
	cycleStart := sub.QuotaResetAt
	if cycleStart.Before(sub.StartedAt) {
		cycleStart = sub.StartedAt
	}

	newStart, cycles := advanceCycle(cycleStart, now)
	if cycles == 0 {
		return &sub, nil
	}

	if errUpdate := tx.Model(&models.VipSubscription{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"monthly_used":   0,
			"quota_reset_at": newStart,
		}).Error; errUpdate != nil {
		return nil, errUpdate
	}
	sub.MonthlyUsed = 0
	sub.QuotaResetAt = newStart
	return &sub, nil
}

// ApplyVipGrant extends the user's live subscription by months, or
// creates a fresh one when none exists, and writes the VIP_GRANT
// ledger entry. Extension keeps the current cycle: usage is not reset
// and QuotaResetAt is only re-normalized to not predate StartedAt.
// monthlyQuota must already be resolved by the caller.
func ApplyVipGrant(tx *gorm.DB, userID string, months, monthlyQuota int64, now time.Time, note string, meta datatypes.JSON) (*models.VipSubscription, error) {
	var active models.VipSubscription
	errFind := dbutil.LockForUpdate(tx).
		Where("user_id = ? AND active = ? AND expires_at > ?", userID, true, now).
		Order("expires_at DESC").
		First(&active).Error
	if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}

	var sub *models.VipSubscription
	if errFind == nil {
		cycleStart := active.QuotaResetAt
		if cycleStart.Before(active.StartedAt) {
			cycleStart = active.StartedAt
		}
		nextExpires := AddMonthsUTC(active.ExpiresAt, int(months))
		if errUpdate := tx.Model(&models.VipSubscription{}).
			Where("id = ?", active.ID).
			Updates(map[string]any{
				"expires_at":     nextExpires,
				"monthly_quota":  monthlyQuota,
				"active":         true,
				"quota_reset_at": cycleStart,
			}).Error; errUpdate != nil {
			return nil, errUpdate
		}
		active.ExpiresAt = nextExpires
		active.MonthlyQuota = monthlyQuota
		active.QuotaResetAt = cycleStart
		sub = &active
	} else {
		created := models.VipSubscription{
			UserID:       userID,
			Active:       true,
			StartedAt:    now,
			ExpiresAt:    AddMonthsUTC(now, int(months)),
			MonthlyQuota: monthlyQuota,
			MonthlyUsed:  0,
			QuotaResetAt: now,
		}
		if errCreate := tx.Create(&created).Error; errCreate != nil {
			return nil, errCreate
		}
		sub = &created
	}

	subID := sub.ID
	entry := models.WalletLedger{
		UserID:            userID,
		VipSubscriptionID: &subID,
		Type:              models.LedgerTypeVipGrant,
		Amount:            months,
		Note:              note,
		Meta:              meta,
	}
	if errCreate := tx.Create(&entry).Error; errCreate != nil {
		return nil, errCreate
	}
	return sub, nil
}

// GrantVip is the admin-initiated VIP grant. months below 1 is treated
// as 1; a non-positive monthlyQuota falls back to the system default.
func (e *Engine) GrantVip(ctx context.Context, userID string, months, monthlyQuota int64, note string) (*models.VipSubscription, error) {
	var sub *models.VipSubscription
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		cfg, _, errCfg := GetOrCreateConfig(tx)
		if errCfg != nil {
			return errCfg
		}

		if months < 1 {
			months = 1
		}
		quota := monthlyQuota
		if quota <= 0 {
			quota = cfg.VipDefaultMonthlyQuota
		}
		quota = max64(0, quota)

		if note == "" {
			note = "admin grant vip"
		}
		granted, errGrant := ApplyVipGrant(tx, userID, months, quota, now, note, nil)
		if errGrant != nil {
			return errGrant
		}
		sub = granted
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return sub, nil
}

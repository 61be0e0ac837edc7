package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConsumeResult reports the outcome of charging one unit of usage.
// Billing always carries a fresh status view so callers can render
// up-to-date numbers next to a rejection.
type ConsumeResult struct {
	OK         bool      `json:"ok"`
	Code       ErrorCode `json:"code,omitempty"`
	Message    string    `json:"message,omitempty"`
	HTTPStatus int       `json:"-"`
	Billing    Status    `json:"billing"`
}

// tier is the closed two-variant dispatch for the consume algorithm.
// FREE and ADVANCED behave as different state machines sharing one
// entry point; the pricing row's Tier field is parsed once.
type tier int

const (
	tierFree tier = iota
	tierAdvanced
)

// parseTier maps a pricing row's tier string to the dispatch variant.
// Anything unrecognized is FREE.
func parseTier(raw string) tier {
	if strings.EqualFold(strings.TrimSpace(raw), models.TierAdvanced) {
		return tierAdvanced
	}
	return tierFree
}

// ConsumeChatQuota charges one unit of usage on the given channel, in
// one transaction: FREE-tier channels are waived for VIP users and
// charge the wallet otherwise; ADVANCED-tier channels require VIP,
// charge the monthly quota first, and fall back to the wallet once the
// quota is exhausted. The branches are mutually exclusive: no unit of
// usage is ever charged against both resources.
func (e *Engine) ConsumeChatQuota(ctx context.Context, userID, channelID string) (*ConsumeResult, error) {
	var result ConsumeResult
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		cfg, _, errCfg := GetOrCreateConfig(tx)
		if errCfg != nil {
			return errCfg
		}
		pricing, errPricing := pricingForChannel(tx, channelID)
		if errPricing != nil {
			return errPricing
		}
		wallet, _, errWallet := GetOrCreateWallet(tx, userID, now)
		if errWallet != nil {
			return errWallet
		}
		if _, errBonus := applyDailyLoginBonus(tx, cfg, wallet, now); errBonus != nil {
			return errBonus
		}
		vip, errSync := syncVipSubscription(tx, userID, now)
		if errSync != nil {
			return errSync
		}

		if !pricing.Enabled {
			result = rejection(CodeModelDisabled, "this model is currently disabled", http.StatusForbidden, cfg, wallet, vip)
			return nil
		}

		vipActive := vip != nil && vip.Active && vip.ExpiresAt.After(now)

		switch parseTier(pricing.Tier) {
		case tierFree:
			// VIP implies unlimited FREE-tier usage.
			if vipActive {
				result = success(cfg, wallet, vip)
				return nil
			}
			cost := max64(0, pricing.StaminaCost)
			if cost == 0 {
				result = success(cfg, wallet, vip)
				return nil
			}
			if wallet.Stamina < cost {
				result = rejection(CodeInsufficientPoints, "not enough points; claim tomorrow's login bonus or upgrade to VIP", http.StatusPaymentRequired, cfg, wallet, vip)
				return nil
			}
			deducted, errDeduct := deductStamina(tx, wallet, cost, now)
			if errDeduct != nil {
				return errDeduct
			}
			if !deducted {
				result = rejection(CodeInsufficientPoints, "not enough points; claim tomorrow's login bonus or upgrade to VIP", http.StatusPaymentRequired, cfg, wallet, vip)
				return nil
			}
			if errLedger := writeConsumeLedger(tx, wallet, nil, channelID, models.LedgerTypeStaminaConsume, -cost, "chat consume (normal model)"); errLedger != nil {
				return errLedger
			}
			result = success(cfg, wallet, vip)
			return nil

		case tierAdvanced:
			if !vipActive {
				result = rejection(CodeVipRequired, "this model is limited to VIP subscribers", http.StatusForbidden, cfg, wallet, vip)
				return nil
			}

			quotaCost := max64(0, pricing.VipQuotaCost)
			fallbackCost := max64(0, pricing.CreditCost)
			vipRemaining := max64(0, vip.MonthlyQuota-vip.MonthlyUsed)

			if quotaCost > 0 && vipRemaining >= quotaCost {
				charged, errQuota := chargeVipQuota(tx, vip, quotaCost)
				if errQuota != nil {
					return errQuota
				}
				if charged {
					if errLedger := writeConsumeLedger(tx, nil, vip, channelID, models.LedgerTypeVipQuotaConsume, -quotaCost, "chat consume (vip quota)"); errLedger != nil {
						return errLedger
					}
					result = success(cfg, wallet, vip)
					return nil
				}
				// A concurrent consumer exhausted the quota after our
				// read; fall through to the wallet.
			}

			if fallbackCost > 0 {
				if wallet.Stamina < fallbackCost {
					result = rejection(CodeInsufficientPoints, "VIP monthly quota exhausted and not enough fallback points", http.StatusPaymentRequired, cfg, wallet, vip)
					return nil
				}
				deducted, errDeduct := deductStamina(tx, wallet, fallbackCost, now)
				if errDeduct != nil {
					return errDeduct
				}
				if !deducted {
					result = rejection(CodeInsufficientPoints, "VIP monthly quota exhausted and not enough fallback points", http.StatusPaymentRequired, cfg, wallet, vip)
					return nil
				}
				if errLedger := writeConsumeLedger(tx, wallet, nil, channelID, models.LedgerTypeCreditConsume, -fallbackCost, "chat consume (vip model fallback points)"); errLedger != nil {
					return errLedger
				}
			}
			result = success(cfg, wallet, vip)
			return nil
		}
		return fmt.Errorf("billing: unreachable tier for channel %s", channelID)
	})
	if errTx != nil {
		return nil, errTx
	}
	return &result, nil
}

// pricingForChannel loads the channel's cost schedule, applying the
// FREE-tier defaults when no row exists.
func pricingForChannel(tx *gorm.DB, channelID string) (*models.ModelPricing, error) {
	var pricing models.ModelPricing
	errFind := tx.Where("channel_id = ?", channelID).First(&pricing).Error
	if errFind == nil {
		return &pricing, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, errFind
	}
	fallback := models.DefaultModelPricing(channelID)
	return &fallback, nil
}

// deductStamina decrements the wallet with a conditional predicate so
// two concurrent transactions cannot both pass one balance check. A
// false return means the guard lost the race.
func deductStamina(tx *gorm.DB, wallet *models.UserWallet, cost int64, now time.Time) (bool, error) {
	res := tx.Model(&models.UserWallet{}).
		Where("id = ? AND stamina >= ?", wallet.ID, cost).
		Updates(map[string]any{
			"stamina":            gorm.Expr("stamina - ?", cost),
			"stamina_updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	wallet.Stamina -= cost
	wallet.StaminaUpdatedAt = now
	return true, nil
}

// chargeVipQuota increments MonthlyUsed guarded by the quota ceiling,
// so the quota path can reach MonthlyQuota exactly but never exceed it.
func chargeVipQuota(tx *gorm.DB, vip *models.VipSubscription, cost int64) (bool, error) {
	res := tx.Model(&models.VipSubscription{}).
		Where("id = ? AND monthly_used + ? <= monthly_quota", vip.ID, cost).
		Update("monthly_used", gorm.Expr("monthly_used + ?", cost))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	vip.MonthlyUsed += cost
	return true, nil
}

// writeConsumeLedger appends the audit row for one consumption.
func writeConsumeLedger(tx *gorm.DB, wallet *models.UserWallet, vip *models.VipSubscription, channelID, entryType string, amount int64, note string) error {
	entry := models.WalletLedger{
		ChannelID: channelID,
		Type:      entryType,
		Amount:    amount,
		Note:      note,
	}
	if wallet != nil {
		walletID := wallet.ID
		entry.UserID = wallet.UserID
		entry.WalletID = &walletID
	}
	if vip != nil {
		subID := vip.ID
		entry.UserID = vip.UserID
		entry.VipSubscriptionID = &subID
	}
	if meta, errMeta := json.Marshal(map[string]string{"channel_id": channelID}); errMeta == nil {
		entry.Meta = datatypes.JSON(meta)
	}
	return tx.Create(&entry).Error
}

func success(cfg *models.AppConfig, wallet *models.UserWallet, vip *models.VipSubscription) ConsumeResult {
	return ConsumeResult{
		OK:         true,
		HTTPStatus: http.StatusOK,
		Billing:    buildStatus(cfg, wallet, vip, 0),
	}
}

func rejection(code ErrorCode, message string, httpStatus int, cfg *models.AppConfig, wallet *models.UserWallet, vip *models.VipSubscription) ConsumeResult {
	return ConsumeResult{
		OK:         false,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Billing:    buildStatus(cfg, wallet, vip, 0),
	}
}

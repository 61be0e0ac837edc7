// Package redeem converts one-time codes into point and VIP grants.
// Redemption is race-safe: a per-user uniqueness row stops one user
// double-dipping and a conditional usedCount increment stops
// concurrent users pushing a card past its global cap.
package redeem

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine performs card redemptions.
type Engine struct {
	db *gorm.DB
}

// NewEngine constructs an Engine backed by GORM.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Result is the redemption outcome. Policy rejections carry an
// HTTP-equivalent status and a stable message; OK results carry the
// granted amounts.
type Result struct {
	OK               bool   `json:"ok"`
	Status           int    `json:"-"`
	Err              string `json:"error,omitempty"`
	PointsGranted    int64  `json:"pointsGranted"`
	VipMonthsGranted int64  `json:"vipMonthsGranted"`
}

// NormalizeCode trims, uppercases, and strips a raw code down to
// [A-Z0-9_-].
func NormalizeCode(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Redeem applies the card identified by rawCode to the user, in one
// transaction. The early usedCount read is advisory; only the
// conditional increment decides whether a use is actually consumed.
func (e *Engine) Redeem(ctx context.Context, userID, rawCode string) (*Result, error) {
	code := NormalizeCode(rawCode)
	if code == "" {
		return &Result{Status: http.StatusBadRequest, Err: "please enter a valid code"}, nil
	}

	var result Result
	errTx := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var card models.RedeemCard
		errFind := tx.Where("code = ?", code).First(&card).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				result = Result{Status: http.StatusNotFound, Err: "code not found or disabled"}
				return nil
			}
			return errFind
		}
		if !card.Enabled {
			result = Result{Status: http.StatusNotFound, Err: "code not found or disabled"}
			return nil
		}
		if card.ExpiresAt != nil && !card.ExpiresAt.After(now) {
			result = Result{Status: http.StatusBadRequest, Err: "code has expired"}
			return nil
		}
		if card.UsedCount >= card.MaxUses {
			result = Result{Status: http.StatusBadRequest, Err: "code has been fully redeemed"}
			return nil
		}

		var prior models.CardRedemption
		errPrior := tx.Where("card_id = ? AND user_id = ?", card.ID, userID).First(&prior).Error
		if errPrior == nil {
			result = Result{Status: http.StatusBadRequest, Err: "you have already redeemed this code"}
			return nil
		}
		if !errors.Is(errPrior, gorm.ErrRecordNotFound) {
			return errPrior
		}

		pointsGranted := max64(0, card.Points)
		vipMonthsGranted := max64(0, card.VipMonths)

		// The concurrency guard: increment only while a use remains.
		// Zero affected rows means a concurrent redeemer won the race
		// after our read above.
		res := tx.Model(&models.RedeemCard{}).
			Where("id = ? AND enabled = ? AND used_count < max_uses", card.ID, true).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result = Result{Status: http.StatusBadRequest, Err: "code has been fully redeemed"}
			return nil
		}

		meta := cardMeta(card.Code, pointsGranted, vipMonthsGranted)

		if pointsGranted > 0 {
			if errPoints := grantCardPoints(tx, userID, card.Code, pointsGranted, now, meta); errPoints != nil {
				return errPoints
			}
		}

		if vipMonthsGranted > 0 {
			cfg, _, errCfg := billing.GetOrCreateConfig(tx)
			if errCfg != nil {
				return errCfg
			}
			quota := cfg.VipDefaultMonthlyQuota
			if card.VipMonthlyQuota != nil {
				quota = *card.VipMonthlyQuota
			}
			quota = max64(0, quota)
			if _, errVip := billing.ApplyVipGrant(tx, userID, vipMonthsGranted, quota, now, "redeem card "+card.Code, meta); errVip != nil {
				return errVip
			}
		}

		redemption := models.CardRedemption{
			CardID:           card.ID,
			UserID:           userID,
			PointsGranted:    pointsGranted,
			VipMonthsGranted: vipMonthsGranted,
		}
		if errCreate := tx.Create(&redemption).Error; errCreate != nil {
			return errCreate
		}

		result = Result{
			OK:               true,
			Status:           http.StatusOK,
			PointsGranted:    pointsGranted,
			VipMonthsGranted: vipMonthsGranted,
		}
		return nil
	})
	if errTx != nil {
		return nil, errTx
	}
	return &result, nil
}

// grantCardPoints credits the wallet and writes the CREDIT_GRANT row.
func grantCardPoints(tx *gorm.DB, userID, cardCode string, points int64, now time.Time, meta datatypes.JSON) error {
	wallet, _, errWallet := billing.GetOrCreateWallet(tx, userID, now)
	if errWallet != nil {
		return errWallet
	}
	if errUpdate := tx.Model(&models.UserWallet{}).
		Where("id = ?", wallet.ID).
		Updates(map[string]any{
			"stamina":            gorm.Expr("stamina + ?", points),
			"stamina_updated_at": now,
		}).Error; errUpdate != nil {
		return errUpdate
	}

	walletID := wallet.ID
	entry := models.WalletLedger{
		UserID:   userID,
		WalletID: &walletID,
		Type:     models.LedgerTypeCreditGrant,
		Amount:   points,
		Note:     "redeem card " + cardCode,
		Meta:     meta,
	}
	return tx.Create(&entry).Error
}

// cardMeta builds the structured ledger context for a redemption.
func cardMeta(code string, points, vipMonths int64) datatypes.JSON {
	raw, errMeta := json.Marshal(map[string]any{
		"card_code":  code,
		"points":     points,
		"vip_months": vipMonths,
	})
	if errMeta != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// ConfigAdminHandler handles the global billing policy.
type ConfigAdminHandler struct {
	db *gorm.DB
}

// NewConfigAdminHandler constructs a ConfigAdminHandler.
func NewConfigAdminHandler(db *gorm.DB) *ConfigAdminHandler {
	return &ConfigAdminHandler{db: db}
}

// Get returns the billing policy, creating it with defaults on first
// read.
func (h *ConfigAdminHandler) Get(c *gin.Context) {
	var cfg *models.AppConfig
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		loaded, _, errCfg := billing.GetOrCreateConfig(tx)
		if errCfg != nil {
			return errCfg
		}
		cfg = loaded
		return nil
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query config failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// configRequest defines the mutable billing policy fields. Pointers
// distinguish "leave unchanged" from zero values.
type configRequest struct {
	LoginDailyPoints       *int64 `json:"login_daily_points"`
	PointsStackLimit       *int64 `json:"points_stack_limit"`
	VipDefaultMonthlyQuota *int64 `json:"vip_default_monthly_quota"`
}

// Update applies a partial policy change.
func (h *ConfigAdminHandler) Update(c *gin.Context) {
	var body configRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.LoginDailyPoints != nil && *body.LoginDailyPoints < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login_daily_points must not be negative"})
		return
	}
	if body.PointsStackLimit != nil && *body.PointsStackLimit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points_stack_limit must be at least 1"})
		return
	}
	if body.VipDefaultMonthlyQuota != nil && *body.VipDefaultMonthlyQuota < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vip_default_monthly_quota must not be negative"})
		return
	}

	var cfg *models.AppConfig
	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		loaded, _, errCfg := billing.GetOrCreateConfig(tx)
		if errCfg != nil {
			return errCfg
		}

		updates := map[string]any{}
		if body.LoginDailyPoints != nil {
			updates["login_daily_points"] = *body.LoginDailyPoints
			loaded.LoginDailyPoints = *body.LoginDailyPoints
		}
		if body.PointsStackLimit != nil {
			updates["points_stack_limit"] = *body.PointsStackLimit
			loaded.PointsStackLimit = *body.PointsStackLimit
		}
		if body.VipDefaultMonthlyQuota != nil {
			updates["vip_default_monthly_quota"] = *body.VipDefaultMonthlyQuota
			loaded.VipDefaultMonthlyQuota = *body.VipDefaultMonthlyQuota
		}
		cfg = loaded
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.AppConfig{}).
			Where("id = ?", loaded.ID).
			Updates(updates).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update config failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// PricingAdminHandler handles the per-channel cost schedule.
type PricingAdminHandler struct {
	db *gorm.DB
}

// NewPricingAdminHandler constructs a PricingAdminHandler.
func NewPricingAdminHandler(db *gorm.DB) *PricingAdminHandler {
	return &PricingAdminHandler{db: db}
}

// List returns all pricing rows.
func (h *PricingAdminHandler) List(c *gin.Context) {
	var rows []models.ModelPricing
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("channel_id ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query pricing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing": rows})
}

// pricingRequest defines the upsert body for a channel's pricing.
type pricingRequest struct {
	Tier         string `json:"tier"`
	StaminaCost  int64  `json:"stamina_cost"`
	VipQuotaCost int64  `json:"vip_quota_cost"`
	CreditCost   int64  `json:"credit_cost"`
	VipOnly      bool   `json:"vip_only"`
	Enabled      *bool  `json:"enabled"`
}

// Upsert creates or replaces the pricing row for a channel.
func (h *PricingAdminHandler) Upsert(c *gin.Context) {
	channelID := strings.TrimSpace(c.Param("channel_id"))
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id is required"})
		return
	}

	var body pricingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	tier := strings.ToUpper(strings.TrimSpace(body.Tier))
	if tier != models.TierFree && tier != models.TierAdvanced {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tier must be FREE or ADVANCED"})
		return
	}
	if body.StaminaCost < 0 || body.VipQuotaCost < 0 || body.CreditCost < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "costs must not be negative"})
		return
	}
	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}

	errTx := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing models.ModelPricing
		errFind := tx.Where("channel_id = ?", channelID).First(&existing).Error
		if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return errFind
		}
		updates := map[string]any{
			"tier":           tier,
			"stamina_cost":   body.StaminaCost,
			"vip_quota_cost": body.VipQuotaCost,
			"credit_cost":    body.CreditCost,
			"vip_only":       body.VipOnly,
			"enabled":        enabled,
		}
		if errFind == nil {
			return tx.Model(&existing).Updates(updates).Error
		}
		row := models.ModelPricing{
			ChannelID:    channelID,
			Tier:         tier,
			StaminaCost:  body.StaminaCost,
			VipQuotaCost: body.VipQuotaCost,
			CreditCost:   body.CreditCost,
			VipOnly:      body.VipOnly,
			Enabled:      enabled,
		}
		return tx.Create(&row).Error
	})
	if errTx != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save pricing failed"})
		return
	}

	var saved models.ModelPricing
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("channel_id = ?", channelID).
		First(&saved).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query pricing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing": saved})
}

// Delete removes a channel's pricing row, returning it to the
// FREE-tier defaults.
func (h *PricingAdminHandler) Delete(c *gin.Context) {
	channelID := strings.TrimSpace(c.Param("channel_id"))
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id is required"})
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).
		Where("channel_id = ?", channelID).
		Delete(&models.ModelPricing{}).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete pricing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": channelID})
}

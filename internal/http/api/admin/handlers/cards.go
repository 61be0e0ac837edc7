package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"github.com/unlimited-chat/chatbilling/internal/redeem"
	"gorm.io/gorm"
)

// CardAdminHandler handles redeem card management.
type CardAdminHandler struct {
	db *gorm.DB
}

// NewCardAdminHandler constructs a CardAdminHandler.
func NewCardAdminHandler(db *gorm.DB) *CardAdminHandler {
	return &CardAdminHandler{db: db}
}

// cardDTO defines the card response payload.
type cardDTO struct {
	ID              uint64     `json:"id"`
	Code            string     `json:"code"`
	Points          int64      `json:"points"`
	VipMonths       int64      `json:"vip_months"`
	VipMonthlyQuota *int64     `json:"vip_monthly_quota"`
	MaxUses         int64      `json:"max_uses"`
	UsedCount       int64      `json:"used_count"`
	ExpiresAt       *time.Time `json:"expires_at"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toCardDTO(card models.RedeemCard) cardDTO {
	return cardDTO{
		ID:              card.ID,
		Code:            card.Code,
		Points:          card.Points,
		VipMonths:       card.VipMonths,
		VipMonthlyQuota: card.VipMonthlyQuota,
		MaxUses:         card.MaxUses,
		UsedCount:       card.UsedCount,
		ExpiresAt:       card.ExpiresAt,
		Enabled:         card.Enabled,
		CreatedAt:       card.CreatedAt,
	}
}

// List returns cards ordered by creation time.
func (h *CardAdminHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, errParse := strconv.Atoi(raw); errParse == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, errParse := strconv.Atoi(raw); errParse == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var cards []models.RedeemCard
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&cards).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query cards failed"})
		return
	}

	out := make([]cardDTO, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardDTO(card))
	}
	c.JSON(http.StatusOK, gin.H{"cards": out})
}

// cardRequest defines the create/update body for a card.
type cardRequest struct {
	Code            string     `json:"code"`
	Points          int64      `json:"points"`
	VipMonths       int64      `json:"vip_months"`
	VipMonthlyQuota *int64     `json:"vip_monthly_quota"`
	MaxUses         int64      `json:"max_uses"`
	ExpiresAt       *time.Time `json:"expires_at"`
	Enabled         *bool      `json:"enabled"`
}

// Create registers a new redeem card. The code is normalized the same
// way redemption normalizes user input.
func (h *CardAdminHandler) Create(c *gin.Context) {
	var body cardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	code := redeem.NormalizeCode(body.Code)
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}
	if body.Points < 0 || body.VipMonths < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points and vip_months must not be negative"})
		return
	}
	if body.Points == 0 && body.VipMonths == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card must grant points or vip months"})
		return
	}
	maxUses := body.MaxUses
	if maxUses < 1 {
		maxUses = 1
	}
	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}

	card := models.RedeemCard{
		Code:            code,
		Points:          body.Points,
		VipMonths:       body.VipMonths,
		VipMonthlyQuota: body.VipMonthlyQuota,
		MaxUses:         maxUses,
		ExpiresAt:       body.ExpiresAt,
		Enabled:         enabled,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&card).Error; errCreate != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "create card failed, code may already exist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": toCardDTO(card)})
}

// Update modifies a card's grant values and flags. The code and the
// usage counter are immutable.
func (h *CardAdminHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}

	var body cardRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	var card models.RedeemCard
	if errFind := h.db.WithContext(c.Request.Context()).First(&card, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query card failed"})
		return
	}

	updates := map[string]any{
		"points":            body.Points,
		"vip_months":        body.VipMonths,
		"vip_monthly_quota": body.VipMonthlyQuota,
		"expires_at":        body.ExpiresAt,
	}
	if body.MaxUses >= 1 {
		updates["max_uses"] = body.MaxUses
	}
	if body.Enabled != nil {
		updates["enabled"] = *body.Enabled
	}
	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&card).
		Updates(updates).Error; errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update card failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": toCardDTO(card)})
}

// Delete removes a card. Past redemptions and their ledger entries are
// history and stay untouched.
func (h *CardAdminHandler) Delete(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).
		Delete(&models.RedeemCard{}, id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete card failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

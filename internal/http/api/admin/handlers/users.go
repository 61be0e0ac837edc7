package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/unlimited-chat/chatbilling/internal/billing"
)

// UserBillingHandler handles admin-initiated grants and billing views
// for individual users.
type UserBillingHandler struct {
	engine *billing.Engine
}

// NewUserBillingHandler constructs a UserBillingHandler.
func NewUserBillingHandler(engine *billing.Engine) *UserBillingHandler {
	return &UserBillingHandler{engine: engine}
}

// grantPointsRequest defines the body for a point grant.
type grantPointsRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

// GrantPoints credits points to a user's wallet.
func (h *UserBillingHandler) GrantPoints(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	var body grantPointsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive integer"})
		return
	}

	wallet, errGrant := h.engine.GrantPoints(c.Request.Context(), userID, body.Amount, body.Note)
	if errGrant != nil {
		log.WithError(errGrant).Warn("admin: grant points failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": gin.H{
		"user_id": wallet.UserID,
		"stamina": wallet.Stamina,
	}})
}

// grantVipRequest defines the body for a VIP grant.
type grantVipRequest struct {
	Months       int64  `json:"months"`
	MonthlyQuota int64  `json:"monthly_quota"`
	Note         string `json:"note"`
}

// GrantVip grants or extends a user's VIP subscription.
func (h *UserBillingHandler) GrantVip(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	var body grantVipRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.Months < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be at least 1"})
		return
	}

	sub, errGrant := h.engine.GrantVip(c.Request.Context(), userID, body.Months, body.MonthlyQuota, body.Note)
	if errGrant != nil {
		log.WithError(errGrant).Warn("admin: grant vip failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": gin.H{
		"user_id":        sub.UserID,
		"active":         sub.Active,
		"started_at":     sub.StartedAt,
		"expires_at":     sub.ExpiresAt,
		"monthly_quota":  sub.MonthlyQuota,
		"monthly_used":   sub.MonthlyUsed,
		"quota_reset_at": sub.QuotaResetAt,
	}})
}

// GetBilling returns a user's billing status without granting the
// daily bonus.
func (h *UserBillingHandler) GetBilling(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	status, errStatus := h.engine.GetStatus(c.Request.Context(), userID, billing.StatusOptions{ApplyDailyBonus: false})
	if errStatus != nil {
		log.WithError(errStatus).Warn("admin: billing status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing status unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"billing": status})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/ratelimit"
	"github.com/unlimited-chat/chatbilling/internal/redeem"
	"github.com/unlimited-chat/chatbilling/internal/util"
)

// CardFrontHandler handles card redemption for end users.
type CardFrontHandler struct {
	redeemer *redeem.Engine
	billing  *billing.Engine
	limiter  *ratelimit.Limiter
}

// NewCardFrontHandler constructs a CardFrontHandler. limiter may be
// nil when redis is not configured.
func NewCardFrontHandler(redeemer *redeem.Engine, billingEngine *billing.Engine, limiter *ratelimit.Limiter) *CardFrontHandler {
	return &CardFrontHandler{redeemer: redeemer, billing: billingEngine, limiter: limiter}
}

// redeemRequest defines the request body for code redemption.
type redeemRequest struct {
	Code string `json:"code"`
}

// Redeem redeems a one-time code for the current user and returns the
// granted amounts along with a fresh billing view.
func (h *CardFrontHandler) Redeem(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body redeemRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if !h.limiter.Allow(c.Request.Context(), "redeem_attempts:"+userID) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many redemption attempts, slow down"})
		return
	}

	result, errRedeem := h.redeemer.Redeem(c.Request.Context(), userID, body.Code)
	if errRedeem != nil {
		log.WithError(errRedeem).Warn("redeem: redemption failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "redemption failed, try again later"})
		return
	}
	if !result.OK {
		log.WithField("code", util.MaskCode(redeem.NormalizeCode(body.Code))).
			Debug("redeem: rejected")
		c.JSON(result.Status, gin.H{"error": result.Err})
		return
	}

	// The daily bonus is deliberately not applied here; redemption is
	// not a login event.
	status, errStatus := h.billing.GetStatus(c.Request.Context(), userID, billing.StatusOptions{ApplyDailyBonus: false})
	if errStatus != nil {
		log.WithError(errStatus).Warn("redeem: status refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing status unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"pointsGranted":    result.PointsGranted,
		"vipMonthsGranted": result.VipMonthsGranted,
		"billing":          status,
	}})
}

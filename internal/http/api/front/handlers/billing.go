package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/unlimited-chat/chatbilling/internal/billing"
)

// BillingFrontHandler handles billing status and consumption endpoints
// for end users.
type BillingFrontHandler struct {
	engine *billing.Engine
}

// NewBillingFrontHandler constructs a BillingFrontHandler.
func NewBillingFrontHandler(engine *billing.Engine) *BillingFrontHandler {
	return &BillingFrontHandler{engine: engine}
}

// Get returns the user's billing status, granting the daily login
// bonus as a side effect.
func (h *BillingFrontHandler) Get(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, errStatus := h.engine.GetStatus(c.Request.Context(), userID, billing.StatusOptions{ApplyDailyBonus: true})
	if errStatus != nil {
		log.WithError(errStatus).Warn("billing: status query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "billing status unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"billing": status})
}

// consumeRequest defines the request body for quota consumption.
type consumeRequest struct {
	ChannelID string `json:"channel_id"`
}

// Consume charges one unit of usage against the given channel.
// Rejections still return a fresh billing view.
func (h *BillingFrontHandler) Consume(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body consumeRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	channelID := strings.TrimSpace(body.ChannelID)
	if channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id is required"})
		return
	}

	result, errConsume := h.engine.ConsumeChatQuota(c.Request.Context(), userID, channelID)
	if errConsume != nil {
		log.WithError(errConsume).Warn("billing: consume failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "consume failed"})
		return
	}
	if !result.OK {
		c.JSON(result.HTTPStatus, gin.H{
			"code":    result.Code,
			"message": result.Message,
			"billing": result.Billing,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"billing": result.Billing})
}

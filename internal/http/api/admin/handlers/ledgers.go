package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// LedgerAdminHandler exposes the append-only audit trail.
type LedgerAdminHandler struct {
	db *gorm.DB
}

// NewLedgerAdminHandler constructs a LedgerAdminHandler.
func NewLedgerAdminHandler(db *gorm.DB) *LedgerAdminHandler {
	return &LedgerAdminHandler{db: db}
}

// List returns ledger entries, newest first, optionally filtered by
// user and entry type.
func (h *LedgerAdminHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, errParse := strconv.Atoi(raw); errParse == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if parsed, errParse := strconv.Atoi(raw); errParse == nil && parsed >= 0 {
			offset = parsed
		}
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.WalletLedger{})
	if userID := strings.TrimSpace(c.Query("user_id")); userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if entryType := strings.TrimSpace(c.Query("type")); entryType != "" {
		q = q.Where("type = ?", entryType)
	}

	var total int64
	if errCount := q.Count(&total).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query ledger failed"})
		return
	}

	var rows []models.WalletLedger
	if errFind := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query ledger failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledgers": rows, "total": total})
}

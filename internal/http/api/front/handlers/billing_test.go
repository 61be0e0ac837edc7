package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/unlimited-chat/chatbilling/internal/billing"
	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupFrontDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:front_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(
		&models.AppConfig{},
		&models.UserWallet{},
		&models.VipSubscription{},
		&models.WalletLedger{},
		&models.ModelPricing{},
		&models.RedeemCard{},
		&models.CardRedemption{},
	); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if errEncode := json.NewEncoder(&buf).Encode(body); errEncode != nil {
			t.Fatalf("encode body: %v", errEncode)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBillingGetGrantsDailyBonus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupFrontDB(t)
	handler := NewBillingFrontHandler(billing.NewEngine(conn))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v0/front/billing", nil)
	c.Set("userID", "user-1")

	handler.Get(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Billing billing.Status `json:"billing"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &res); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if res.Billing.Points != 80 || res.Billing.DailyLoginGranted != 80 {
		t.Fatalf("expected first visit bonus, got %+v", res.Billing)
	}
}

func TestBillingGetMissingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupFrontDB(t)
	handler := NewBillingFrontHandler(billing.NewEngine(conn))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v0/front/billing", nil)

	handler.Get(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestConsumeEndpointSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupFrontDB(t)
	handler := NewBillingFrontHandler(billing.NewEngine(conn))

	if errSeed := conn.Create(&models.ModelPricing{
		ChannelID:   "ch-basic",
		Tier:        models.TierFree,
		StaminaCost: 3,
		Enabled:     true,
	}).Error; errSeed != nil {
		t.Fatalf("seed pricing: %v", errSeed)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v0/front/billing/consume", gin.H{"channel_id": "ch-basic"})
	c.Set("userID", "user-1")

	handler.Consume(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Billing billing.Status `json:"billing"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &res); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	// First call of the day: 80 bonus minus cost 3.
	if res.Billing.Points != 77 {
		t.Fatalf("expected 77 points, got %d", res.Billing.Points)
	}
}

func TestConsumeEndpointRejectionShape(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupFrontDB(t)
	handler := NewBillingFrontHandler(billing.NewEngine(conn))

	if errSeed := conn.Create(&models.ModelPricing{
		ChannelID:    "ch-adv",
		Tier:         models.TierAdvanced,
		VipQuotaCost: 1,
		CreditCost:   10,
		Enabled:      true,
	}).Error; errSeed != nil {
		t.Fatalf("seed pricing: %v", errSeed)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v0/front/billing/consume", gin.H{"channel_id": "ch-adv"})
	c.Set("userID", "user-1")

	handler.Consume(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Billing billing.Status `json:"billing"`
	}
	if errDecode := json.Unmarshal(w.Body.Bytes(), &res); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if res.Code != string(billing.CodeVipRequired) || res.Message == "" {
		t.Fatalf("expected VIP_REQUIRED shape, got %+v", res)
	}
	if res.Billing.Points != 80 {
		t.Fatalf("expected rejection to carry the fresh view, got %+v", res.Billing)
	}
}

func TestConsumeEndpointMissingChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupFrontDB(t)
	handler := NewBillingFrontHandler(billing.NewEngine(conn))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/v0/front/billing/consume", gin.H{"channel_id": "  "})
	c.Set("userID", "user-1")

	handler.Consume(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

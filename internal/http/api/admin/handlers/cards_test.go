package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/unlimited-chat/chatbilling/internal/models"
)

func TestCardCreateNormalizesCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = adminJSONRequest(t, http.MethodPost, "/v0/admin/cards", gin.H{
		"code":   "  welcome-100 ",
		"points": 100,
	})

	handler.Create(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Card cardDTO `json:"card"`
	}
	decodeJSON(t, w, &res)
	if res.Card.Code != "WELCOME-100" {
		t.Fatalf("expected normalized code, got %q", res.Card.Code)
	}
	if res.Card.MaxUses != 1 || !res.Card.Enabled {
		t.Fatalf("expected defaults max_uses=1 enabled=true, got %+v", res.Card)
	}
}

func TestCardCreateDisabledStaysDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = adminJSONRequest(t, http.MethodPost, "/v0/admin/cards", gin.H{
		"code":    "DRAFT",
		"points":  50,
		"enabled": false,
	})

	handler.Create(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var stored models.RedeemCard
	if errFind := conn.First(&stored, "code = ?", "DRAFT").Error; errFind != nil {
		t.Fatalf("find card: %v", errFind)
	}
	if stored.Enabled {
		t.Fatalf("expected card created disabled")
	}
}

func TestCardCreateRejectsEmptyGrant(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = adminJSONRequest(t, http.MethodPost, "/v0/admin/cards", gin.H{"code": "EMPTY"})

	handler.Create(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for grantless card, got %d", w.Code)
	}
}

func TestCardCreateDuplicateCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)
	if errSeed := conn.Create(&models.RedeemCard{Code: "DUP", Points: 10, MaxUses: 1, Enabled: true}).Error; errSeed != nil {
		t.Fatalf("seed card: %v", errSeed)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = adminJSONRequest(t, http.MethodPost, "/v0/admin/cards", gin.H{"code": "dup", "points": 10})

	handler.Create(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestCardUpdateKeepsCodeAndUsage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)
	card := models.RedeemCard{Code: "KEEP", Points: 10, MaxUses: 5, UsedCount: 2, Enabled: true}
	if errSeed := conn.Create(&card).Error; errSeed != nil {
		t.Fatalf("seed card: %v", errSeed)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = adminJSONRequest(t, http.MethodPut, "/v0/admin/cards/1", gin.H{
		"code":     "CHANGED",
		"points":   25,
		"max_uses": 10,
	})
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Update(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var stored models.RedeemCard
	if errFind := conn.First(&stored, card.ID).Error; errFind != nil {
		t.Fatalf("find card: %v", errFind)
	}
	if stored.Code != "KEEP" {
		t.Fatalf("expected code immutable, got %q", stored.Code)
	}
	if stored.UsedCount != 2 {
		t.Fatalf("expected usage counter immutable, got %d", stored.UsedCount)
	}
	if stored.Points != 25 || stored.MaxUses != 10 {
		t.Fatalf("expected grant values updated, got %+v", stored)
	}
}

func TestCardDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)
	card := models.RedeemCard{Code: "BYE", Points: 10, MaxUses: 1, Enabled: true}
	if errSeed := conn.Create(&card).Error; errSeed != nil {
		t.Fatalf("seed card: %v", errSeed)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v0/admin/cards/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "1"}}

	handler.Delete(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var count int64
	if errCount := conn.Model(&models.RedeemCard{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count cards: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected card removed, got %d rows", count)
	}
}

func TestCardListOrdering(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := setupAdminDB(t)
	handler := NewCardAdminHandler(conn)
	for _, code := range []string{"A1", "B2", "C3"} {
		if errSeed := conn.Create(&models.RedeemCard{Code: code, Points: 1, MaxUses: 1, Enabled: true}).Error; errSeed != nil {
			t.Fatalf("seed card %s: %v", code, errSeed)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v0/admin/cards?limit=2", nil)

	handler.List(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Cards []cardDTO `json:"cards"`
	}
	decodeJSON(t, w, &res)
	if len(res.Cards) != 2 {
		t.Fatalf("expected limit applied, got %d cards", len(res.Cards))
	}
	if res.Cards[0].Code != "C3" {
		t.Fatalf("expected newest first, got %q", res.Cards[0].Code)
	}
}

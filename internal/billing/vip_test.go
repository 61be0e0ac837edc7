package billing

import (
	"context"
	"testing"
	"time"

	"github.com/unlimited-chat/chatbilling/internal/models"
)

func TestSyncVipSubscriptionNone(t *testing.T) {
	conn := setupBillingDB(t)
	sub, errSync := syncVipSubscription(conn, "user-1", time.Now().UTC())
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription, got %+v", sub)
	}
}

func TestSyncVipSubscriptionExpiresLazily(t *testing.T) {
	conn := setupBillingDB(t)
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

	created := models.VipSubscription{
		UserID:       "user-1",
		Active:       true,
		StartedAt:    now.AddDate(0, -2, 0),
		ExpiresAt:    now.AddDate(0, 0, -1),
		MonthlyQuota: 200,
		MonthlyUsed:  37,
		QuotaResetAt: now.AddDate(0, -1, 0),
	}
	if errCreate := conn.Create(&created).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}

	sub, errSync := syncVipSubscription(conn, "user-1", now)
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if sub != nil {
		t.Fatalf("expected expired subscription hidden, got %+v", sub)
	}

	var stored models.VipSubscription
	if errFind := conn.First(&stored, created.ID).Error; errFind != nil {
		t.Fatalf("find subscription: %v", errFind)
	}
	if stored.Active {
		t.Fatalf("expected active cleared")
	}
	rows := ledgerRows(t, conn, "user-1", models.LedgerTypeVipExpire)
	if len(rows) != 1 || rows[0].Amount != 0 || rows[0].Note != "VIP expired" {
		t.Fatalf("expected one expiry ledger row, got %+v", rows)
	}

	// Expiry is one-way: a second sync neither resurrects nor re-logs.
	sub, errSync = syncVipSubscription(conn, "user-1", now.Add(time.Hour))
	if errSync != nil {
		t.Fatalf("second sync: %v", errSync)
	}
	if sub != nil {
		t.Fatalf("expected subscription to stay expired")
	}
	if rows := ledgerRows(t, conn, "user-1", models.LedgerTypeVipExpire); len(rows) != 1 {
		t.Fatalf("expected exactly one expiry row, got %d", len(rows))
	}
}

func TestSyncVipSubscriptionRollsQuotaCycle(t *testing.T) {
	conn := setupBillingDB(t)
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)

	created := models.VipSubscription{
		UserID:       "user-1",
		Active:       true,
		StartedAt:    start,
		ExpiresAt:    now.AddDate(1, 0, 0),
		MonthlyQuota: 200,
		MonthlyUsed:  180,
		QuotaResetAt: start,
	}
	if errCreate := conn.Create(&created).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}

	sub, errSync := syncVipSubscription(conn, "user-1", now)
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if sub == nil {
		t.Fatalf("expected live subscription")
	}
	if sub.MonthlyUsed != 0 {
		t.Fatalf("expected usage reset, got %d", sub.MonthlyUsed)
	}
	want := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if !sub.QuotaResetAt.UTC().Equal(want) {
		t.Fatalf("expected cycle start %v, got %v", want, sub.QuotaResetAt)
	}
}

func TestSyncVipSubscriptionMidCycleKeepsUsage(t *testing.T) {
	conn := setupBillingDB(t)
	now := time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	created := models.VipSubscription{
		UserID:       "user-1",
		Active:       true,
		StartedAt:    start,
		ExpiresAt:    now.AddDate(0, 6, 0),
		MonthlyQuota: 200,
		MonthlyUsed:  42,
		QuotaResetAt: start,
	}
	if errCreate := conn.Create(&created).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}

	sub, errSync := syncVipSubscription(conn, "user-1", now)
	if errSync != nil {
		t.Fatalf("sync: %v", errSync)
	}
	if sub == nil || sub.MonthlyUsed != 42 {
		t.Fatalf("expected mid-cycle usage kept, got %+v", sub)
	}
}

func TestGrantVipCreatesFreshSubscription(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)

	sub, errGrant := engine.GrantVip(context.Background(), "user-1", 2, 0, "")
	if errGrant != nil {
		t.Fatalf("grant vip: %v", errGrant)
	}
	if !sub.Active {
		t.Fatalf("expected active subscription")
	}
	if sub.MonthlyQuota != 200 {
		t.Fatalf("expected default quota 200, got %d", sub.MonthlyQuota)
	}
	wantExpiry := AddMonthsUTC(sub.StartedAt, 2)
	if !sub.ExpiresAt.UTC().Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, sub.ExpiresAt)
	}

	rows := ledgerRows(t, conn, "user-1", models.LedgerTypeVipGrant)
	if len(rows) != 1 || rows[0].Amount != 2 || rows[0].Note != "admin grant vip" {
		t.Fatalf("expected one grant ledger row of 2 months, got %+v", rows)
	}
}

func TestGrantVipExtendsInPlace(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)
	now := time.Now().UTC()

	created := models.VipSubscription{
		UserID:       "user-1",
		Active:       true,
		StartedAt:    now.AddDate(0, 0, -10),
		ExpiresAt:    now.AddDate(0, 0, 20),
		MonthlyQuota: 200,
		MonthlyUsed:  93,
		QuotaResetAt: now.AddDate(0, 0, -10),
	}
	if errCreate := conn.Create(&created).Error; errCreate != nil {
		t.Fatalf("seed subscription: %v", errCreate)
	}

	sub, errGrant := engine.GrantVip(context.Background(), "user-1", 1, 500, "")
	if errGrant != nil {
		t.Fatalf("grant vip: %v", errGrant)
	}
	if sub.ID != created.ID {
		t.Fatalf("expected the existing row extended, got new id %d", sub.ID)
	}
	wantExpiry := AddMonthsUTC(created.ExpiresAt, 1)
	if !sub.ExpiresAt.UTC().Equal(wantExpiry.UTC()) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, sub.ExpiresAt)
	}
	if sub.MonthlyQuota != 500 {
		t.Fatalf("expected quota replaced with 500, got %d", sub.MonthlyQuota)
	}
	if sub.MonthlyUsed != 93 {
		t.Fatalf("expected current-cycle usage kept, got %d", sub.MonthlyUsed)
	}

	var count int64
	if errCount := conn.Model(&models.VipSubscription{}).Where("user_id = ?", "user-1").Count(&count).Error; errCount != nil {
		t.Fatalf("count subscriptions: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single subscription row, got %d", count)
	}
}

func TestGrantVipClampsMonths(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)

	sub, errGrant := engine.GrantVip(context.Background(), "user-1", 0, 0, "")
	if errGrant != nil {
		t.Fatalf("grant vip: %v", errGrant)
	}
	wantExpiry := AddMonthsUTC(sub.StartedAt, 1)
	if !sub.ExpiresAt.UTC().Equal(wantExpiry) {
		t.Fatalf("expected months clamped to 1, got expiry %v", sub.ExpiresAt)
	}
}

package billing

import (
	"context"
	"testing"

	"github.com/unlimited-chat/chatbilling/internal/models"
)

func TestGrantPointsIgnoresCap(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)
	seedWalletBalance(t, engine, "user-1", 290)

	wallet, errGrant := engine.GrantPoints(context.Background(), "user-1", 100, "")
	if errGrant != nil {
		t.Fatalf("grant points: %v", errGrant)
	}
	if wallet.Stamina != 390 {
		t.Fatalf("expected admin grant to exceed the cap, got %d", wallet.Stamina)
	}

	rows := ledgerRows(t, conn, "user-1", models.LedgerTypeCreditGrant)
	if len(rows) != 1 || rows[0].Amount != 100 || rows[0].Note != "admin grant points" {
		t.Fatalf("expected one +100 grant row, got %+v", rows)
	}
}

func TestGrantPointsCreatesWallet(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)

	wallet, errGrant := engine.GrantPoints(context.Background(), "user-new", 25, "welcome")
	if errGrant != nil {
		t.Fatalf("grant points: %v", errGrant)
	}
	if wallet.Stamina != 25 {
		t.Fatalf("expected fresh wallet at 25, got %d", wallet.Stamina)
	}
	rows := ledgerRows(t, conn, "user-new", models.LedgerTypeCreditGrant)
	if len(rows) != 1 || rows[0].Note != "welcome" {
		t.Fatalf("expected custom note kept, got %+v", rows)
	}
}

func TestGrantPointsNonPositiveIsNoop(t *testing.T) {
	conn := setupBillingDB(t)
	engine := NewEngine(conn)
	seedWalletBalance(t, engine, "user-1", 50)

	wallet, errGrant := engine.GrantPoints(context.Background(), "user-1", 0, "")
	if errGrant != nil {
		t.Fatalf("grant points: %v", errGrant)
	}
	if wallet.Stamina != 50 {
		t.Fatalf("expected balance unchanged, got %d", wallet.Stamina)
	}
	if rows := ledgerRows(t, conn, "user-1", models.LedgerTypeCreditGrant); len(rows) != 0 {
		t.Fatalf("expected no ledger row, got %+v", rows)
	}
}

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"barsnow/backend/internal/domain"
)

func TestDebtPaymentRoundTrip(t *testing.T) {
	databaseURL := os.Getenv("BARSNOW_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set BARSNOW_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	debtID := fmt.Sprintf("debt-it-%d", stamp)
	payID := fmt.Sprintf("pay-it-%d", stamp)
	person := fmt.Sprintf("Persona IT %d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM debt_payments WHERE debt_id = $1`, debtID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, debtID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO debts (id, debt_date, person, reason, amount, balance, created_at)
		VALUES ($1, '2026-08-30', $2, 'Descuadre Barra', 50000, 50000, now())
	`, debtID, person); err != nil {
		t.Fatalf("insert debt: %v", err)
	}

	debt, err := s.GetDebtByID(ctx, debtID)
	if err != nil {
		t.Fatalf("get debt: %v", err)
	}
	if debt.Balance != 50000 {
		t.Fatalf("expected balance 50000, got %d", debt.Balance)
	}

	debt.Balance -= 20000
	if _, err := s.UpdateDebt(ctx, *debt); err != nil {
		t.Fatalf("update debt: %v", err)
	}

	payment := domain.DebtPayment{
		ID:     payID,
		DebtID: debtID,
		Date:   "2026-08-31",
		Amount: 20000,
		Method: "Efectivo",
	}
	if err := s.CreateDebtPayment(ctx, payment); err != nil {
		t.Fatalf("create payment: %v", err)
	}

	updated, err := s.GetDebtByID(ctx, debtID)
	if err != nil {
		t.Fatalf("reload debt: %v", err)
	}
	if updated.Balance != 30000 {
		t.Fatalf("expected balance 30000 after payment, got %d", updated.Balance)
	}

	payments, err := s.ListDebtPayments(ctx, debtID)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	if payments[0].Amount != 20000 {
		t.Fatalf("expected payment amount 20000, got %d", payments[0].Amount)
	}

	open, err := s.ListDebtsByPerson(ctx, person, true)
	if err != nil {
		t.Fatalf("list open debts: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("expected 1 open debt for person, got %d", len(open))
	}
}

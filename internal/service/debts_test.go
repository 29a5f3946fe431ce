package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
)

func registerTestDebt(t *testing.T, svc *Service, date string, person string, amount int64) domain.Debt {
	t.Helper()
	debt, err := svc.RegisterDebt(adminCtx(), domain.DebtCreateRequest{
		Date:   date,
		Person: person,
		Reason: "Préstamo",
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("register debt failed: %v", err)
	}
	return debt
}

func TestRegisterDebtRequiresAdmin(t *testing.T) {
	svc := newTestService()

	_, err := svc.RegisterDebt(cashierCtx(), domain.DebtCreateRequest{
		Date:   today(),
		Person: "Julián",
		Reason: "Préstamo",
		Amount: 10000,
	})
	if err == nil {
		t.Fatalf("expected non-admin debt registration to fail")
	}
}

func TestPayDebtPartialThenSettle(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 50000)

	partial, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 20000, Method: domain.PayCash})
	if err != nil {
		t.Fatalf("partial payment failed: %v", err)
	}
	if partial.NewBalance != 30000 {
		t.Fatalf("expected balance 30000, got %d", partial.NewBalance)
	}
	if partial.Settled {
		t.Fatalf("expected debt still open after partial payment")
	}

	final, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 30000, Method: domain.PayTransfer})
	if err != nil {
		t.Fatalf("final payment failed: %v", err)
	}
	if final.NewBalance != 0 || !final.Settled {
		t.Fatalf("expected debt settled, got balance %d settled %t", final.NewBalance, final.Settled)
	}
}

func TestPayDebtRejectsOverpayment(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 10000)

	_, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 20000})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected overpayment to be rejected, got %v", err)
	}
}

func TestPayDebtOnSettledDebtFails(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 10000)

	if _, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 10000}); err != nil {
		t.Fatalf("settling payment failed: %v", err)
	}
	_, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 1000})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected payment on settled debt to be rejected, got %v", err)
	}
}

func TestPayPersonAppliesOldestFirst(t *testing.T) {
	svc := newTestService()
	yesterday := time.Now().AddDate(0, 0, -1).Format(dateLayout)

	oldest := registerTestDebt(t, svc, yesterday, "Julián", 30000)
	newest := registerTestDebt(t, svc, today(), "Julián", 20000)

	result, err := svc.PayPerson(adminCtx(), domain.PersonPaymentRequest{
		Person: "Julián",
		Amount: 40000,
		Method: domain.PayCash,
	})
	if err != nil {
		t.Fatalf("pay person failed: %v", err)
	}
	if result.Paid != 40000 {
		t.Fatalf("expected 40000 applied, got %d", result.Paid)
	}
	if len(result.Applied) != 2 {
		t.Fatalf("expected payment across 2 debts, got %d", len(result.Applied))
	}
	if result.Applied[0].DebtID != oldest.ID || !result.Applied[0].Settled {
		t.Fatalf("expected oldest debt settled first")
	}
	if result.Applied[1].DebtID != newest.ID || result.Applied[1].NewBalance != 10000 {
		t.Fatalf("expected 10000 left on the newest debt, got %d", result.Applied[1].NewBalance)
	}
}

func TestPayPersonRejectsOverTotal(t *testing.T) {
	svc := newTestService()
	registerTestDebt(t, svc, today(), "Julián", 30000)

	_, err := svc.PayPerson(adminCtx(), domain.PersonPaymentRequest{
		Person: "Julián",
		Amount: 100000,
	})
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected payment over total balance to be rejected, got %v", err)
	}
}

func TestCondoneDebtMarksReason(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 25000)

	if _, err := svc.CondoneDebt(cashierCtx(), debt.ID, ""); err == nil {
		t.Fatalf("expected non-admin condone to fail")
	}

	condoned, err := svc.CondoneDebt(adminCtx(), debt.ID, "Se cayó la caja")
	if err != nil {
		t.Fatalf("condone failed: %v", err)
	}
	if condoned.Balance != 0 {
		t.Fatalf("expected balance 0 after condone, got %d", condoned.Balance)
	}
	if !strings.HasSuffix(condoned.Reason, domain.CondonedSuffix) {
		t.Fatalf("expected condoned marker on the reason, got %q", condoned.Reason)
	}

	_, err = svc.CondoneDebt(adminCtx(), debt.ID, "")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected second condone to be rejected, got %v", err)
	}
}

func TestListDebtorsGroupsByPerson(t *testing.T) {
	svc := newTestService()
	registerTestDebt(t, svc, today(), "Julián", 30000)
	registerTestDebt(t, svc, today(), "Julián", 10000)
	registerTestDebt(t, svc, today(), "Marcela", 5000)

	debtors, err := svc.ListDebtors(context.Background())
	if err != nil {
		t.Fatalf("list debtors failed: %v", err)
	}
	if len(debtors) != 2 {
		t.Fatalf("expected 2 debtors, got %d", len(debtors))
	}

	totals := map[string]int64{}
	for _, debtor := range debtors {
		totals[debtor.Person] = debtor.Total
	}
	if totals["Julián"] != 40000 {
		t.Fatalf("expected Julián total 40000, got %d", totals["Julián"])
	}
	if totals["Marcela"] != 5000 {
		t.Fatalf("expected Marcela total 5000, got %d", totals["Marcela"])
	}
}

func TestListDebtorsOmitsSettled(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 10000)

	if _, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 10000}); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	debtors, err := svc.ListDebtors(context.Background())
	if err != nil {
		t.Fatalf("list debtors failed: %v", err)
	}
	if len(debtors) != 0 {
		t.Fatalf("expected no open debtors after settling, got %d", len(debtors))
	}
}

func TestListDebtPaymentsHistory(t *testing.T) {
	svc := newTestService()
	debt := registerTestDebt(t, svc, today(), "Julián", 50000)

	if _, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 20000, Method: domain.PayCash}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	if _, err := svc.PayDebt(adminCtx(), debt.ID, domain.DebtPaymentRequest{Amount: 15000, Method: domain.PayTransfer}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	payments, err := svc.ListDebtPayments(context.Background(), debt.ID)
	if err != nil {
		t.Fatalf("list payments failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(payments))
	}
	var total int64
	for _, p := range payments {
		total += p.Amount
	}
	if total != 35000 {
		t.Fatalf("expected payment history total 35000, got %d", total)
	}

	if _, err := svc.ListDebtPayments(context.Background(), "debt-nonexistent"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for unknown debt, got %v", err)
	}
}

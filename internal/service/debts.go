package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
	"barsnow/backend/internal/xid"
)

// ListDebtors groups the open debts by person, newest first within each
// person, with per-person totals.
func (s *Service) ListDebtors(ctx context.Context) ([]domain.DebtorSummary, error) {
	debts, err := s.repo.ListOpenDebts(ctx)
	if err != nil {
		return nil, err
	}

	byPerson := make(map[string]*domain.DebtorSummary)
	for _, debt := range debts {
		summary := byPerson[debt.Person]
		if summary == nil {
			summary = &domain.DebtorSummary{Person: debt.Person}
			byPerson[debt.Person] = summary
		}
		summary.Debts = append(summary.Debts, debt)
		summary.Total += debt.Balance
	}

	debtors := make([]domain.DebtorSummary, 0, len(byPerson))
	for _, summary := range byPerson {
		debtors = append(debtors, *summary)
	}
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].Person < debtors[j].Person })
	return debtors, nil
}

func (s *Service) RegisterDebt(ctx context.Context, req domain.DebtCreateRequest) (domain.Debt, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Debt{}, fmt.Errorf("admin role required")
	}

	req.Person = strings.TrimSpace(req.Person)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validDate(strings.TrimSpace(req.Date)); err != nil {
		return domain.Debt{}, err
	}
	if req.Person == "" || req.Reason == "" || req.Amount < 1 {
		return domain.Debt{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateDebt(ctx, domain.Debt{
		ID:        xid.New("debt"),
		Date:      strings.TrimSpace(req.Date),
		Person:    req.Person,
		Reason:    req.Reason,
		Amount:    req.Amount,
		Balance:   req.Amount,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Debt{}, err
	}

	s.logActivity(ctx, "debt_register", "debt", created.ID, fmt.Sprintf("person=%s,amount=%d", created.Person, created.Amount))
	return *created, nil
}

// PayDebt applies a payment to a single debt. The amount must be positive
// and not exceed the open balance.
func (s *Service) PayDebt(ctx context.Context, debtID string, req domain.DebtPaymentRequest) (domain.DebtPaymentResult, error) {
	debtID = strings.TrimSpace(debtID)
	if debtID == "" {
		return domain.DebtPaymentResult{}, store.ErrInvalidInput
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if err := validDate(date); err != nil {
		return domain.DebtPaymentResult{}, err
	}
	req.Date = date

	debt, err := s.repo.GetDebtByID(ctx, debtID)
	if err != nil {
		return domain.DebtPaymentResult{}, err
	}

	result, err := s.applyPayment(ctx, *debt, req)
	if err != nil {
		return domain.DebtPaymentResult{}, err
	}

	s.logActivity(ctx, "debt_pay", "debt", debt.ID, fmt.Sprintf("paid=%d,balance=%d", result.Paid, result.NewBalance))
	return result, nil
}

// PayPerson applies one payment across all open debts of a person, oldest
// first. The amount must not exceed the person's total open balance.
func (s *Service) PayPerson(ctx context.Context, req domain.PersonPaymentRequest) (domain.PersonPaymentResult, error) {
	person := strings.TrimSpace(req.Person)
	if person == "" {
		return domain.PersonPaymentResult{}, fmt.Errorf("%w: person required", store.ErrInvalidInput)
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = time.Now().Format(dateLayout)
	}
	if err := validDate(date); err != nil {
		return domain.PersonPaymentResult{}, err
	}
	if req.Amount < 1 {
		return domain.PersonPaymentResult{}, fmt.Errorf("%w: payment must be positive", store.ErrInvalidInput)
	}

	debts, err := s.repo.ListDebtsByPerson(ctx, person, true)
	if err != nil {
		return domain.PersonPaymentResult{}, err
	}

	var total int64
	for _, debt := range debts {
		total += debt.Balance
	}
	if req.Amount > total {
		return domain.PersonPaymentResult{}, fmt.Errorf("%w: payment %d exceeds open balance %d", store.ErrInvalidInput, req.Amount, total)
	}

	result := domain.PersonPaymentResult{Person: person}
	remaining := req.Amount
	for _, debt := range debts {
		if remaining <= 0 {
			break
		}
		portion := remaining
		if portion > debt.Balance {
			portion = debt.Balance
		}
		applied, err := s.applyPayment(ctx, debt, domain.DebtPaymentRequest{
			Date:   date,
			Amount: portion,
			Method: req.Method,
		})
		if err != nil {
			return domain.PersonPaymentResult{}, err
		}
		result.Applied = append(result.Applied, applied)
		result.Paid += applied.Paid
		remaining -= applied.Paid
	}

	s.logActivity(ctx, "debt_pay_person", "debt", person, fmt.Sprintf("paid=%d,debts=%d", result.Paid, len(result.Applied)))
	return result, nil
}

// applyPayment decrements the debt balance and writes the payment history
// row best-effort: a history failure is logged, never propagated.
func (s *Service) applyPayment(ctx context.Context, debt domain.Debt, req domain.DebtPaymentRequest) (domain.DebtPaymentResult, error) {
	if debt.Balance <= 0 {
		return domain.DebtPaymentResult{}, fmt.Errorf("%w: debt %s is already settled", store.ErrInvalidInput, debt.ID)
	}
	if req.Amount < 1 {
		return domain.DebtPaymentResult{}, fmt.Errorf("%w: payment must be positive", store.ErrInvalidInput)
	}
	if req.Amount > debt.Balance {
		return domain.DebtPaymentResult{}, fmt.Errorf("%w: payment %d exceeds balance %d", store.ErrInvalidInput, req.Amount, debt.Balance)
	}

	debt.Balance -= req.Amount
	updated, err := s.repo.UpdateDebt(ctx, debt)
	if err != nil {
		return domain.DebtPaymentResult{}, err
	}

	err = s.repo.CreateDebtPayment(ctx, domain.DebtPayment{
		ID:     xid.New("pay"),
		DebtID: debt.ID,
		Date:   req.Date,
		Amount: req.Amount,
		Method: strings.TrimSpace(req.Method),
		Notes:  strings.TrimSpace(req.Notes),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to record payment history for debt %s: %v", debt.ID, err)
	}

	return domain.DebtPaymentResult{
		DebtID:     updated.ID,
		Paid:       req.Amount,
		NewBalance: updated.Balance,
		Settled:    updated.Balance == 0,
	}, nil
}

// CondoneDebt forgives an open debt: the balance drops to zero and the
// reason is marked so the ledger keeps the trace.
func (s *Service) CondoneDebt(ctx context.Context, debtID string, motive string) (domain.Debt, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Debt{}, fmt.Errorf("admin role required")
	}

	debtID = strings.TrimSpace(debtID)
	if debtID == "" {
		return domain.Debt{}, store.ErrInvalidInput
	}

	debt, err := s.repo.GetDebtByID(ctx, debtID)
	if err != nil {
		return domain.Debt{}, err
	}
	if debt.Balance <= 0 {
		return domain.Debt{}, fmt.Errorf("%w: debt %s is already settled", store.ErrInvalidInput, debt.ID)
	}

	reason := strings.TrimSpace(motive)
	if reason == "" {
		reason = debt.Reason
	}
	debt.Reason = reason + domain.CondonedSuffix
	debt.Balance = 0

	updated, err := s.repo.UpdateDebt(ctx, *debt)
	if err != nil {
		return domain.Debt{}, err
	}

	s.logActivity(ctx, "debt_condone", "debt", updated.ID, fmt.Sprintf("person=%s,amount=%d", updated.Person, updated.Amount))
	return *updated, nil
}

func (s *Service) ListDebtPayments(ctx context.Context, debtID string) ([]domain.DebtPayment, error) {
	debtID = strings.TrimSpace(debtID)
	if debtID == "" {
		return nil, store.ErrInvalidInput
	}
	if _, err := s.repo.GetDebtByID(ctx, debtID); err != nil {
		return nil, err
	}
	return s.repo.ListDebtPayments(ctx, debtID)
}

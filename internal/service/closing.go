package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
	"barsnow/backend/internal/xid"
)

// acquireClose takes the single-flight slot for a (date, station) close.
// It returns false when another close for the same slot is running.
func (s *Service) acquireClose(date string, pos string) bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	key := date + "|" + pos
	if _, busy := s.closing[key]; busy {
		return false
	}
	s.closing[key] = struct{}{}
	return true
}

func (s *Service) releaseClose(date string, pos string) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	delete(s.closing, date+"|"+pos)
}

// InferCashSales compares the physical bottle counts of a station against
// recorded movement and writes a cash sale for every unit that left the
// shelf without a register entry.
//
// required = initial + purchases - final. Already-recorded quantity counts
// sales of every payment method, which is what makes a second run a no-op:
// the first run's inferred sale raises the recorded quantity to match.
func (s *Service) InferCashSales(ctx context.Context, date string, pos string) (domain.InferenceResult, error) {
	date = strings.TrimSpace(date)
	pos = strings.TrimSpace(pos)

	if err := validDate(date); err != nil {
		return domain.InferenceResult{}, err
	}
	if !validPOS(pos) {
		return domain.InferenceResult{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}

	if !s.acquireClose(date, pos) {
		return domain.InferenceResult{}, ErrCloseInProgress
	}
	defer s.releaseClose(date, pos)

	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return domain.InferenceResult{}, err
	}

	result := domain.InferenceResult{
		Date:     date,
		POS:      pos,
		Inferred: make([]domain.InferredSale, 0, 8),
	}

	for _, product := range products {
		if product.POS != pos || product.SKU == s.cupSKU {
			continue
		}

		count, err := s.repo.GetInventoryCount(ctx, date, pos, product.ID)
		if errors.Is(err, store.ErrNotFound) {
			result.Skipped = append(result.Skipped, domain.InferenceSkip{
				ProductID:   product.ID,
				ProductName: product.Name,
				Reason:      "sin conteo de inventario",
			})
			continue
		}
		if err != nil {
			result.Failures = append(result.Failures, inferenceFailure(product, err))
			continue
		}

		purchased, err := s.repo.SumPurchaseQty(ctx, date, pos, product.ID)
		if err != nil {
			result.Failures = append(result.Failures, inferenceFailure(product, err))
			continue
		}
		recorded, err := s.repo.SumSaleQty(ctx, date, pos, product.ID)
		if err != nil {
			result.Failures = append(result.Failures, inferenceFailure(product, err))
			continue
		}

		required := count.InitialQty + purchased - count.FinalQty
		toInfer := required - recorded
		if toInfer <= 0 {
			continue
		}

		amount := int64(toInfer) * product.Price
		sale := domain.Sale{
			ID:         xid.New("sale"),
			Date:       date,
			Time:       domain.InferredSaleTime,
			POS:        pos,
			ProductID:  product.ID,
			Qty:        toInfer,
			PayMethod:  domain.PayCash,
			CashAmount: amount,
			Notes:      domain.InferredSaleNote,
			CreatedAt:  time.Now().UTC(),
		}

		created, err := s.repo.CreateSale(ctx, sale)
		if err != nil {
			result.Failures = append(result.Failures, inferenceFailure(product, err))
			continue
		}
		if err := s.recordSaleMoves(ctx, *created, product); err != nil {
			log.Printf("[service] WARN: failed to record movement for inferred sale %s: %v", created.ID, err)
		}

		result.Inferred = append(result.Inferred, domain.InferredSale{
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         toInfer,
			Amount:      amount,
		})
		result.Total += amount
	}

	s.logActivity(ctx, "infer_cash_sales", "close", date+"/"+pos, fmt.Sprintf("inferred=%d,skipped=%d,failed=%d,total=%d", len(result.Inferred), len(result.Skipped), len(result.Failures), result.Total))
	return result, nil
}

func inferenceFailure(product domain.Product, err error) domain.InferenceSkip {
	return domain.InferenceSkip{
		ProductID:   product.ID,
		ProductName: product.Name,
		Reason:      err.Error(),
	}
}

// ExpectedCash sums the cash portion of every sale of the station for the
// day, covering pure cash sales and the cash half of mixed payments.
func (s *Service) ExpectedCash(ctx context.Context, date string, pos string) (int64, error) {
	date = strings.TrimSpace(date)
	pos = strings.TrimSpace(pos)

	if err := validDate(date); err != nil {
		return 0, err
	}
	if !validPOS(pos) {
		return 0, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}

	sales, err := s.repo.ListSalesByDate(ctx, date, pos)
	if err != nil {
		return 0, err
	}

	var expected int64
	for _, sale := range sales {
		expected += sale.CashAmount
	}
	return expected, nil
}

// RecordCashCount checks the counted drawer cash against the expected cash
// and turns a shortage into a debt against the station manager. A surplus
// is reported but never becomes a debt. Re-running the close for the same
// date and station reuses the already-created shortage debt.
func (s *Service) RecordCashCount(ctx context.Context, date string, pos string, counted int64) (domain.CashCheckResult, error) {
	date = strings.TrimSpace(date)
	pos = strings.TrimSpace(pos)

	if err := validDate(date); err != nil {
		return domain.CashCheckResult{}, err
	}
	if !validPOS(pos) {
		return domain.CashCheckResult{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}
	if counted < 0 {
		return domain.CashCheckResult{}, fmt.Errorf("%w: counted cash must not be negative", store.ErrInvalidInput)
	}

	if !s.acquireClose(date, pos) {
		return domain.CashCheckResult{}, ErrCloseInProgress
	}
	defer s.releaseClose(date, pos)

	expected, err := s.ExpectedCash(ctx, date, pos)
	if err != nil {
		return domain.CashCheckResult{}, err
	}

	result := domain.CashCheckResult{
		Date:     date,
		POS:      pos,
		Expected: expected,
		Counted:  counted,
	}
	if diff := expected - counted; diff > 0 {
		result.Shortage = diff
	} else {
		result.Surplus = -diff
	}

	if result.Shortage == 0 {
		s.logActivity(ctx, "cash_count", "close", date+"/"+pos, fmt.Sprintf("expected=%d,counted=%d,surplus=%d", expected, counted, result.Surplus))
		return result, nil
	}

	manager, err := s.repo.GetStationManager(ctx, pos)
	if errors.Is(err, store.ErrNotFound) {
		result.Unassigned = true
		log.Printf("[service] WARN: shortage of %d on %s %s has no station manager to charge", result.Shortage, pos, date)
		s.logActivity(ctx, "cash_count", "close", date+"/"+pos, fmt.Sprintf("expected=%d,counted=%d,shortage=%d,unassigned=true", expected, counted, result.Shortage))
		return result, nil
	}
	if err != nil {
		return domain.CashCheckResult{}, err
	}
	result.Manager = manager.Manager

	reason := "Descuadre " + pos
	existing, err := s.repo.FindDebtByReasonDate(ctx, reason, date)
	if err == nil {
		result.DebtID = existing.ID
		return result, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.CashCheckResult{}, err
	}

	debt, err := s.repo.CreateDebt(ctx, domain.Debt{
		ID:        xid.New("debt"),
		Date:      date,
		Person:    manager.Manager,
		Reason:    reason,
		Amount:    result.Shortage,
		Balance:   result.Shortage,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.CashCheckResult{}, err
	}
	result.DebtID = debt.ID

	s.logActivity(ctx, "cash_count", "close", date+"/"+pos, fmt.Sprintf("expected=%d,counted=%d,shortage=%d,debt=%s", expected, counted, result.Shortage, debt.ID))
	return result, nil
}

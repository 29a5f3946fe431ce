package service

import (
	"context"
	"errors"
	"testing"

	"barsnow/backend/internal/domain"
)

func TestInferCashSalesWritesMissingUnits(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	// 10 bottles at open, 5 restocked, 3 left on the shelf: 12 went out.
	if _, err := svc.SaveInventoryCounts(ctx, date, domain.POSBarra, []domain.InventoryCountEntry{
		{ProductID: "prod-cerveza", InitialQty: 10, FinalQty: 3},
	}); err != nil {
		t.Fatalf("save counts failed: %v", err)
	}
	if _, err := svc.RecordPurchase(ctx, domain.PurchaseCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       5,
		UnitCost:  4000,
	}); err != nil {
		t.Fatalf("record purchase failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayTransfer,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	result, err := svc.InferCashSales(ctx, date, domain.POSBarra)
	if err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	if len(result.Inferred) != 1 {
		t.Fatalf("expected 1 inferred product, got %d", len(result.Inferred))
	}
	if result.Inferred[0].Qty != 10 {
		t.Fatalf("expected 10 inferred units, got %d", result.Inferred[0].Qty)
	}
	if result.Inferred[0].Amount != 60000 {
		t.Fatalf("expected inferred amount 60000, got %d", result.Inferred[0].Amount)
	}
	if result.Total != 60000 {
		t.Fatalf("expected inferred total 60000, got %d", result.Total)
	}
	// Products of the station without a count are reported, not failed.
	if len(result.Skipped) == 0 {
		t.Fatalf("expected uncounted products to be skipped")
	}

	sales, err := svc.ListSales(context.Background(), date, domain.POSBarra)
	if err != nil {
		t.Fatalf("list sales failed: %v", err)
	}
	var inferred *domain.Sale
	for i := range sales {
		if sales[i].Notes == domain.InferredSaleNote {
			inferred = &sales[i]
			break
		}
	}
	if inferred == nil {
		t.Fatalf("expected inferred sale in the register")
	}
	if inferred.PayMethod != domain.PayCash {
		t.Fatalf("expected inferred sale to be cash, got %s", inferred.PayMethod)
	}
	if inferred.Time != domain.InferredSaleTime {
		t.Fatalf("expected inferred sale at %s, got %s", domain.InferredSaleTime, inferred.Time)
	}
	if inferred.CashAmount != 60000 {
		t.Fatalf("expected inferred cash 60000, got %d", inferred.CashAmount)
	}
}

func TestInferCashSalesSecondRunIsNoOp(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.SaveInventoryCounts(ctx, date, domain.POSBarra, []domain.InventoryCountEntry{
		{ProductID: "prod-cerveza", InitialQty: 8, FinalQty: 5},
	}); err != nil {
		t.Fatalf("save counts failed: %v", err)
	}

	first, err := svc.InferCashSales(ctx, date, domain.POSBarra)
	if err != nil {
		t.Fatalf("first infer failed: %v", err)
	}
	if first.Total != 18000 {
		t.Fatalf("expected first run to infer 18000, got %d", first.Total)
	}

	second, err := svc.InferCashSales(ctx, date, domain.POSBarra)
	if err != nil {
		t.Fatalf("second infer failed: %v", err)
	}
	if len(second.Inferred) != 0 || second.Total != 0 {
		t.Fatalf("expected second run to infer nothing, got %d units for %d", len(second.Inferred), second.Total)
	}
}

func TestInferCashSalesNothingMissing(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.SaveInventoryCounts(ctx, date, domain.POSBarra, []domain.InventoryCountEntry{
		{ProductID: "prod-ron", InitialQty: 5, FinalQty: 5},
	}); err != nil {
		t.Fatalf("save counts failed: %v", err)
	}

	result, err := svc.InferCashSales(ctx, date, domain.POSBarra)
	if err != nil {
		t.Fatalf("infer failed: %v", err)
	}
	if len(result.Inferred) != 0 {
		t.Fatalf("expected no inferred sales for an untouched shelf, got %d", len(result.Inferred))
	}
}

func TestInferCashSalesRejectsWhileCloseRunning(t *testing.T) {
	svc := newTestService()
	date := today()

	if !svc.acquireClose(date, domain.POSBarra) {
		t.Fatalf("expected to take the close slot")
	}
	defer svc.releaseClose(date, domain.POSBarra)

	_, err := svc.InferCashSales(adminCtx(), date, domain.POSBarra)
	if !errors.Is(err, ErrCloseInProgress) {
		t.Fatalf("expected close-in-progress error, got %v", err)
	}

	_, err = svc.RecordCashCount(adminCtx(), date, domain.POSBarra, 0)
	if !errors.Is(err, ErrCloseInProgress) {
		t.Fatalf("expected close-in-progress error for cash count, got %v", err)
	}
}

func TestExpectedCashSumsCashPortions(t *testing.T) {
	svc := newTestService()
	ctx := cashierCtx()
	date := today()

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("cash sale failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:           date,
		POS:            domain.POSBarra,
		ProductID:      "prod-cerveza",
		Qty:            1,
		PayMethod:      domain.PayMixed,
		CashAmount:     4000,
		TransferAmount: 2000,
	}); err != nil {
		t.Fatalf("mixed sale failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       1,
		PayMethod: domain.PayTransfer,
	}); err != nil {
		t.Fatalf("transfer sale failed: %v", err)
	}

	expected, err := svc.ExpectedCash(context.Background(), date, domain.POSBarra)
	if err != nil {
		t.Fatalf("expected cash failed: %v", err)
	}
	if expected != 16000 {
		t.Fatalf("expected 16000 in the drawer, got %d", expected)
	}
}

func TestRecordCashCountExactMatch(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	result, err := svc.RecordCashCount(ctx, date, domain.POSBarra, 12000)
	if err != nil {
		t.Fatalf("cash count failed: %v", err)
	}
	if result.Shortage != 0 || result.Surplus != 0 {
		t.Fatalf("expected exact match, got shortage %d surplus %d", result.Shortage, result.Surplus)
	}
	if result.DebtID != "" {
		t.Fatalf("expected no debt for an exact match")
	}
}

func TestRecordCashCountShortageCreatesDebt(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	result, err := svc.RecordCashCount(ctx, date, domain.POSBarra, 7000)
	if err != nil {
		t.Fatalf("cash count failed: %v", err)
	}
	if result.Shortage != 5000 {
		t.Fatalf("expected shortage 5000, got %d", result.Shortage)
	}
	if result.Manager != "Camilo" {
		t.Fatalf("expected shortage charged to Camilo, got %s", result.Manager)
	}
	if result.DebtID == "" {
		t.Fatalf("expected a debt for the shortage")
	}

	debtors, err := svc.ListDebtors(context.Background())
	if err != nil {
		t.Fatalf("list debtors failed: %v", err)
	}
	found := false
	for _, debtor := range debtors {
		if debtor.Person != "Camilo" {
			continue
		}
		for _, debt := range debtor.Debts {
			if debt.ID == result.DebtID && debt.Reason == "Descuadre "+domain.POSBarra {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("expected shortage debt in the ledger")
	}
}

func TestRecordCashCountRepeatReusesDebt(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	first, err := svc.RecordCashCount(ctx, date, domain.POSBarra, 7000)
	if err != nil {
		t.Fatalf("first cash count failed: %v", err)
	}
	second, err := svc.RecordCashCount(ctx, date, domain.POSBarra, 7000)
	if err != nil {
		t.Fatalf("second cash count failed: %v", err)
	}
	if first.DebtID == "" || first.DebtID != second.DebtID {
		t.Fatalf("expected repeated close to reuse debt %s, got %s", first.DebtID, second.DebtID)
	}
}

func TestRecordCashCountSurplusNoDebt(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	result, err := svc.RecordCashCount(ctx, date, domain.POSBarra, 20000)
	if err != nil {
		t.Fatalf("cash count failed: %v", err)
	}
	if result.Surplus != 8000 {
		t.Fatalf("expected surplus 8000, got %d", result.Surplus)
	}
	if result.Shortage != 0 || result.DebtID != "" {
		t.Fatalf("expected no debt for a surplus")
	}
}

func TestRecordCashCountUnassignedManager(t *testing.T) {
	svc := newTestService()
	ctx := adminCtx()
	date := today()

	if _, err := svc.SetStationManager(ctx, domain.POSGranizados, ""); err != nil {
		t.Fatalf("clear station manager failed: %v", err)
	}
	if _, err := svc.RecordSale(ctx, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSGranizados,
		ProductID: "prod-grz-mango",
		Qty:       1,
		PayMethod: domain.PayCash,
	}); err != nil {
		t.Fatalf("record sale failed: %v", err)
	}

	result, err := svc.RecordCashCount(ctx, date, domain.POSGranizados, 0)
	if err != nil {
		t.Fatalf("cash count failed: %v", err)
	}
	if !result.Unassigned {
		t.Fatalf("expected shortage to be reported as unassigned")
	}
	if result.DebtID != "" {
		t.Fatalf("expected no debt without a station manager")
	}
	if result.Shortage != 8000 {
		t.Fatalf("expected shortage 8000, got %d", result.Shortage)
	}
}

func TestRecordCashCountRejectsNegativeCount(t *testing.T) {
	svc := newTestService()

	if _, err := svc.RecordCashCount(adminCtx(), today(), domain.POSBarra, -1); err == nil {
		t.Fatalf("expected negative counted cash to be rejected")
	}
}

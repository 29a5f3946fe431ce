package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"barsnow/backend/internal/domain"
)

func testSummary() domain.PeriodSummary {
	return domain.PeriodSummary{
		From:              "2025-01-01",
		To:                "2025-01-31",
		Revenue:           500000,
		CashCollected:     350000,
		TransferCollected: 150000,
		SaleCount:         42,
		COGS:              200000,
		GrossProfit:       300000,
		OperatingExpenses: 50000,
		PayrollExpenses:   110000,
		WeeklyExpenses:    40000,
		PartnerDraws:      20000,
		OperatingResult:   80000,
		MarginsValid:      true,
		GrossMarginPct:    60,
		ExpensesByType:    map[string]int64{domain.ExpenseOperating: 50000},
		DrawsByPartner:    map[string]int64{"Camilo": 20000},
	}
}

func TestPeriodSummaryXLSXSheets(t *testing.T) {
	dist := &domain.Distribution{
		OperatingResult: 80000,
		Shares: []domain.PartnerShare{
			{Name: "Camilo", SharePct: 50, BaseShare: 40000, Deduction: 20000, NetShare: 20000},
			{Name: "Esteban", SharePct: 50, BaseShare: 40000, NetShare: 40000},
		},
		Distributed: 60000,
	}

	payload, err := PeriodSummaryXLSX(testSummary(), dist)
	if err != nil {
		t.Fatalf("render xlsx failed: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("expected non-empty workbook")
	}

	file, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("reopen workbook failed: %v", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	want := map[string]bool{"Resumen": false, "Gastos": false, "Reparto": false}
	for _, sheet := range sheets {
		if _, ok := want[sheet]; ok {
			want[sheet] = true
		}
	}
	for sheet, found := range want {
		if !found {
			t.Fatalf("expected sheet %s in workbook, got %v", sheet, sheets)
		}
	}

	period, err := file.GetCellValue("Resumen", "B1")
	if err != nil {
		t.Fatalf("read period cell failed: %v", err)
	}
	if period != "2025-01-01 a 2025-01-31" {
		t.Fatalf("unexpected period cell %q", period)
	}
}

func TestPeriodSummaryXLSXWithoutDistribution(t *testing.T) {
	payload, err := PeriodSummaryXLSX(testSummary(), nil)
	if err != nil {
		t.Fatalf("render xlsx failed: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("reopen workbook failed: %v", err)
	}
	defer file.Close()

	for _, sheet := range file.GetSheetList() {
		if sheet == "Reparto" {
			t.Fatalf("expected no distribution sheet without a distribution")
		}
	}
}

package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"barsnow/backend/internal/domain"
)

// PeriodSummaryXLSX renders a period report as a spreadsheet with a
// summary sheet, an expense breakdown sheet and, when a distribution is
// provided, a partner distribution sheet.
func PeriodSummaryXLSX(summary domain.PeriodSummary, dist *domain.Distribution) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	const summarySheet = "Resumen"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{
		{"Periodo", summary.From + " a " + summary.To},
		{"Ventas reconocidas", summary.Revenue},
		{"Efectivo recibido", summary.CashCollected},
		{"Transferencias recibidas", summary.TransferCollected},
		{"Número de ventas", summary.SaleCount},
		{"Costos (compras)", summary.COGS},
		{"Utilidad bruta", summary.GrossProfit},
		{"Gastos operativos", summary.OperatingExpenses},
		{"Nómina", summary.PayrollExpenses},
		{"Gastos semanales", summary.WeeklyExpenses},
		{"Descuentos de socios", summary.PartnerDraws},
		{"Resultado operativo", summary.OperatingResult},
	}
	if summary.MarginsValid {
		rows = append(rows,
			[]any{"Margen bruto %", summary.GrossMarginPct},
			[]any{"Margen operativo %", summary.OperatingMarginPct},
		)
	} else {
		rows = append(rows, []any{"Margen", "sin ventas en el periodo"})
	}
	for _, pos := range summary.ByPOS {
		rows = append(rows, []any{"Ventas " + pos.POS, pos.Revenue})
	}
	for _, method := range summary.ByMethod {
		rows = append(rows, []any{"Cobrado " + method.Method, method.Amount})
	}
	if err := writeRows(file, summarySheet, rows); err != nil {
		return nil, err
	}

	const expenseSheet = "Gastos"
	if _, err := file.NewSheet(expenseSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	expenseRows := [][]any{{"Tipo", "Total"}}
	types := make([]string, 0, len(summary.ExpensesByType))
	for kind := range summary.ExpensesByType {
		types = append(types, kind)
	}
	sort.Strings(types)
	for _, kind := range types {
		expenseRows = append(expenseRows, []any{kind, summary.ExpensesByType[kind]})
	}
	draws := make([]string, 0, len(summary.DrawsByPartner))
	for name := range summary.DrawsByPartner {
		draws = append(draws, name)
	}
	sort.Strings(draws)
	for _, name := range draws {
		expenseRows = append(expenseRows, []any{"Descuento " + name, summary.DrawsByPartner[name]})
	}
	if err := writeRows(file, expenseSheet, expenseRows); err != nil {
		return nil, err
	}

	if dist != nil {
		const distSheet = "Reparto"
		if _, err := file.NewSheet(distSheet); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		distRows := [][]any{{"Socio", "Participación %", "Base", "Descuentos", "Neto"}}
		for _, share := range dist.Shares {
			distRows = append(distRows, []any{share.Name, share.SharePct, share.BaseShare, share.Deduction, share.NetShare})
		}
		distRows = append(distRows, []any{"Total", "", dist.OperatingResult, "", dist.Distributed})
		if err := writeRows(file, distSheet, distRows); err != nil {
			return nil, err
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(file *excelize.File, sheet string, rows [][]any) error {
	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

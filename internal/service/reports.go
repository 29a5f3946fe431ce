package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
)

// WeekStart returns the Monday on or before the given date. A Sunday
// belongs to the week that started six days earlier.
func WeekStart(date string) (string, error) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: bad date %q", store.ErrInvalidInput, date)
	}
	offset := (int(parsed.Weekday()) + 6) % 7
	return parsed.AddDate(0, 0, -offset).Format(dateLayout), nil
}

func (s *Service) DaySummary(ctx context.Context, date string) (domain.DaySummary, error) {
	date = strings.TrimSpace(date)
	if err := validDate(date); err != nil {
		return domain.DaySummary{}, err
	}

	sales, err := s.repo.ListSalesByDate(ctx, date, "")
	if err != nil {
		return domain.DaySummary{}, err
	}

	products, err := s.productIndex(ctx)
	if err != nil {
		return domain.DaySummary{}, err
	}

	summary := domain.DaySummary{Date: date}
	byPOS := make(map[string]*domain.POSTotal)
	byMethod := make(map[string]*domain.MethodTotal)

	for _, sale := range sales {
		revenue := recognizedRevenue(sale, products)
		summary.Revenue += revenue
		summary.CashTotal += sale.CashAmount
		summary.TransferTotal += sale.TransferAmount
		summary.SaleCount++

		pos := byPOS[sale.POS]
		if pos == nil {
			pos = &domain.POSTotal{POS: sale.POS}
			byPOS[sale.POS] = pos
		}
		pos.Revenue += revenue
		pos.SaleCount++

		method := byMethod[sale.PayMethod]
		if method == nil {
			method = &domain.MethodTotal{Method: sale.PayMethod}
			byMethod[sale.PayMethod] = method
		}
		method.Amount += sale.Total()
		method.Count++
	}

	summary.ByPOS = sortedPOSTotals(byPOS)
	summary.ByMethod = sortedMethodTotals(byMethod)
	return summary, nil
}

// PeriodSummary aggregates the financials of a date range. Results are
// cached for a short TTL; cache failures only downgrade to a recompute.
func (s *Service) PeriodSummary(ctx context.Context, from string, to string) (domain.PeriodSummary, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	cacheKey := "report:period:" + from + ":" + to
	if cached, ok, err := s.reports.Get(ctx, cacheKey); err != nil {
		log.Printf("[service] WARN: report cache get failed: %v", err)
	} else if ok {
		return *cached, nil
	}

	products, err := s.productIndex(ctx)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	sales, err := s.repo.ListSalesInRange(ctx, from, to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	purchases, err := s.repo.ListPurchasesInRange(ctx, from, to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	expenses, err := s.repo.ListExpensesInRange(ctx, from, to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	fromWeek, err := WeekStart(from)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	toWeek, err := WeekStart(to)
	if err != nil {
		return domain.PeriodSummary{}, err
	}
	weekly, err := s.repo.ListWeeklyExpensesInRange(ctx, fromWeek, toWeek)
	if err != nil {
		return domain.PeriodSummary{}, err
	}

	summary := domain.PeriodSummary{
		From:           from,
		To:             to,
		DrawsByPartner: make(map[string]int64),
		ExpensesByType: make(map[string]int64),
	}

	byPOS := make(map[string]*domain.POSTotal)
	byMethod := make(map[string]*domain.MethodTotal)
	for _, sale := range sales {
		revenue := recognizedRevenue(sale, products)
		summary.Revenue += revenue
		summary.CashCollected += sale.CashAmount
		summary.TransferCollected += sale.TransferAmount
		summary.SaleCount++

		pos := byPOS[sale.POS]
		if pos == nil {
			pos = &domain.POSTotal{POS: sale.POS}
			byPOS[sale.POS] = pos
		}
		pos.Revenue += revenue
		pos.SaleCount++

		method := byMethod[sale.PayMethod]
		if method == nil {
			method = &domain.MethodTotal{Method: sale.PayMethod}
			byMethod[sale.PayMethod] = method
		}
		method.Amount += sale.Total()
		method.Count++
	}
	summary.ByPOS = sortedPOSTotals(byPOS)
	summary.ByMethod = sortedMethodTotals(byMethod)

	for _, purchase := range purchases {
		summary.COGS += purchase.TotalCost()
	}

	for _, expense := range expenses {
		summary.ExpensesByType[expense.Type] += expense.Amount
		switch expense.Type {
		case domain.ExpenseOperating:
			summary.OperatingExpenses += expense.Amount
		case domain.ExpensePayroll:
			summary.PayrollExpenses += expense.Amount
		case domain.ExpensePartnerDraw:
			summary.PartnerDraws += expense.Amount
			bucket := expense.AttributedTo
			if bucket == "" {
				bucket = domain.UnassignedBucket
			}
			summary.DrawsByPartner[bucket] += expense.Amount
		}
	}

	for _, w := range weekly {
		summary.WeeklyExpenses += w.Amount
	}

	summary.GrossProfit = summary.Revenue - summary.COGS
	summary.OperatingResult = summary.GrossProfit - summary.OperatingExpenses - summary.PayrollExpenses - summary.WeeklyExpenses - summary.PartnerDraws

	// Margins are undefined on zero revenue; the flag keeps NaN out of JSON.
	if summary.Revenue > 0 {
		summary.MarginsValid = true
		summary.GrossMarginPct = float64(summary.GrossProfit) / float64(summary.Revenue) * 100
		summary.OperatingMarginPct = float64(summary.OperatingResult) / float64(summary.Revenue) * 100
	}

	if err := s.reports.Set(ctx, cacheKey, &summary, s.reportTTL); err != nil {
		log.Printf("[service] WARN: report cache set failed: %v", err)
	}
	return summary, nil
}

// DistributeProfit splits an operating result across the partner set.
// Shares must sum to 100 within a 0.01 tolerance.
func (s *Service) DistributeProfit(ctx context.Context, operatingResult int64, draws map[string]int64) (domain.Distribution, error) {
	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return domain.Distribution{}, err
	}
	if len(partners) == 0 {
		return domain.Distribution{}, fmt.Errorf("%w: no partners configured", store.ErrInvalidInput)
	}

	var totalPct float64
	for _, p := range partners {
		totalPct += p.SharePct
	}
	if math.Abs(totalPct-100) >= 0.01 {
		return domain.Distribution{}, fmt.Errorf("%w: partner shares sum %.2f%%, expected 100%%", store.ErrInvalidInput, totalPct)
	}

	dist := domain.Distribution{
		OperatingResult: operatingResult,
		Shares:          make([]domain.PartnerShare, 0, len(partners)),
	}
	for _, p := range partners {
		base := int64(math.Round(float64(operatingResult) * p.SharePct / 100))
		deduction := draws[p.Name]
		share := domain.PartnerShare{
			PartnerID: p.ID,
			Name:      p.Name,
			SharePct:  p.SharePct,
			BaseShare: base,
			Deduction: deduction,
			NetShare:  base - deduction,
		}
		dist.Shares = append(dist.Shares, share)
		dist.Distributed += share.NetShare
	}
	return dist, nil
}

// DistributeForPeriod aggregates a period and distributes its operating
// result, netting each partner's draws out of their share.
func (s *Service) DistributeForPeriod(ctx context.Context, from string, to string) (domain.Distribution, error) {
	summary, err := s.PeriodSummary(ctx, from, to)
	if err != nil {
		return domain.Distribution{}, err
	}
	return s.DistributeProfit(ctx, summary.OperatingResult, summary.DrawsByPartner)
}

func (s *Service) productIndex(ctx context.Context) (map[string]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, err
	}
	index := make(map[string]domain.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index, nil
}

// recognizedRevenue values a sale at the current catalog price. Sales whose
// product vanished from the catalog fall back to the amount collected.
func recognizedRevenue(sale domain.Sale, products map[string]domain.Product) int64 {
	if product, ok := products[sale.ProductID]; ok {
		return int64(sale.Qty) * product.Price
	}
	return sale.Total()
}

func sortedPOSTotals(byPOS map[string]*domain.POSTotal) []domain.POSTotal {
	totals := make([]domain.POSTotal, 0, len(byPOS))
	for _, t := range byPOS {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].POS < totals[j].POS })
	return totals
}

func sortedMethodTotals(byMethod map[string]*domain.MethodTotal) []domain.MethodTotal {
	order := map[string]int{domain.PayCash: 0, domain.PayTransfer: 1, domain.PayMixed: 2}
	totals := make([]domain.MethodTotal, 0, len(byMethod))
	for _, t := range byMethod {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return order[totals[i].Method] < order[totals[j].Method] })
	return totals
}

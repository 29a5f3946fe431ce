package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"barsnow/backend/internal/cache"
	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
	"barsnow/backend/internal/xid"
)

const dateLayout = "2006-01-02"

// ErrCloseInProgress is returned when a daily close operation for the same
// date and station is already running.
var ErrCloseInProgress = errors.New("daily close already in progress")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	reportTTL time.Duration
	cupSKU    string

	closeMu sync.Mutex
	closing map[string]struct{}
}

func New(repo store.Repository, reports cache.ReportCache, reportTTL time.Duration, cupSKU string) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 30 * time.Second
	}
	cupSKU = strings.ToUpper(strings.TrimSpace(cupSKU))
	if cupSKU == "" {
		cupSKU = "VASO-12"
	}

	return &Service{
		repo:      repo,
		reports:   reports,
		reportTTL: reportTTL,
		cupSKU:    cupSKU,
		closing:   make(map[string]struct{}),
	}
}

func (s *Service) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, includeInactive)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.POS = strings.TrimSpace(req.POS)

	if req.SKU == "" || req.Name == "" {
		return domain.Product{}, store.ErrInvalidInput
	}
	if !validPOS(req.POS) {
		return domain.Product{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, req.POS)
	}
	if req.Price < 0 || req.CupsPerUnit < 0 {
		return domain.Product{}, store.ErrInvalidInput
	}

	product := domain.Product{
		ID:          xid.New("prod"),
		SKU:         req.SKU,
		Name:        req.Name,
		Price:       req.Price,
		POS:         req.POS,
		CupsPerUnit: req.CupsPerUnit,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logActivity(ctx, "product_create", "product", created.ID, fmt.Sprintf("sku=%s,price=%d,pos=%s", created.SKU, created.Price, created.POS))
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.CupsPerUnit != nil {
		if *req.CupsPerUnit < 0 {
			return domain.Product{}, store.ErrInvalidInput
		}
		updated.CupsPerUnit = *req.CupsPerUnit
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}

	s.logActivity(ctx, "product_update", "product", saved.ID, fmt.Sprintf("active=%t,price=%d", saved.Active, saved.Price))
	return *saved, nil
}

func (s *Service) DeactivateProduct(ctx context.Context, id string) (domain.Product, error) {
	inactive := false
	return s.UpdateProduct(ctx, id, domain.ProductUpdateRequest{Active: &inactive})
}

func (s *Service) RecordSale(ctx context.Context, req domain.SaleCreateRequest) (domain.Sale, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.POS = strings.TrimSpace(req.POS)
	req.ProductID = strings.TrimSpace(req.ProductID)

	if err := validDate(req.Date); err != nil {
		return domain.Sale{}, err
	}
	if !validPOS(req.POS) {
		return domain.Sale{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, req.POS)
	}
	if req.ProductID == "" || req.Qty < 1 {
		return domain.Sale{}, store.ErrInvalidInput
	}

	product, err := s.repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return domain.Sale{}, err
	}
	if !product.Active {
		return domain.Sale{}, fmt.Errorf("%w: product %s is inactive", store.ErrInvalidInput, product.SKU)
	}
	if product.POS != req.POS {
		return domain.Sale{}, fmt.Errorf("%w: product %s belongs to %s", store.ErrInvalidInput, product.SKU, product.POS)
	}

	total := int64(req.Qty) * product.Price
	cash, transfer, err := splitPayment(req.PayMethod, total, req.CashAmount, req.TransferAmount)
	if err != nil {
		return domain.Sale{}, err
	}

	saleTime := strings.TrimSpace(req.Time)
	if saleTime == "" {
		saleTime = time.Now().Format("15:04:05")
	}

	sale := domain.Sale{
		ID:             xid.New("sale"),
		Date:           req.Date,
		Time:           saleTime,
		POS:            req.POS,
		ProductID:      product.ID,
		Qty:            req.Qty,
		PayMethod:      req.PayMethod,
		CashAmount:     cash,
		TransferAmount: transfer,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      time.Now().UTC(),
	}

	created, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}

	if err := s.recordSaleMoves(ctx, *created, *product); err != nil {
		return domain.Sale{}, err
	}

	s.logActivity(ctx, "sale_record", "sale", created.ID, fmt.Sprintf("pos=%s,product=%s,qty=%d,total=%d", created.POS, product.SKU, created.Qty, created.Total()))
	return *created, nil
}

// recordSaleMoves writes the inventory movement for a sale plus the cup
// consumption movement when the product pours into cups. A missing cup
// product disables cup tracking rather than failing the sale.
func (s *Service) recordSaleMoves(ctx context.Context, sale domain.Sale, product domain.Product) error {
	err := s.repo.CreateInventoryMove(ctx, domain.InventoryMove{
		ID:        xid.New("mov"),
		Date:      sale.Date,
		POS:       sale.POS,
		ProductID: sale.ProductID,
		Qty:       -sale.Qty,
		Kind:      domain.MoveKindSale,
		RefID:     sale.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if product.CupsPerUnit < 1 {
		return nil
	}

	cup, err := s.repo.GetProductBySKU(ctx, s.cupSKU)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("[service] WARN: cup product %s not found, skipping cup movement for sale %s", s.cupSKU, sale.ID)
		return nil
	}
	if err != nil {
		return err
	}

	err = s.repo.CreateInventoryMove(ctx, domain.InventoryMove{
		ID:        xid.New("mov"),
		Date:      sale.Date,
		POS:       sale.POS,
		ProductID: cup.ID,
		Qty:       -sale.Qty * product.CupsPerUnit,
		Kind:      domain.MoveKindSale,
		RefID:     sale.ID,
		Notes:     "Consumo de vasos",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to record cup movement for sale %s: %v", sale.ID, err)
	}
	return nil
}

func (s *Service) ListSales(ctx context.Context, date string, pos string) ([]domain.Sale, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("%w: date required", store.ErrInvalidInput)
	}
	return s.repo.ListSalesByDate(ctx, date, strings.TrimSpace(pos))
}

func (s *Service) DeleteSale(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	sale, err := s.repo.GetSaleByID(ctx, id)
	if err != nil {
		return err
	}

	// Movements first so a failure leaves the sale visible for a retry.
	if err := s.repo.DeleteInventoryMovesByRef(ctx, sale.ID); err != nil {
		return err
	}
	if err := s.repo.DeleteSale(ctx, sale.ID); err != nil {
		return err
	}

	s.logActivity(ctx, "sale_delete", "sale", sale.ID, fmt.Sprintf("pos=%s,qty=%d,total=%d", sale.POS, sale.Qty, sale.Total()))
	return nil
}

func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseCreateRequest) (domain.Purchase, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.POS = strings.TrimSpace(req.POS)
	req.ProductID = strings.TrimSpace(req.ProductID)

	if err := validDate(req.Date); err != nil {
		return domain.Purchase{}, err
	}
	if !validPOS(req.POS) {
		return domain.Purchase{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, req.POS)
	}
	if req.ProductID == "" || req.Qty < 1 || req.UnitCost < 0 {
		return domain.Purchase{}, store.ErrInvalidInput
	}

	if _, err := s.repo.GetProductByID(ctx, req.ProductID); err != nil {
		return domain.Purchase{}, err
	}

	purchase := domain.Purchase{
		ID:        xid.New("buy"),
		Date:      req.Date,
		POS:       req.POS,
		ProductID: req.ProductID,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreatePurchase(ctx, purchase)
	if err != nil {
		return domain.Purchase{}, err
	}

	err = s.repo.CreateInventoryMove(ctx, domain.InventoryMove{
		ID:        xid.New("mov"),
		Date:      created.Date,
		POS:       created.POS,
		ProductID: created.ProductID,
		Qty:       created.Qty,
		Kind:      domain.MoveKindPurchase,
		RefID:     created.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.Purchase{}, err
	}

	s.logActivity(ctx, "purchase_record", "purchase", created.ID, fmt.Sprintf("pos=%s,qty=%d,cost=%d", created.POS, created.Qty, created.TotalCost()))
	return *created, nil
}

func (s *Service) ListPurchases(ctx context.Context, date string, pos string) ([]domain.Purchase, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("%w: date required", store.ErrInvalidInput)
	}
	return s.repo.ListPurchasesByDate(ctx, date, strings.TrimSpace(pos))
}

func (s *Service) DeletePurchase(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}

	purchase, err := s.repo.GetPurchaseByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteInventoryMovesByRef(ctx, purchase.ID); err != nil {
		return err
	}
	if err := s.repo.DeletePurchase(ctx, purchase.ID); err != nil {
		return err
	}

	s.logActivity(ctx, "purchase_delete", "purchase", purchase.ID, fmt.Sprintf("pos=%s,qty=%d", purchase.POS, purchase.Qty))
	return nil
}

func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.Concept = strings.TrimSpace(req.Concept)
	req.AttributedTo = strings.TrimSpace(req.AttributedTo)

	if err := validDate(req.Date); err != nil {
		return domain.Expense{}, err
	}
	if !validExpenseType(req.Type) {
		return domain.Expense{}, fmt.Errorf("%w: unknown expense type %q", store.ErrInvalidInput, req.Type)
	}
	if req.Concept == "" || req.Amount < 1 {
		return domain.Expense{}, store.ErrInvalidInput
	}

	expense := domain.Expense{
		ID:           xid.New("exp"),
		Date:         req.Date,
		Type:         req.Type,
		Concept:      req.Concept,
		Amount:       req.Amount,
		AttributedTo: req.AttributedTo,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, err
	}

	s.logActivity(ctx, "expense_record", "expense", created.ID, fmt.Sprintf("type=%s,amount=%d", created.Type, created.Amount))
	return *created, nil
}

func (s *Service) ListExpenses(ctx context.Context, from string, to string) ([]domain.Expense, error) {
	from, to, err := normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.ListExpensesInRange(ctx, from, to)
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, "expense_delete", "expense", id, "")
	return nil
}

// RecordPayrollDay writes one payroll expense per active employee for the
// given date.
func (s *Service) RecordPayrollDay(ctx context.Context, date string) (domain.PayrollDayResult, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.PayrollDayResult{}, fmt.Errorf("admin role required")
	}

	date = strings.TrimSpace(date)
	if err := validDate(date); err != nil {
		return domain.PayrollDayResult{}, err
	}

	employees, err := s.repo.ListEmployees(ctx, true)
	if err != nil {
		return domain.PayrollDayResult{}, err
	}
	if len(employees) == 0 {
		return domain.PayrollDayResult{}, fmt.Errorf("%w: no active employees", store.ErrInvalidInput)
	}

	result := domain.PayrollDayResult{Date: date, Entries: make([]domain.Expense, 0, len(employees))}
	for _, employee := range employees {
		created, err := s.repo.CreateExpense(ctx, domain.Expense{
			ID:           xid.New("exp"),
			Date:         date,
			Type:         domain.ExpensePayroll,
			Concept:      "Salario diario - " + employee.Role,
			Amount:       employee.DailySalary,
			AttributedTo: employee.Name,
			CreatedAt:    time.Now().UTC(),
		})
		if err != nil {
			return domain.PayrollDayResult{}, err
		}
		result.Entries = append(result.Entries, *created)
		result.Total += created.Amount
	}

	s.logActivity(ctx, "payroll_day", "expense", date, fmt.Sprintf("employees=%d,total=%d", len(result.Entries), result.Total))
	return result, nil
}

func (s *Service) AddWeeklyExpense(ctx context.Context, req domain.WeeklyExpenseCreateRequest) (domain.WeeklyExpense, error) {
	req.Concept = strings.TrimSpace(req.Concept)
	req.AttributedTo = strings.TrimSpace(req.AttributedTo)

	weekStart, err := WeekStart(strings.TrimSpace(req.Date))
	if err != nil {
		return domain.WeeklyExpense{}, err
	}
	if req.Concept == "" || req.Amount < 1 {
		return domain.WeeklyExpense{}, store.ErrInvalidInput
	}

	expense := domain.WeeklyExpense{
		ID:           xid.New("wexp"),
		WeekStart:    weekStart,
		Concept:      req.Concept,
		Amount:       req.Amount,
		AttributedTo: req.AttributedTo,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.CreateWeeklyExpense(ctx, expense)
	if err != nil {
		return domain.WeeklyExpense{}, err
	}

	s.logActivity(ctx, "weekly_expense_add", "weekly_expense", created.ID, fmt.Sprintf("week=%s,amount=%d", created.WeekStart, created.Amount))
	return *created, nil
}

func (s *Service) ListWeeklyExpenses(ctx context.Context, date string) ([]domain.WeeklyExpense, error) {
	weekStart, err := WeekStart(strings.TrimSpace(date))
	if err != nil {
		return nil, err
	}
	return s.repo.ListWeeklyExpensesInRange(ctx, weekStart, weekStart)
}

func (s *Service) DeleteWeeklyExpense(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeleteWeeklyExpense(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, "weekly_expense_delete", "weekly_expense", id, "")
	return nil
}

func (s *Service) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	return s.repo.ListPartners(ctx)
}

func (s *Service) CreatePartner(ctx context.Context, req domain.PartnerCreateRequest) (domain.Partner, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Partner{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.SharePct < 0 || req.SharePct > 100 {
		return domain.Partner{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreatePartner(ctx, domain.Partner{
		ID:       xid.New("partner"),
		Name:     req.Name,
		SharePct: req.SharePct,
	})
	if err != nil {
		return domain.Partner{}, err
	}

	s.logActivity(ctx, "partner_create", "partner", created.ID, fmt.Sprintf("name=%s,share=%.1f", created.Name, created.SharePct))
	return *created, nil
}

func (s *Service) UpdatePartner(ctx context.Context, id string, req domain.PartnerUpdateRequest) (domain.Partner, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Partner{}, fmt.Errorf("admin role required")
	}

	partners, err := s.repo.ListPartners(ctx)
	if err != nil {
		return domain.Partner{}, err
	}

	var existing *domain.Partner
	for i := range partners {
		if partners[i].ID == id {
			existing = &partners[i]
			break
		}
	}
	if existing == nil {
		return domain.Partner{}, store.ErrNotFound
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Partner{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.SharePct != nil {
		if *req.SharePct < 0 || *req.SharePct > 100 {
			return domain.Partner{}, store.ErrInvalidInput
		}
		updated.SharePct = *req.SharePct
	}

	saved, err := s.repo.UpdatePartner(ctx, updated)
	if err != nil {
		return domain.Partner{}, err
	}

	s.logActivity(ctx, "partner_update", "partner", saved.ID, fmt.Sprintf("name=%s,share=%.1f", saved.Name, saved.SharePct))
	return *saved, nil
}

func (s *Service) DeletePartner(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidInput
	}
	if err := s.repo.DeletePartner(ctx, id); err != nil {
		return err
	}

	s.logActivity(ctx, "partner_delete", "partner", id, "")
	return nil
}

func (s *Service) ListEmployees(ctx context.Context, activeOnly bool) ([]domain.Employee, error) {
	return s.repo.ListEmployees(ctx, activeOnly)
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Employee{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.TrimSpace(req.Role)
	if req.Name == "" || req.Role == "" || req.DailySalary < 0 {
		return domain.Employee{}, store.ErrInvalidInput
	}

	created, err := s.repo.CreateEmployee(ctx, domain.Employee{
		ID:          xid.New("emp"),
		Name:        req.Name,
		Role:        req.Role,
		DailySalary: req.DailySalary,
		Active:      true,
	})
	if err != nil {
		return domain.Employee{}, err
	}

	s.logActivity(ctx, "employee_create", "employee", created.ID, fmt.Sprintf("name=%s,salary=%d", created.Name, created.DailySalary))
	return *created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req domain.EmployeeUpdateRequest) (domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.Employee{}, fmt.Errorf("admin role required")
	}

	employees, err := s.repo.ListEmployees(ctx, false)
	if err != nil {
		return domain.Employee{}, err
	}

	var existing *domain.Employee
	for i := range employees {
		if employees[i].ID == id {
			existing = &employees[i]
			break
		}
	}
	if existing == nil {
		return domain.Employee{}, store.ErrNotFound
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if role == "" {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.Role = role
	}
	if req.DailySalary != nil {
		if *req.DailySalary < 0 {
			return domain.Employee{}, store.ErrInvalidInput
		}
		updated.DailySalary = *req.DailySalary
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateEmployee(ctx, updated)
	if err != nil {
		return domain.Employee{}, err
	}

	s.logActivity(ctx, "employee_update", "employee", saved.ID, fmt.Sprintf("active=%t,salary=%d", saved.Active, saved.DailySalary))
	return *saved, nil
}

func (s *Service) ListStationManagers(ctx context.Context) ([]domain.StationManager, error) {
	return s.repo.ListStationManagers(ctx)
}

func (s *Service) SetStationManager(ctx context.Context, pos string, manager string) (domain.StationManager, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return domain.StationManager{}, fmt.Errorf("admin role required")
	}

	pos = strings.TrimSpace(pos)
	manager = strings.TrimSpace(manager)
	if !validPOS(pos) {
		return domain.StationManager{}, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}

	record := domain.StationManager{POS: pos, Manager: manager}
	if err := s.repo.UpsertStationManager(ctx, record); err != nil {
		return domain.StationManager{}, err
	}

	s.logActivity(ctx, "station_manager_set", "station_manager", pos, "manager="+manager)
	return record, nil
}

func (s *Service) SaveInventoryCounts(ctx context.Context, date string, pos string, entries []domain.InventoryCountEntry) ([]domain.InventoryCount, error) {
	date = strings.TrimSpace(date)
	pos = strings.TrimSpace(pos)

	if err := validDate(date); err != nil {
		return nil, err
	}
	if !validPOS(pos) {
		return nil, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no count entries", store.ErrInvalidInput)
	}

	saved := make([]domain.InventoryCount, 0, len(entries))
	for _, entry := range entries {
		productID := strings.TrimSpace(entry.ProductID)
		if productID == "" || entry.InitialQty < 0 || entry.FinalQty < 0 {
			return nil, store.ErrInvalidInput
		}
		if _, err := s.repo.GetProductByID(ctx, productID); err != nil {
			return nil, err
		}

		count := domain.InventoryCount{
			Date:       date,
			POS:        pos,
			ProductID:  productID,
			InitialQty: entry.InitialQty,
			FinalQty:   entry.FinalQty,
		}
		if err := s.repo.UpsertInventoryCount(ctx, count); err != nil {
			return nil, err
		}
		saved = append(saved, count)
	}

	s.logActivity(ctx, "inventory_count_save", "inventory_count", date+"/"+pos, fmt.Sprintf("entries=%d", len(saved)))
	return saved, nil
}

func (s *Service) ListInventoryCounts(ctx context.Context, date string, pos string) ([]domain.InventoryCount, error) {
	date = strings.TrimSpace(date)
	pos = strings.TrimSpace(pos)
	if err := validDate(date); err != nil {
		return nil, err
	}
	if !validPOS(pos) {
		return nil, fmt.Errorf("%w: unknown station %q", store.ErrInvalidInput, pos)
	}
	return s.repo.ListInventoryCounts(ctx, date, pos)
}

func (s *Service) ListInventoryMoves(ctx context.Context, date string, pos string, limit int) ([]domain.InventoryMove, error) {
	return s.repo.ListInventoryMoves(ctx, strings.TrimSpace(date), strings.TrimSpace(pos), limit)
}

func (s *Service) ListActivity(ctx context.Context, date string, limit int) ([]domain.ActivityEntry, error) {
	return s.repo.ListActivityEntries(ctx, strings.TrimSpace(date), limit)
}

// logActivity records an audit trail entry. Failures are logged and never
// propagated so the primary operation is unaffected.
func (s *Service) logActivity(ctx context.Context, action, entity, entityID, detail string) {
	actor := "system"
	if a, ok := ActorFromContext(ctx); ok && a.Username != "" {
		actor = a.Username
	}

	err := s.repo.CreateActivityEntry(ctx, domain.ActivityEntry{
		ID:       xid.New("act"),
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
		At:       time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to record activity %s: %v", action, err)
	}
}

func validPOS(pos string) bool {
	for _, p := range domain.PointsOfSale {
		if pos == p {
			return true
		}
	}
	return false
}

func validPayMethod(method string) bool {
	return method == domain.PayCash || method == domain.PayTransfer || method == domain.PayMixed
}

func validExpenseType(kind string) bool {
	return kind == domain.ExpenseOperating || kind == domain.ExpensePayroll || kind == domain.ExpensePartnerDraw
}

// validDate requires an ISO date no later than today.
func validDate(date string) error {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: bad date %q", store.ErrInvalidInput, date)
	}
	if parsed.Format(dateLayout) > time.Now().Format(dateLayout) {
		return fmt.Errorf("%w: date %s is in the future", store.ErrInvalidInput, date)
	}
	return nil
}

func normalizeRange(from string, to string) (string, string, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if _, err := time.Parse(dateLayout, from); err != nil {
		return "", "", fmt.Errorf("%w: bad date %q", store.ErrInvalidInput, from)
	}
	if _, err := time.Parse(dateLayout, to); err != nil {
		return "", "", fmt.Errorf("%w: bad date %q", store.ErrInvalidInput, to)
	}
	if from > to {
		return "", "", fmt.Errorf("%w: range %s..%s is inverted", store.ErrInvalidInput, from, to)
	}
	return from, to, nil
}

// splitPayment derives the cash and transfer portions for a sale total.
// Mixed payments must provide portions that sum exactly to the total.
func splitPayment(method string, total int64, cash int64, transfer int64) (int64, int64, error) {
	if !validPayMethod(method) {
		return 0, 0, fmt.Errorf("%w: unknown pay method %q", store.ErrInvalidInput, method)
	}

	switch method {
	case domain.PayCash:
		return total, 0, nil
	case domain.PayTransfer:
		return 0, total, nil
	default:
		if cash < 0 || transfer < 0 || cash+transfer != total {
			return 0, 0, fmt.Errorf("%w: mixed payment must sum exactly %d", store.ErrInvalidInput, total)
		}
		return cash, transfer, nil
	}
}

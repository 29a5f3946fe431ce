package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
	"barsnow/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	salesByID       map[string]domain.Sale
	purchasesByID   map[string]domain.Purchase
	counts          map[string]domain.InventoryCount
	moves           []domain.InventoryMove
	expensesByID    map[string]domain.Expense
	weeklyByID      map[string]domain.WeeklyExpense
	partnersByID    map[string]domain.Partner
	employeesByID   map[string]domain.Employee
	managersByPOS   map[string]domain.StationManager
	debtsByID       map[string]domain.Debt
	debtPayments    map[string][]domain.DebtPayment
	activity        []domain.ActivityEntry
	usersByUsername map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory user accounts for dev/demo mode.
// Credentials are read from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD
// environment variables. If unset, hardcoded dev defaults are used with a
// warning printed to stdout. These credentials are never used in production
// (the backend uses PostgreSQL when DATABASE_URL is set).
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	products := []domain.Product{
		{ID: "prod-cerveza", SKU: "CERV-330", Name: "Cerveza Águila 330ml", Price: 6000, POS: domain.POSBarra, Active: true, CreatedAt: now},
		{ID: "prod-aguardiente", SKU: "AGUA-SHOT", Name: "Shot Aguardiente Antioqueño", Price: 5000, POS: domain.POSBarra, CupsPerUnit: 1, Active: true, CreatedAt: now},
		{ID: "prod-ron", SKU: "RON-COPA", Name: "Copa Ron Medellín", Price: 7000, POS: domain.POSBarra, CupsPerUnit: 1, Active: true, CreatedAt: now},
		{ID: "prod-grz-mango", SKU: "GRZ-MANGO", Name: "Granizado de Mango", Price: 8000, POS: domain.POSGranizados, CupsPerUnit: 1, Active: true, CreatedAt: now},
		{ID: "prod-grz-maracuya", SKU: "GRZ-MARA", Name: "Granizado de Maracuyá", Price: 8000, POS: domain.POSGranizados, CupsPerUnit: 1, Active: true, CreatedAt: now},
		{ID: "prod-grz-cafe", SKU: "GRZ-CAFE", Name: "Granizado de Café", Price: 9000, POS: domain.POSGranizados, CupsPerUnit: 1, Active: true, CreatedAt: now},
		{ID: "prod-vaso", SKU: "VASO-12", Name: "Vaso 12oz", Price: 0, POS: domain.POSBarra, Active: true, CreatedAt: now},
	}

	partners := []domain.Partner{
		{ID: "partner-camilo", Name: "Camilo", SharePct: 50},
		{ID: "partner-esteban", Name: "Esteban", SharePct: 30},
		{ID: "partner-valentina", Name: "Valentina", SharePct: 20},
	}

	employees := []domain.Employee{
		{ID: "emp-julian", Name: "Julián", Role: "Bartender", DailySalary: 60000, Active: true},
		{ID: "emp-marcela", Name: "Marcela", Role: "Mesera", DailySalary: 50000, Active: true},
		{ID: "emp-oscar", Name: "Óscar", Role: "Granizados", DailySalary: 50000, Active: false},
	}

	productMap := make(map[string]domain.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}
	partnerMap := make(map[string]domain.Partner, len(partners))
	for _, p := range partners {
		partnerMap[p.ID] = p
	}
	employeeMap := make(map[string]domain.Employee, len(employees))
	for _, e := range employees {
		employeeMap[e.ID] = e
	}

	return &Store{
		products:      productMap,
		salesByID:     make(map[string]domain.Sale),
		purchasesByID: make(map[string]domain.Purchase),
		counts:        make(map[string]domain.InventoryCount),
		moves:         make([]domain.InventoryMove, 0, 128),
		expensesByID:  make(map[string]domain.Expense),
		weeklyByID:    make(map[string]domain.WeeklyExpense),
		partnersByID:  partnerMap,
		employeesByID: employeeMap,
		managersByPOS: map[string]domain.StationManager{
			domain.POSBarra:      {POS: domain.POSBarra, Manager: "Camilo"},
			domain.POSGranizados: {POS: domain.POSGranizados, Manager: "Valentina"},
		},
		debtsByID:       make(map[string]domain.Debt),
		debtPayments:    make(map[string][]domain.DebtPayment),
		activity:        make([]domain.ActivityEntry, 0, 128),
		usersByUsername: seedUsers(),
	}
}

func (s *Store) ListProducts(_ context.Context, includeInactive bool) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if !includeInactive && !p.Active {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.POS == b.POS {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.POS, b.POS)
	})

	return products, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) GetProductBySKU(_ context.Context, sku string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU == sku {
			copyProduct := p
			return &copyProduct, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.SKU == "" || product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}
	for _, p := range s.products {
		if p.SKU == product.SKU {
			return nil, store.ErrInvalidInput
		}
	}

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Active = true
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" || product.Name == "" || product.Price < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.products[product.ID]; !exists {
		return nil, store.ErrNotFound
	}

	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.Date == "" || sale.POS == "" || sale.ProductID == "" || sale.Qty < 1 {
		return nil, store.ErrInvalidInput
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	s.salesByID[sale.ID] = sale
	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) ListSalesByDate(_ context.Context, date string, pos string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, 16)
	for _, sale := range s.salesByID {
		if sale.Date != date {
			continue
		}
		if pos != "" && sale.POS != pos {
			continue
		}
		sales = append(sales, sale)
	}
	sortSales(sales)
	return sales, nil
}

func (s *Store) ListSalesInRange(_ context.Context, from string, to string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sales := make([]domain.Sale, 0, 32)
	for _, sale := range s.salesByID {
		if sale.Date < from || sale.Date > to {
			continue
		}
		sales = append(sales, sale)
	}
	sortSales(sales)
	return sales, nil
}

func (s *Store) SumSaleQty(_ context.Context, date string, pos string, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sale := range s.salesByID {
		if sale.Date == date && sale.POS == pos && sale.ProductID == productID {
			total += sale.Qty
		}
	}
	return total, nil
}

func (s *Store) DeleteSale(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.salesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.salesByID, id)
	return nil
}

func (s *Store) CreatePurchase(_ context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if purchase.Date == "" || purchase.POS == "" || purchase.ProductID == "" || purchase.Qty < 1 || purchase.UnitCost < 0 {
		return nil, store.ErrInvalidInput
	}
	if purchase.ID == "" {
		purchase.ID = xid.New("buy")
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}
	s.purchasesByID[purchase.ID] = purchase
	created := purchase
	return &created, nil
}

func (s *Store) GetPurchaseByID(_ context.Context, id string) (*domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchase, exists := s.purchasesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPurchase := purchase
	return &copyPurchase, nil
}

func (s *Store) ListPurchasesByDate(_ context.Context, date string, pos string) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.Purchase, 0, 8)
	for _, p := range s.purchasesByID {
		if p.Date != date {
			continue
		}
		if pos != "" && p.POS != pos {
			continue
		}
		purchases = append(purchases, p)
	}
	sortPurchases(purchases)
	return purchases, nil
}

func (s *Store) ListPurchasesInRange(_ context.Context, from string, to string) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	purchases := make([]domain.Purchase, 0, 16)
	for _, p := range s.purchasesByID {
		if p.Date < from || p.Date > to {
			continue
		}
		purchases = append(purchases, p)
	}
	sortPurchases(purchases)
	return purchases, nil
}

func (s *Store) SumPurchaseQty(_ context.Context, date string, pos string, productID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, p := range s.purchasesByID {
		if p.Date == date && p.POS == pos && p.ProductID == productID {
			total += p.Qty
		}
	}
	return total, nil
}

func (s *Store) DeletePurchase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.purchasesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.purchasesByID, id)
	return nil
}

func countKey(date, pos, productID string) string {
	return date + "|" + pos + "|" + productID
}

func (s *Store) UpsertInventoryCount(_ context.Context, count domain.InventoryCount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if count.Date == "" || count.POS == "" || count.ProductID == "" {
		return store.ErrInvalidInput
	}
	if count.InitialQty < 0 || count.FinalQty < 0 {
		return store.ErrInvalidInput
	}
	s.counts[countKey(count.Date, count.POS, count.ProductID)] = count
	return nil
}

func (s *Store) GetInventoryCount(_ context.Context, date string, pos string, productID string) (*domain.InventoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, exists := s.counts[countKey(date, pos, productID)]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCount := count
	return &copyCount, nil
}

func (s *Store) ListInventoryCounts(_ context.Context, date string, pos string) ([]domain.InventoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make([]domain.InventoryCount, 0, 8)
	for _, c := range s.counts {
		if c.Date == date && c.POS == pos {
			counts = append(counts, c)
		}
	}
	slices.SortFunc(counts, func(a, b domain.InventoryCount) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return counts, nil
}

func (s *Store) CreateInventoryMove(_ context.Context, move domain.InventoryMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if move.Date == "" || move.POS == "" || move.ProductID == "" || move.Qty == 0 {
		return store.ErrInvalidInput
	}
	if move.ID == "" {
		move.ID = xid.New("mov")
	}
	if move.CreatedAt.IsZero() {
		move.CreatedAt = time.Now().UTC()
	}
	s.moves = append(s.moves, move)
	return nil
}

func (s *Store) DeleteInventoryMovesByRef(_ context.Context, refID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.moves[:0]
	for _, m := range s.moves {
		if m.RefID != refID {
			kept = append(kept, m)
		}
	}
	s.moves = kept
	return nil
}

func (s *Store) ListInventoryMoves(_ context.Context, date string, pos string, limit int) ([]domain.InventoryMove, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	moves := make([]domain.InventoryMove, 0, 32)
	for _, m := range s.moves {
		if date != "" && m.Date != date {
			continue
		}
		if pos != "" && m.POS != pos {
			continue
		}
		moves = append(moves, m)
	}
	slices.SortFunc(moves, func(a, b domain.InventoryMove) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(moves) > limit {
		moves = moves[:limit]
	}
	return moves, nil
}

func (s *Store) CreateExpense(_ context.Context, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.Date == "" || expense.Type == "" || expense.Concept == "" || expense.Amount < 1 {
		return nil, store.ErrInvalidInput
	}
	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	s.expensesByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListExpensesInRange(_ context.Context, from string, to string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.Expense, 0, 16)
	for _, e := range s.expensesByID {
		if e.Date < from || e.Date > to {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.Expense) int {
		if a.Date == b.Date {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.Date, b.Date)
	})
	return expenses, nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.expensesByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.expensesByID, id)
	return nil
}

func (s *Store) CreateWeeklyExpense(_ context.Context, expense domain.WeeklyExpense) (*domain.WeeklyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.WeekStart == "" || expense.Concept == "" || expense.Amount < 1 {
		return nil, store.ErrInvalidInput
	}
	if expense.ID == "" {
		expense.ID = xid.New("wexp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	s.weeklyByID[expense.ID] = expense
	created := expense
	return &created, nil
}

func (s *Store) ListWeeklyExpensesInRange(_ context.Context, fromWeek string, toWeek string) ([]domain.WeeklyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]domain.WeeklyExpense, 0, 8)
	for _, e := range s.weeklyByID {
		if e.WeekStart < fromWeek || e.WeekStart > toWeek {
			continue
		}
		expenses = append(expenses, e)
	}
	slices.SortFunc(expenses, func(a, b domain.WeeklyExpense) int {
		return strings.Compare(a.WeekStart, b.WeekStart)
	})
	return expenses, nil
}

func (s *Store) DeleteWeeklyExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.weeklyByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.weeklyByID, id)
	return nil
}

func (s *Store) ListPartners(_ context.Context) ([]domain.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partners := make([]domain.Partner, 0, len(s.partnersByID))
	for _, p := range s.partnersByID {
		partners = append(partners, p)
	}
	slices.SortFunc(partners, func(a, b domain.Partner) int {
		return strings.Compare(a.Name, b.Name)
	})
	return partners, nil
}

func (s *Store) CreatePartner(_ context.Context, partner domain.Partner) (*domain.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partner.Name == "" || partner.SharePct < 0 || partner.SharePct > 100 {
		return nil, store.ErrInvalidInput
	}
	if partner.ID == "" {
		partner.ID = xid.New("partner")
	}
	s.partnersByID[partner.ID] = partner
	created := partner
	return &created, nil
}

func (s *Store) UpdatePartner(_ context.Context, partner domain.Partner) (*domain.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partner.ID == "" || partner.Name == "" || partner.SharePct < 0 || partner.SharePct > 100 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.partnersByID[partner.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.partnersByID[partner.ID] = partner
	updated := partner
	return &updated, nil
}

func (s *Store) DeletePartner(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partnersByID[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.partnersByID, id)
	return nil
}

func (s *Store) ListEmployees(_ context.Context, activeOnly bool) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employeesByID))
	for _, e := range s.employeesByID {
		if activeOnly && !e.Active {
			continue
		}
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return strings.Compare(a.Name, b.Name)
	})
	return employees, nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.Name == "" || employee.Role == "" || employee.DailySalary < 0 {
		return nil, store.ErrInvalidInput
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	employee.Active = true
	s.employeesByID[employee.ID] = employee
	created := employee
	return &created, nil
}

func (s *Store) UpdateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.ID == "" || employee.Name == "" || employee.Role == "" || employee.DailySalary < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.employeesByID[employee.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.employeesByID[employee.ID] = employee
	updated := employee
	return &updated, nil
}

func (s *Store) ListStationManagers(_ context.Context) ([]domain.StationManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	managers := make([]domain.StationManager, 0, len(s.managersByPOS))
	for _, m := range s.managersByPOS {
		managers = append(managers, m)
	}
	slices.SortFunc(managers, func(a, b domain.StationManager) int {
		return strings.Compare(a.POS, b.POS)
	})
	return managers, nil
}

func (s *Store) GetStationManager(_ context.Context, pos string) (*domain.StationManager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	manager, exists := s.managersByPOS[pos]
	if !exists || manager.Manager == "" {
		return nil, store.ErrNotFound
	}
	copyManager := manager
	return &copyManager, nil
}

func (s *Store) UpsertStationManager(_ context.Context, manager domain.StationManager) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manager.POS == "" {
		return store.ErrInvalidInput
	}
	s.managersByPOS[manager.POS] = manager
	return nil
}

func (s *Store) CreateDebt(_ context.Context, debt domain.Debt) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if debt.Date == "" || debt.Person == "" || debt.Reason == "" || debt.Amount < 1 {
		return nil, store.ErrInvalidInput
	}
	if debt.ID == "" {
		debt.ID = xid.New("debt")
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
	}
	s.debtsByID[debt.ID] = debt
	created := debt
	return &created, nil
}

func (s *Store) GetDebtByID(_ context.Context, id string) (*domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debt, exists := s.debtsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyDebt := debt
	return &copyDebt, nil
}

func (s *Store) ListOpenDebts(_ context.Context) ([]domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := make([]domain.Debt, 0, len(s.debtsByID))
	for _, d := range s.debtsByID {
		if d.Balance > 0 {
			debts = append(debts, d)
		}
	}
	slices.SortFunc(debts, func(a, b domain.Debt) int {
		if a.Date == b.Date {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
		return strings.Compare(b.Date, a.Date)
	})
	return debts, nil
}

func (s *Store) ListDebtsByPerson(_ context.Context, person string, openOnly bool) ([]domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	debts := make([]domain.Debt, 0, 8)
	for _, d := range s.debtsByID {
		if d.Person != person {
			continue
		}
		if openOnly && d.Balance <= 0 {
			continue
		}
		debts = append(debts, d)
	}
	slices.SortFunc(debts, func(a, b domain.Debt) int {
		if a.Date == b.Date {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
		return strings.Compare(a.Date, b.Date)
	})
	return debts, nil
}

func (s *Store) FindDebtByReasonDate(_ context.Context, reason string, date string) (*domain.Debt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.debtsByID {
		if d.Reason == reason && d.Date == date {
			copyDebt := d
			return &copyDebt, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateDebt(_ context.Context, debt domain.Debt) (*domain.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if debt.ID == "" || debt.Balance < 0 {
		return nil, store.ErrInvalidInput
	}
	if _, exists := s.debtsByID[debt.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.debtsByID[debt.ID] = debt
	updated := debt
	return &updated, nil
}

func (s *Store) CreateDebtPayment(_ context.Context, payment domain.DebtPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payment.DebtID == "" || payment.Amount < 1 {
		return store.ErrInvalidInput
	}
	if payment.ID == "" {
		payment.ID = xid.New("pay")
	}
	s.debtPayments[payment.DebtID] = append(s.debtPayments[payment.DebtID], payment)
	return nil
}

func (s *Store) ListDebtPayments(_ context.Context, debtID string) ([]domain.DebtPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payments := make([]domain.DebtPayment, 0, len(s.debtPayments[debtID]))
	payments = append(payments, s.debtPayments[debtID]...)
	return payments, nil
}

func (s *Store) CreateActivityEntry(_ context.Context, entry domain.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Action == "" {
		return store.ErrInvalidInput
	}
	if entry.ID == "" {
		entry.ID = xid.New("act")
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	s.activity = append(s.activity, entry)
	return nil
}

func (s *Store) ListActivityEntries(_ context.Context, date string, limit int) ([]domain.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.ActivityEntry, 0, 32)
	for _, e := range s.activity {
		if date != "" && e.At.UTC().Format("2006-01-02") != date {
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b domain.ActivityEntry) int {
		return b.At.Compare(a.At)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrInvalidInput
	}
	s.usersByUsername[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, u := range s.usersByUsername {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func sortSales(sales []domain.Sale) {
	slices.SortFunc(sales, func(a, b domain.Sale) int {
		if a.Date != b.Date {
			return strings.Compare(a.Date, b.Date)
		}
		if a.Time != b.Time {
			return strings.Compare(a.Time, b.Time)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

func sortPurchases(purchases []domain.Purchase) {
	slices.SortFunc(purchases, func(a, b domain.Purchase) int {
		if a.Date != b.Date {
			return strings.Compare(a.Date, b.Date)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

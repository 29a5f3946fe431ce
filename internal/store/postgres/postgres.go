package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	query := `
		SELECT id, sku, name, price, pos, cups_per_unit, active, created_at
		FROM products
	`
	if !includeInactive {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY pos, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.POS, &p.CupsPerUnit, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = p.CreatedAt.UTC()
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.getProduct(ctx, "id", id)
}

func (s *Store) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.getProduct(ctx, "sku", strings.ToUpper(strings.TrimSpace(sku)))
}

func (s *Store) getProduct(ctx context.Context, column string, value string) (*domain.Product, error) {
	if column != "id" && column != "sku" {
		return nil, errors.New("unsupported lookup column")
	}

	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sku, name, price, pos, cups_per_unit, active, created_at
		FROM products
		WHERE `+column+` = $1
	`, value).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.POS, &p.CupsPerUnit, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.SKU == "" || product.Name == "" {
		return nil, store.ErrInvalidInput
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, sku, name, price, pos, cups_per_unit, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,now())
	`, product.ID, product.SKU, product.Name, product.Price, product.POS, product.CupsPerUnit, product.Active, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, cups_per_unit = $4, active = $5, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.CupsPerUnit, product.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := product
	return &updated, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.ID == "" || sale.Date == "" || sale.ProductID == "" || sale.Qty < 1 {
		return nil, store.ErrInvalidInput
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sales (id, sale_date, sale_time, pos, product_id, qty, pay_method, cash_amount, transfer_amount, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, sale.ID, sale.Date, sale.Time, sale.POS, sale.ProductID, sale.Qty, sale.PayMethod, sale.CashAmount, sale.TransferAmount, sale.Notes, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := sale
	return &created, nil
}

func (s *Store) GetSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sale_date, sale_time, pos, product_id, qty, pay_method, cash_amount, transfer_amount, notes, created_at
		FROM sales
		WHERE id = $1
	`, id).Scan(&sale.ID, &sale.Date, &sale.Time, &sale.POS, &sale.ProductID, &sale.Qty, &sale.PayMethod, &sale.CashAmount, &sale.TransferAmount, &sale.Notes, &sale.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	return &sale, nil
}

func (s *Store) ListSalesByDate(ctx context.Context, date string, pos string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_date, sale_time, pos, product_id, qty, pay_method, cash_amount, transfer_amount, notes, created_at
		FROM sales
		WHERE sale_date = $1 AND ($2 = '' OR pos = $2)
		ORDER BY sale_time ASC, id ASC
	`, date, pos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSales(rows)
}

func (s *Store) ListSalesInRange(ctx context.Context, from string, to string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_date, sale_time, pos, product_id, qty, pay_method, cash_amount, transfer_amount, notes, created_at
		FROM sales
		WHERE sale_date >= $1 AND sale_date <= $2
		ORDER BY sale_date ASC, sale_time ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSales(rows)
}

func scanSales(rows *sql.Rows) ([]domain.Sale, error) {
	sales := make([]domain.Sale, 0, 128)
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(&sale.ID, &sale.Date, &sale.Time, &sale.POS, &sale.ProductID, &sale.Qty, &sale.PayMethod, &sale.CashAmount, &sale.TransferAmount, &sale.Notes, &sale.CreatedAt); err != nil {
			return nil, err
		}
		sale.CreatedAt = sale.CreatedAt.UTC()
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) SumSaleQty(ctx context.Context, date string, pos string, productID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)::int
		FROM sales
		WHERE sale_date = $1 AND pos = $2 AND product_id = $3
	`, date, pos, productID).Scan(&total)
	return total, err
}

func (s *Store) DeleteSale(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if purchase.ID == "" || purchase.Date == "" || purchase.ProductID == "" || purchase.Qty < 1 {
		return nil, store.ErrInvalidInput
	}
	if purchase.CreatedAt.IsZero() {
		purchase.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, purchase_date, pos, product_id, qty, unit_cost, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, purchase.ID, purchase.Date, purchase.POS, purchase.ProductID, purchase.Qty, purchase.UnitCost, purchase.Notes, purchase.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := purchase
	return &created, nil
}

func (s *Store) GetPurchaseByID(ctx context.Context, id string) (*domain.Purchase, error) {
	var purchase domain.Purchase
	err := s.db.QueryRowContext(ctx, `
		SELECT id, purchase_date, pos, product_id, qty, unit_cost, notes, created_at
		FROM purchases
		WHERE id = $1
	`, id).Scan(&purchase.ID, &purchase.Date, &purchase.POS, &purchase.ProductID, &purchase.Qty, &purchase.UnitCost, &purchase.Notes, &purchase.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	purchase.CreatedAt = purchase.CreatedAt.UTC()
	return &purchase, nil
}

func (s *Store) ListPurchasesByDate(ctx context.Context, date string, pos string) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_date, pos, product_id, qty, unit_cost, notes, created_at
		FROM purchases
		WHERE purchase_date = $1 AND ($2 = '' OR pos = $2)
		ORDER BY created_at ASC, id ASC
	`, date, pos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func (s *Store) ListPurchasesInRange(ctx context.Context, from string, to string) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_date, pos, product_id, qty, unit_cost, notes, created_at
		FROM purchases
		WHERE purchase_date >= $1 AND purchase_date <= $2
		ORDER BY purchase_date ASC, created_at ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func scanPurchases(rows *sql.Rows) ([]domain.Purchase, error) {
	purchases := make([]domain.Purchase, 0, 64)
	for rows.Next() {
		var purchase domain.Purchase
		if err := rows.Scan(&purchase.ID, &purchase.Date, &purchase.POS, &purchase.ProductID, &purchase.Qty, &purchase.UnitCost, &purchase.Notes, &purchase.CreatedAt); err != nil {
			return nil, err
		}
		purchase.CreatedAt = purchase.CreatedAt.UTC()
		purchases = append(purchases, purchase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) SumPurchaseQty(ctx context.Context, date string, pos string, productID string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)::int
		FROM purchases
		WHERE purchase_date = $1 AND pos = $2 AND product_id = $3
	`, date, pos, productID).Scan(&total)
	return total, err
}

func (s *Store) DeletePurchase(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertInventoryCount(ctx context.Context, count domain.InventoryCount) error {
	if count.Date == "" || count.POS == "" || count.ProductID == "" {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_counts (count_date, pos, product_id, initial_qty, final_qty, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (count_date, pos, product_id)
		DO UPDATE SET initial_qty = EXCLUDED.initial_qty, final_qty = EXCLUDED.final_qty, updated_at = now()
	`, count.Date, count.POS, count.ProductID, count.InitialQty, count.FinalQty)
	return err
}

func (s *Store) GetInventoryCount(ctx context.Context, date string, pos string, productID string) (*domain.InventoryCount, error) {
	var count domain.InventoryCount
	err := s.db.QueryRowContext(ctx, `
		SELECT count_date, pos, product_id, initial_qty, final_qty
		FROM inventory_counts
		WHERE count_date = $1 AND pos = $2 AND product_id = $3
	`, date, pos, productID).Scan(&count.Date, &count.POS, &count.ProductID, &count.InitialQty, &count.FinalQty)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &count, nil
}

func (s *Store) ListInventoryCounts(ctx context.Context, date string, pos string) ([]domain.InventoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT count_date, pos, product_id, initial_qty, final_qty
		FROM inventory_counts
		WHERE count_date = $1 AND pos = $2
		ORDER BY product_id ASC
	`, date, pos)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.InventoryCount, 0, 32)
	for rows.Next() {
		var count domain.InventoryCount
		if err := rows.Scan(&count.Date, &count.POS, &count.ProductID, &count.InitialQty, &count.FinalQty); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (s *Store) CreateInventoryMove(ctx context.Context, move domain.InventoryMove) error {
	if move.ID == "" || move.Date == "" || move.ProductID == "" {
		return store.ErrInvalidInput
	}
	if move.CreatedAt.IsZero() {
		move.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_moves (id, move_date, pos, product_id, qty, kind, ref_id, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, move.ID, move.Date, move.POS, move.ProductID, move.Qty, move.Kind, move.RefID, move.Notes, move.CreatedAt)
	return err
}

func (s *Store) DeleteInventoryMovesByRef(ctx context.Context, refID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM inventory_moves WHERE ref_id = $1`, refID)
	return err
}

func (s *Store) ListInventoryMoves(ctx context.Context, date string, pos string, limit int) ([]domain.InventoryMove, error) {
	if limit < 1 {
		limit = 200
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, move_date, pos, product_id, qty, kind, ref_id, notes, created_at
		FROM inventory_moves
		WHERE ($1 = '' OR move_date = $1) AND ($2 = '' OR pos = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, date, pos, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	moves := make([]domain.InventoryMove, 0, limit)
	for rows.Next() {
		var move domain.InventoryMove
		if err := rows.Scan(&move.ID, &move.Date, &move.POS, &move.ProductID, &move.Qty, &move.Kind, &move.RefID, &move.Notes, &move.CreatedAt); err != nil {
			return nil, err
		}
		move.CreatedAt = move.CreatedAt.UTC()
		moves = append(moves, move)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return moves, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.ID == "" || expense.Date == "" || expense.Concept == "" {
		return nil, store.ErrInvalidInput
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, expense_date, type, concept, amount, attributed_to, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, expense.ID, expense.Date, expense.Type, expense.Concept, expense.Amount, expense.AttributedTo, expense.Notes, expense.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListExpensesInRange(ctx context.Context, from string, to string) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, expense_date, type, concept, amount, attributed_to, notes, created_at
		FROM expenses
		WHERE expense_date >= $1 AND expense_date <= $2
		ORDER BY expense_date ASC, created_at ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var expense domain.Expense
		if err := rows.Scan(&expense.ID, &expense.Date, &expense.Type, &expense.Concept, &expense.Amount, &expense.AttributedTo, &expense.Notes, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expense.CreatedAt = expense.CreatedAt.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateWeeklyExpense(ctx context.Context, expense domain.WeeklyExpense) (*domain.WeeklyExpense, error) {
	if expense.ID == "" || expense.WeekStart == "" || expense.Concept == "" {
		return nil, store.ErrInvalidInput
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_expenses (id, week_start, concept, amount, attributed_to, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, expense.ID, expense.WeekStart, expense.Concept, expense.Amount, expense.AttributedTo, expense.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := expense
	return &created, nil
}

func (s *Store) ListWeeklyExpensesInRange(ctx context.Context, fromWeek string, toWeek string) ([]domain.WeeklyExpense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, week_start, concept, amount, attributed_to, created_at
		FROM weekly_expenses
		WHERE week_start >= $1 AND week_start <= $2
		ORDER BY week_start ASC, created_at ASC, id ASC
	`, fromWeek, toWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.WeeklyExpense, 0, 16)
	for rows.Next() {
		var expense domain.WeeklyExpense
		if err := rows.Scan(&expense.ID, &expense.WeekStart, &expense.Concept, &expense.Amount, &expense.AttributedTo, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expense.CreatedAt = expense.CreatedAt.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteWeeklyExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM weekly_expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, share_pct
		FROM partners
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partners := make([]domain.Partner, 0, 8)
	for rows.Next() {
		var partner domain.Partner
		if err := rows.Scan(&partner.ID, &partner.Name, &partner.SharePct); err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *Store) CreatePartner(ctx context.Context, partner domain.Partner) (*domain.Partner, error) {
	if partner.ID == "" || partner.Name == "" {
		return nil, store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partners (id, name, share_pct)
		VALUES ($1,$2,$3)
	`, partner.ID, partner.Name, partner.SharePct)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := partner
	return &created, nil
}

func (s *Store) UpdatePartner(ctx context.Context, partner domain.Partner) (*domain.Partner, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE partners
		SET name = $2, share_pct = $3
		WHERE id = $1
	`, partner.ID, partner.Name, partner.SharePct)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := partner
	return &updated, nil
}

func (s *Store) DeletePartner(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM partners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]domain.Employee, error) {
	query := `
		SELECT id, name, role, daily_salary, active
		FROM employees
	`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(&employee.ID, &employee.Name, &employee.Role, &employee.DailySalary, &employee.Active); err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.ID == "" || employee.Name == "" {
		return nil, store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, daily_salary, active)
		VALUES ($1,$2,$3,$4,$5)
	`, employee.ID, employee.Name, employee.Role, employee.DailySalary, employee.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := employee
	return &created, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE employees
		SET name = $2, role = $3, daily_salary = $4, active = $5
		WHERE id = $1
	`, employee.ID, employee.Name, employee.Role, employee.DailySalary, employee.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := employee
	return &updated, nil
}

func (s *Store) ListStationManagers(ctx context.Context) ([]domain.StationManager, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pos, manager
		FROM station_managers
		ORDER BY pos ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	managers := make([]domain.StationManager, 0, 4)
	for rows.Next() {
		var manager domain.StationManager
		if err := rows.Scan(&manager.POS, &manager.Manager); err != nil {
			return nil, err
		}
		managers = append(managers, manager)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return managers, nil
}

func (s *Store) GetStationManager(ctx context.Context, pos string) (*domain.StationManager, error) {
	var manager domain.StationManager
	err := s.db.QueryRowContext(ctx, `
		SELECT pos, manager
		FROM station_managers
		WHERE pos = $1
	`, pos).Scan(&manager.POS, &manager.Manager)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	// A blank manager row means the station is explicitly unassigned.
	if strings.TrimSpace(manager.Manager) == "" {
		return nil, store.ErrNotFound
	}
	return &manager, nil
}

func (s *Store) UpsertStationManager(ctx context.Context, manager domain.StationManager) error {
	if manager.POS == "" {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO station_managers (pos, manager, updated_at)
		VALUES ($1,$2,now())
		ON CONFLICT (pos)
		DO UPDATE SET manager = EXCLUDED.manager, updated_at = now()
	`, manager.POS, manager.Manager)
	return err
}

func (s *Store) CreateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	if debt.ID == "" || debt.Person == "" || debt.Amount < 1 {
		return nil, store.ErrInvalidInput
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debts (id, debt_date, person, reason, amount, balance, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, debt.ID, debt.Date, debt.Person, debt.Reason, debt.Amount, debt.Balance, debt.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := debt
	return &created, nil
}

func (s *Store) GetDebtByID(ctx context.Context, id string) (*domain.Debt, error) {
	var debt domain.Debt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, debt_date, person, reason, amount, balance, created_at
		FROM debts
		WHERE id = $1
	`, id).Scan(&debt.ID, &debt.Date, &debt.Person, &debt.Reason, &debt.Amount, &debt.Balance, &debt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	debt.CreatedAt = debt.CreatedAt.UTC()
	return &debt, nil
}

func (s *Store) ListOpenDebts(ctx context.Context) ([]domain.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debt_date, person, reason, amount, balance, created_at
		FROM debts
		WHERE balance > 0
		ORDER BY debt_date DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

func (s *Store) ListDebtsByPerson(ctx context.Context, person string, openOnly bool) ([]domain.Debt, error) {
	query := `
		SELECT id, debt_date, person, reason, amount, balance, created_at
		FROM debts
		WHERE person = $1
	`
	if openOnly {
		query += ` AND balance > 0`
	}
	query += ` ORDER BY debt_date ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, person)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDebts(rows)
}

func (s *Store) FindDebtByReasonDate(ctx context.Context, reason string, date string) (*domain.Debt, error) {
	var debt domain.Debt
	err := s.db.QueryRowContext(ctx, `
		SELECT id, debt_date, person, reason, amount, balance, created_at
		FROM debts
		WHERE reason = $1 AND debt_date = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, reason, date).Scan(&debt.ID, &debt.Date, &debt.Person, &debt.Reason, &debt.Amount, &debt.Balance, &debt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	debt.CreatedAt = debt.CreatedAt.UTC()
	return &debt, nil
}

func scanDebts(rows *sql.Rows) ([]domain.Debt, error) {
	debts := make([]domain.Debt, 0, 32)
	for rows.Next() {
		var debt domain.Debt
		if err := rows.Scan(&debt.ID, &debt.Date, &debt.Person, &debt.Reason, &debt.Amount, &debt.Balance, &debt.CreatedAt); err != nil {
			return nil, err
		}
		debt.CreatedAt = debt.CreatedAt.UTC()
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *Store) UpdateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE debts
		SET reason = $2, balance = $3
		WHERE id = $1
	`, debt.ID, debt.Reason, debt.Balance)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := debt
	return &updated, nil
}

func (s *Store) CreateDebtPayment(ctx context.Context, payment domain.DebtPayment) error {
	if payment.ID == "" || payment.DebtID == "" || payment.Amount < 1 {
		return store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO debt_payments (id, debt_id, payment_date, amount, method, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, payment.ID, payment.DebtID, payment.Date, payment.Amount, payment.Method, payment.Notes)
	return err
}

func (s *Store) ListDebtPayments(ctx context.Context, debtID string) ([]domain.DebtPayment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debt_id, payment_date, amount, method, notes
		FROM debt_payments
		WHERE debt_id = $1
		ORDER BY payment_date ASC, id ASC
	`, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]domain.DebtPayment, 0, 8)
	for rows.Next() {
		var payment domain.DebtPayment
		if err := rows.Scan(&payment.ID, &payment.DebtID, &payment.Date, &payment.Amount, &payment.Method, &payment.Notes); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) CreateActivityEntry(ctx context.Context, entry domain.ActivityEntry) error {
	if entry.ID == "" {
		return store.ErrInvalidInput
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, actor, action, entity, entity_id, detail, at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, entry.ID, entry.Actor, entry.Action, entry.Entity, entry.EntityID, entry.Detail, entry.At)
	return err
}

func (s *Store) ListActivityEntries(ctx context.Context, date string, limit int) ([]domain.ActivityEntry, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity, entity_id, detail, at
		FROM activity_log
		WHERE ($1 = '' OR to_char(at AT TIME ZONE 'UTC', 'YYYY-MM-DD') = $1)
		ORDER BY at DESC
		LIMIT $2
	`, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ActivityEntry, 0, limit)
	for rows.Next() {
		var entry domain.ActivityEntry
		if err := rows.Scan(&entry.ID, &entry.Actor, &entry.Action, &entry.Entity, &entry.EntityID, &entry.Detail, &entry.At); err != nil {
			return nil, err
		}
		entry.At = entry.At.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalidInput
	}
	if user.Role == "" {
		user.Role = "cashier"
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

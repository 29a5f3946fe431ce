package store

import (
	"context"
	"errors"

	"barsnow/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)

	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	ListSalesByDate(ctx context.Context, date string, pos string) ([]domain.Sale, error)
	ListSalesInRange(ctx context.Context, from string, to string) ([]domain.Sale, error)
	SumSaleQty(ctx context.Context, date string, pos string, productID string) (int, error)
	DeleteSale(ctx context.Context, id string) error

	CreatePurchase(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error)
	GetPurchaseByID(ctx context.Context, id string) (*domain.Purchase, error)
	ListPurchasesByDate(ctx context.Context, date string, pos string) ([]domain.Purchase, error)
	ListPurchasesInRange(ctx context.Context, from string, to string) ([]domain.Purchase, error)
	SumPurchaseQty(ctx context.Context, date string, pos string, productID string) (int, error)
	DeletePurchase(ctx context.Context, id string) error

	UpsertInventoryCount(ctx context.Context, count domain.InventoryCount) error
	GetInventoryCount(ctx context.Context, date string, pos string, productID string) (*domain.InventoryCount, error)
	ListInventoryCounts(ctx context.Context, date string, pos string) ([]domain.InventoryCount, error)

	CreateInventoryMove(ctx context.Context, move domain.InventoryMove) error
	DeleteInventoryMovesByRef(ctx context.Context, refID string) error
	ListInventoryMoves(ctx context.Context, date string, pos string, limit int) ([]domain.InventoryMove, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpensesInRange(ctx context.Context, from string, to string) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	CreateWeeklyExpense(ctx context.Context, expense domain.WeeklyExpense) (*domain.WeeklyExpense, error)
	ListWeeklyExpensesInRange(ctx context.Context, fromWeek string, toWeek string) ([]domain.WeeklyExpense, error)
	DeleteWeeklyExpense(ctx context.Context, id string) error

	ListPartners(ctx context.Context) ([]domain.Partner, error)
	CreatePartner(ctx context.Context, partner domain.Partner) (*domain.Partner, error)
	UpdatePartner(ctx context.Context, partner domain.Partner) (*domain.Partner, error)
	DeletePartner(ctx context.Context, id string) error

	ListEmployees(ctx context.Context, activeOnly bool) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	UpdateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)

	ListStationManagers(ctx context.Context) ([]domain.StationManager, error)
	GetStationManager(ctx context.Context, pos string) (*domain.StationManager, error)
	UpsertStationManager(ctx context.Context, manager domain.StationManager) error

	CreateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error)
	GetDebtByID(ctx context.Context, id string) (*domain.Debt, error)
	ListOpenDebts(ctx context.Context) ([]domain.Debt, error)
	ListDebtsByPerson(ctx context.Context, person string, openOnly bool) ([]domain.Debt, error)
	FindDebtByReasonDate(ctx context.Context, reason string, date string) (*domain.Debt, error)
	UpdateDebt(ctx context.Context, debt domain.Debt) (*domain.Debt, error)
	CreateDebtPayment(ctx context.Context, payment domain.DebtPayment) error
	ListDebtPayments(ctx context.Context, debtID string) ([]domain.DebtPayment, error)

	CreateActivityEntry(ctx context.Context, entry domain.ActivityEntry) error
	ListActivityEntries(ctx context.Context, date string, limit int) ([]domain.ActivityEntry, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

package domain

import "time"

// Points of sale. The bar runs two stations with separate catalogs,
// cash drawers and nightly counts.
const (
	POSBarra      = "Barra"
	POSGranizados = "Granizados"
)

var PointsOfSale = []string{POSBarra, POSGranizados}

const (
	PayCash     = "Efectivo"
	PayTransfer = "Transferencia"
	PayMixed    = "Mixto"
)

const (
	ExpenseOperating   = "Gasto"
	ExpensePayroll     = "Nomina"
	ExpensePartnerDraw = "DescuentoSocio"
)

const (
	MoveKindSale     = "sale"
	MoveKindPurchase = "purchase"
)

// UnassignedBucket groups partner draws that carry no partner name.
const UnassignedBucket = "Sin asignar"

// InferredSaleNote marks sales created by the nightly close rather than
// entered at the register.
const InferredSaleNote = "Auto-inferido por cierre diario"

// InferredSaleTime is the wall-clock time stamped on inferred sales.
const InferredSaleTime = "23:59:00"

// CondonedSuffix is appended to a debt reason when the debt is forgiven.
const CondonedSuffix = " (CONDONADA)"

type Product struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	POS         string    `json:"pos"`
	CupsPerUnit int       `json:"cups_per_unit"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductCreateRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	POS         string `json:"pos"`
	CupsPerUnit int    `json:"cups_per_unit"`
}

type ProductUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	CupsPerUnit *int    `json:"cups_per_unit,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type Sale struct {
	ID             string    `json:"id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	POS            string    `json:"pos"`
	ProductID      string    `json:"product_id"`
	Qty            int       `json:"qty"`
	PayMethod      string    `json:"pay_method"`
	CashAmount     int64     `json:"cash_amount"`
	TransferAmount int64     `json:"transfer_amount"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s Sale) Total() int64 {
	return s.CashAmount + s.TransferAmount
}

// Inferred reports whether this sale was created by the nightly close.
func (s Sale) Inferred() bool {
	return s.Notes == InferredSaleNote
}

type SaleCreateRequest struct {
	Date           string `json:"date"`
	Time           string `json:"time,omitempty"`
	POS            string `json:"pos"`
	ProductID      string `json:"product_id"`
	Qty            int    `json:"qty"`
	PayMethod      string `json:"pay_method"`
	CashAmount     int64  `json:"cash_amount,omitempty"`
	TransferAmount int64  `json:"transfer_amount,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type Purchase struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	POS       string    `json:"pos"`
	ProductID string    `json:"product_id"`
	Qty       int       `json:"qty"`
	UnitCost  int64     `json:"unit_cost"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Purchase) TotalCost() int64 {
	return int64(p.Qty) * p.UnitCost
}

type PurchaseCreateRequest struct {
	Date      string `json:"date"`
	POS       string `json:"pos"`
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	UnitCost  int64  `json:"unit_cost"`
	Notes     string `json:"notes,omitempty"`
}

type Expense struct {
	ID           string    `json:"id"`
	Date         string    `json:"date"`
	Type         string    `json:"type"`
	Concept      string    `json:"concept"`
	Amount       int64     `json:"amount"`
	AttributedTo string    `json:"attributed_to,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ExpenseCreateRequest struct {
	Date         string `json:"date"`
	Type         string `json:"type"`
	Concept      string `json:"concept"`
	Amount       int64  `json:"amount"`
	AttributedTo string `json:"attributed_to,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type WeeklyExpense struct {
	ID           string    `json:"id"`
	WeekStart    string    `json:"week_start"`
	Concept      string    `json:"concept"`
	Amount       int64     `json:"amount"`
	AttributedTo string    `json:"attributed_to,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type WeeklyExpenseCreateRequest struct {
	Date         string `json:"date"`
	Concept      string `json:"concept"`
	Amount       int64  `json:"amount"`
	AttributedTo string `json:"attributed_to,omitempty"`
}

type InventoryCount struct {
	Date       string `json:"date"`
	POS        string `json:"pos"`
	ProductID  string `json:"product_id"`
	InitialQty int    `json:"initial_qty"`
	FinalQty   int    `json:"final_qty"`
}

type InventoryCountEntry struct {
	ProductID  string `json:"product_id"`
	InitialQty int    `json:"initial_qty"`
	FinalQty   int    `json:"final_qty"`
}

type InventoryMove struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	POS       string    `json:"pos"`
	ProductID string    `json:"product_id"`
	Qty       int       `json:"qty"`
	Kind      string    `json:"kind"`
	RefID     string    `json:"ref_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Partner struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	SharePct float64 `json:"share_pct"`
}

type PartnerCreateRequest struct {
	Name     string  `json:"name"`
	SharePct float64 `json:"share_pct"`
}

type PartnerUpdateRequest struct {
	Name     *string  `json:"name,omitempty"`
	SharePct *float64 `json:"share_pct,omitempty"`
}

type Employee struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	DailySalary int64  `json:"daily_salary"`
	Active      bool   `json:"active"`
}

type EmployeeCreateRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	DailySalary int64  `json:"daily_salary"`
}

type EmployeeUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Role        *string `json:"role,omitempty"`
	DailySalary *int64  `json:"daily_salary,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type StationManager struct {
	POS     string `json:"pos"`
	Manager string `json:"manager"`
}

type Debt struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Person    string    `json:"person"`
	Reason    string    `json:"reason"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

type DebtCreateRequest struct {
	Date   string `json:"date"`
	Person string `json:"person"`
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

type DebtPayment struct {
	ID     string `json:"id"`
	DebtID string `json:"debt_id"`
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Method string `json:"method,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type DebtPaymentRequest struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Method string `json:"method,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type PersonPaymentRequest struct {
	Person string `json:"person"`
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Method string `json:"method,omitempty"`
}

type DebtPaymentResult struct {
	DebtID     string `json:"debt_id"`
	Paid       int64  `json:"paid"`
	NewBalance int64  `json:"new_balance"`
	Settled    bool   `json:"settled"`
}

type PersonPaymentResult struct {
	Person  string              `json:"person"`
	Paid    int64               `json:"paid"`
	Applied []DebtPaymentResult `json:"applied"`
}

type DebtorSummary struct {
	Person string `json:"person"`
	Total  int64  `json:"total"`
	Debts  []Debt `json:"debts"`
}

// InferredSale is one sale written by the nightly close.
type InferredSale struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int    `json:"qty"`
	Amount      int64  `json:"amount"`
}

type InferenceSkip struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Reason      string `json:"reason"`
}

type InferenceResult struct {
	Date     string          `json:"date"`
	POS      string          `json:"pos"`
	Inferred []InferredSale  `json:"inferred"`
	Skipped  []InferenceSkip `json:"skipped,omitempty"`
	Failures []InferenceSkip `json:"failures,omitempty"`
	Total    int64           `json:"total"`
}

type CashCheckResult struct {
	Date       string `json:"date"`
	POS        string `json:"pos"`
	Expected   int64  `json:"expected"`
	Counted    int64  `json:"counted"`
	Shortage   int64  `json:"shortage"`
	Surplus    int64  `json:"surplus"`
	Manager    string `json:"manager,omitempty"`
	Unassigned bool   `json:"unassigned,omitempty"`
	DebtID     string `json:"debt_id,omitempty"`
}

type MethodTotal struct {
	Method string `json:"method"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

type POSTotal struct {
	POS       string `json:"pos"`
	Revenue   int64  `json:"revenue"`
	SaleCount int    `json:"sale_count"`
}

type DaySummary struct {
	Date          string        `json:"date"`
	Revenue       int64         `json:"revenue"`
	CashTotal     int64         `json:"cash_total"`
	TransferTotal int64         `json:"transfer_total"`
	SaleCount     int           `json:"sale_count"`
	ByPOS         []POSTotal    `json:"by_pos"`
	ByMethod      []MethodTotal `json:"by_method"`
}

type PeriodSummary struct {
	From               string           `json:"from"`
	To                 string           `json:"to"`
	Revenue            int64            `json:"revenue"`
	CashCollected      int64            `json:"cash_collected"`
	TransferCollected  int64            `json:"transfer_collected"`
	SaleCount          int              `json:"sale_count"`
	COGS               int64            `json:"cogs"`
	GrossProfit        int64            `json:"gross_profit"`
	OperatingExpenses  int64            `json:"operating_expenses"`
	PayrollExpenses    int64            `json:"payroll_expenses"`
	WeeklyExpenses     int64            `json:"weekly_expenses"`
	PartnerDraws       int64            `json:"partner_draws"`
	DrawsByPartner     map[string]int64 `json:"draws_by_partner,omitempty"`
	ExpensesByType     map[string]int64 `json:"expenses_by_type"`
	OperatingResult    int64            `json:"operating_result"`
	GrossMarginPct     float64          `json:"gross_margin_pct"`
	OperatingMarginPct float64          `json:"operating_margin_pct"`
	MarginsValid       bool             `json:"margins_valid"`
	ByPOS              []POSTotal       `json:"by_pos"`
	ByMethod           []MethodTotal    `json:"by_method"`
}

type PartnerShare struct {
	PartnerID string  `json:"partner_id"`
	Name      string  `json:"name"`
	SharePct  float64 `json:"share_pct"`
	BaseShare int64   `json:"base_share"`
	Deduction int64   `json:"deduction"`
	NetShare  int64   `json:"net_share"`
}

type Distribution struct {
	OperatingResult int64          `json:"operating_result"`
	Shares          []PartnerShare `json:"shares"`
	Distributed     int64          `json:"distributed"`
}

type PayrollDayRequest struct {
	Date string `json:"date"`
}

type InferRequest struct {
	Date string `json:"date"`
	POS  string `json:"pos"`
}

type CashCountRequest struct {
	Date    string `json:"date"`
	POS     string `json:"pos"`
	Counted int64  `json:"counted"`
}

type CondoneRequest struct {
	ManagerPIN string `json:"manager_pin"`
	Motive     string `json:"motive,omitempty"`
}

type InventoryCountSaveRequest struct {
	Date    string                `json:"date"`
	POS     string                `json:"pos"`
	Entries []InventoryCountEntry `json:"entries"`
}

type PayrollDayResult struct {
	Date    string    `json:"date"`
	Entries []Expense `json:"entries"`
	Total   int64     `json:"total"`
}

type ActivityEntry struct {
	ID       string    `json:"id"`
	Actor    string    `json:"actor"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	Detail   string    `json:"detail"`
	At       time.Time `json:"at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

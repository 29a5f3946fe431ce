package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"barsnow/backend/internal/cache"
	"barsnow/backend/internal/domain"
	"barsnow/backend/internal/service"
	"barsnow/backend/internal/store/memory"
)

const testManagerPIN = "739154"

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopReportCache{}, 5*time.Second, "VASO-12")
	auth := NewAuthManager("0123456789abcdef0123456789abcdef", time.Hour, testManagerPIN, repo)

	return New(svc, auth, "*")
}

// mustHashPassword generates a bcrypt hash of the given password or fails the test.
func mustHashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func testDate() string {
	return time.Now().Format("2006-01-02")
}

// doJSON sends an authenticated JSON request through the full handler chain.
func doJSON(t *testing.T, api *API, method, path, token, csrf string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/healthz", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_Success(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", "", map[string]string{
		"username": "admin",
		"password": "admin123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("expected access_token in response, got %v", body)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", "", map[string]string{
		"username": "admin",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleProducts_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/products", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleProducts_WithValidToken(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	rec := doJSON(t, api, http.MethodGet, "/api/v1/products", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["products"] == nil {
		t.Fatalf("expected products key in response, got %v", body)
	}
}

func TestCreateProduct_RequiresCSRF(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/products", token, "", domain.ProductCreateRequest{
		SKU:   "TEQ-SHOT",
		Name:  "Shot Tequila",
		Price: 9000,
		POS:   domain.POSBarra,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d", rec.Code)
	}
}

func TestCreateProduct_AdminSuccess(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/products", token, csrf, domain.ProductCreateRequest{
		SKU:         "TEQ-SHOT",
		Name:        "Shot Tequila",
		Price:       9000,
		POS:         domain.POSBarra,
		CupsPerUnit: 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestCashierForbiddenOnAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	rec := doJSON(t, api, http.MethodGet, "/api/v1/expenses?from="+testDate()+"&to="+testDate(), token, "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for cashier on admin route, got %d", rec.Code)
	}
}

func TestRecordSaleAndListByDate(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, csrf, domain.SaleCreateRequest{
		Date:      testDate(),
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       2,
		PayMethod: domain.PayCash,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	list := doJSON(t, api, http.MethodGet, "/api/v1/sales?date="+testDate()+"&pos="+domain.POSBarra, token, "", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", list.Code)
	}

	var body struct {
		Sales []domain.Sale `json:"sales"`
	}
	if err := json.NewDecoder(list.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Sales) != 1 || body.Sales[0].CashAmount != 12000 {
		t.Fatalf("expected one cash sale of 12000, got %+v", body.Sales)
	}
}

func TestDeleteSaleRequiresManagerPIN(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	rec := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, csrf, domain.SaleCreateRequest{
		Date:      testDate(),
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       1,
		PayMethod: domain.PayCash,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sale failed: %d", rec.Code)
	}
	var created struct {
		Sale domain.Sale `json:"sale"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode sale: %v", err)
	}

	noPIN := doJSON(t, api, http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, token, csrf, nil)
	if noPIN.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without manager pin, got %d", noPIN.Code)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/sales/"+created.Sale.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-CSRF-Token", csrf)
	req.Header.Set("X-Manager-PIN", testManagerPIN)
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 with manager pin, got %d (body: %s)", res.Code, res.Body.String())
	}
}

func TestClosingInferenceFlow(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)
	date := testDate()

	counts := doJSON(t, api, http.MethodPut, "/api/v1/inventory/counts", token, csrf, domain.InventoryCountSaveRequest{
		Date: date,
		POS:  domain.POSBarra,
		Entries: []domain.InventoryCountEntry{
			{ProductID: "prod-cerveza", InitialQty: 4, FinalQty: 1},
		},
	})
	if counts.Code != http.StatusOK {
		t.Fatalf("save counts failed: %d (body: %s)", counts.Code, counts.Body.String())
	}

	sale := doJSON(t, api, http.MethodPost, "/api/v1/sales", token, csrf, domain.SaleCreateRequest{
		Date:      date,
		POS:       domain.POSBarra,
		ProductID: "prod-cerveza",
		Qty:       1,
		PayMethod: domain.PayCash,
	})
	if sale.Code != http.StatusCreated {
		t.Fatalf("record sale failed: %d", sale.Code)
	}

	infer := doJSON(t, api, http.MethodPost, "/api/v1/closing/infer-cash-sales", token, csrf, domain.InferRequest{
		Date: date,
		POS:  domain.POSBarra,
	})
	if infer.Code != http.StatusOK {
		t.Fatalf("infer failed: %d (body: %s)", infer.Code, infer.Body.String())
	}
	var inferred domain.InferenceResult
	if err := json.NewDecoder(infer.Body).Decode(&inferred); err != nil {
		t.Fatalf("decode inference: %v", err)
	}
	if inferred.Total != 12000 {
		t.Fatalf("expected 12000 inferred, got %d", inferred.Total)
	}

	expected := doJSON(t, api, http.MethodGet, "/api/v1/closing/expected-cash?date="+date+"&pos="+domain.POSBarra, token, "", nil)
	if expected.Code != http.StatusOK {
		t.Fatalf("expected-cash failed: %d", expected.Code)
	}
	var drawer struct {
		Expected int64 `json:"expected"`
	}
	if err := json.NewDecoder(expected.Body).Decode(&drawer); err != nil {
		t.Fatalf("decode expected cash: %v", err)
	}
	if drawer.Expected != 18000 {
		t.Fatalf("expected drawer total 18000, got %d", drawer.Expected)
	}

	count := doJSON(t, api, http.MethodPost, "/api/v1/closing/cash-count", token, csrf, domain.CashCountRequest{
		Date:    date,
		POS:     domain.POSBarra,
		Counted: drawer.Expected - 5000,
	})
	if count.Code != http.StatusOK {
		t.Fatalf("cash count failed: %d (body: %s)", count.Code, count.Body.String())
	}
	var check domain.CashCheckResult
	if err := json.NewDecoder(count.Body).Decode(&check); err != nil {
		t.Fatalf("decode cash check: %v", err)
	}
	if check.Shortage != 5000 || check.DebtID == "" {
		t.Fatalf("expected shortage 5000 with debt, got %+v", check)
	}
}

func TestPeriodReportCSVFormat(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	date := testDate()

	rec := doJSON(t, api, http.MethodGet, "/api/v1/reports/period?from="+date+"&to="+date+"&format=csv", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "section,key,value") {
		t.Fatalf("expected csv header row, got %q", rec.Body.String()[:40])
	}
}

func TestStationManagersRoundTrip(t *testing.T) {
	api := newTestAPI(t)
	token := loginAsAdmin(t, api)
	csrf := fetchCSRFToken(t, api)

	put := doJSON(t, api, http.MethodPut, "/api/v1/station-managers", token, csrf, domain.StationManager{
		POS:     domain.POSBarra,
		Manager: "Julián",
	})
	if put.Code != http.StatusOK {
		t.Fatalf("set manager failed: %d (body: %s)", put.Code, put.Body.String())
	}

	get := doJSON(t, api, http.MethodGet, "/api/v1/station-managers", token, "", nil)
	if get.Code != http.StatusOK {
		t.Fatalf("list managers failed: %d", get.Code)
	}
	var body struct {
		Managers []domain.StationManager `json:"managers"`
	}
	if err := json.NewDecoder(get.Body).Decode(&body); err != nil {
		t.Fatalf("decode managers: %v", err)
	}
	found := false
	for _, m := range body.Managers {
		if m.POS == domain.POSBarra && m.Manager == "Julián" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected updated manager in list, got %+v", body.Managers)
	}
}

// TestMustHashPassword verifies that the test helper produces valid bcrypt hashes
// (used to confirm test infrastructure is sound).
func TestMustHashPassword(t *testing.T) {
	hash := mustHashPassword(t, "secret")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret")); err != nil {
		t.Fatalf("hash verification failed: %v", err)
	}
}

package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/PedroSmaxY/hardware-store/internal/config"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/service"
	"github.com/PedroSmaxY/hardware-store/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		t.Fatalf("want status %d, got %d: %v", want, resp.StatusCode, body)
	}
}

// ── Environment ──────────────────────────────────────────────────────────────

type testEnv struct {
	server       *httptest.Server
	managerToken string
	clerkToken   string
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTExpirationHours:  8,
		JWTRefreshHours:     24,
		CustomerDiscountPct: "5",
		LowStockThreshold:   5,
		StoreName:           "Hardware Store",
	}
}

func seedEmployee(t *testing.T, db *gorm.DB, username, password, role string) {
	t.Helper()
	hash, err := service.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, db.Create(&model.Employee{
		Name: username, Username: username, PasswordHash: hash, Role: role, Active: true,
	}).Error)
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/v1/auth/login",
		jsonBody(t, map[string]string{"username": username, "password": password}), "")
	expectStatus(t, resp, http.StatusOK)
	var body struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func newTestEnvWith(t *testing.T, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	seedEmployee(t, db, "manager", "manager123", model.RoleManager)
	seedEmployee(t, db, "clerk", "clerk123", model.RoleSalesperson)

	r, err := New(cfg, Deps{DB: db, Rdb: rdb})
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:       srv,
		managerToken: login(t, srv, "manager", "manager123"),
		clerkToken:   login(t, srv, "clerk", "clerk123"),
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, testConfig(), testutil.NewTestDB(t), nil)
}

type saleBody struct {
	ID         uint            `json:"id"`
	Status     string          `json:"status"`
	TotalValue decimal.Decimal `json:"total_value"`
	Items      []struct {
		ID       uint            `json:"id"`
		Discount decimal.Decimal `json:"discount"`
	} `json:"items"`
	Warnings []string `json:"warnings"`
}

// runSaleFlow drives the hammer walkthrough over HTTP. Shared with the
// container-backed test.
func runSaleFlow(t *testing.T, env *testEnv) {
	t.Helper()
	srv := env.server

	// Manager registers the product.
	resp := do(t, srv, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Hammer", "unit_price": "10.00", "stock_quantity": 5}), env.managerToken)
	expectStatus(t, resp, http.StatusCreated)
	var product struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &product)

	resp = do(t, srv, http.MethodPost, "/v1/customers",
		jsonBody(t, map[string]any{"name": "Ana", "national_id": "529.982.247-25"}), env.clerkToken)
	expectStatus(t, resp, http.StatusCreated)
	var customer struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &customer)

	// Clerk opens a sale and rings up 3 hammers.
	resp = do(t, srv, http.MethodPost, "/v1/sales", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusCreated)
	var sale saleBody
	decodeJSON(t, resp, &sale)
	assert.Equal(t, model.SaleOpen, sale.Status)
	salePath := "/v1/sales/" + itoa(sale.ID)

	resp = do(t, srv, http.MethodPost, salePath+"/items",
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 3}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.True(t, decimal.RequireFromString("30").Equal(sale.TotalValue))

	resp = do(t, srv, http.MethodPut, salePath+"/customer",
		jsonBody(t, map[string]any{"customer_id": customer.ID}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, salePath+"/items",
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 2}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.True(t, decimal.RequireFromString("49").Equal(sale.TotalValue))

	// Out of stock → 409, discount over the cap → 422.
	resp = do(t, srv, http.MethodPost, salePath+"/items",
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 1}), env.clerkToken)
	expectStatus(t, resp, http.StatusConflict)
	var apiErr struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &apiErr)
	assert.Equal(t, "insufficient_stock", apiErr.Code)

	resp = do(t, srv, http.MethodPost, salePath+"/items",
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 1, "discount_percent": "15"}), env.clerkToken)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()

	// Remove the discounted line.
	resp = do(t, srv, http.MethodDelete, salePath+"/items/"+itoa(sale.Items[1].ID), nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.True(t, decimal.RequireFromString("30").Equal(sale.TotalValue))

	resp = do(t, srv, http.MethodGet, "/v1/products/"+itoa(product.ID), nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	var stock struct {
		StockQuantity int `json:"stock_quantity"`
	}
	decodeJSON(t, resp, &stock)
	assert.Equal(t, 2, stock.StockQuantity)

	resp = do(t, srv, http.MethodPost, salePath+"/finalize", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.Equal(t, model.SaleFinalized, sale.Status)

	resp = do(t, srv, http.MethodPost, salePath+"/cancel", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// ── Tests ────────────────────────────────────────────────────────────────────

func TestSaleFlowOverHTTP(t *testing.T) {
	runSaleFlow(t, newTestEnv(t))
}

func TestHealth_WithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	resp := do(t, env.server, http.MethodGet, "/health", nil, "")
	expectStatus(t, resp, http.StatusOK)
	var body map[string]any
	decodeJSON(t, resp, &body)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestRoleGuards(t *testing.T) {
	env := newTestEnv(t)
	srv := env.server

	resp := do(t, srv, http.MethodGet, "/v1/products", nil, "")
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Saw", "unit_price": "5.00"}), env.clerkToken)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/employees", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/stock/movements", nil, env.managerToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	srv := env.server

	resp := do(t, srv, http.MethodPost, "/v1/customers",
		jsonBody(t, map[string]any{"name": "Bad", "national_id": "123"}), env.clerkToken)
	expectStatus(t, resp, http.StatusBadRequest)
	var body struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "validation_error", body.Code)
	assert.Equal(t, "national_id", body.Fields["NationalID"])

	resp = do(t, srv, http.MethodGet, "/v1/sales/abc", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/sales/999", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, "/v1/discounts/preview",
		jsonBody(t, map[string]any{"unit_price": "10.00", "quantity": 2, "customer_present": true}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	var preview struct {
		Discount decimal.Decimal `json:"discount"`
	}
	decodeJSON(t, resp, &preview)
	assert.True(t, decimal.RequireFromString("1").Equal(preview.Discount))
}

func TestPriceCheckIsPublic(t *testing.T) {
	env := newTestEnv(t)
	resp := do(t, env.server, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Level", "unit_price": "25.00", "stock_quantity": 1}), env.managerToken)
	expectStatus(t, resp, http.StatusCreated)
	var p struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &p)

	resp = do(t, env.server, http.MethodGet, "/v1/price/"+itoa(p.ID), nil, "")
	expectStatus(t, resp, http.StatusOK)
	var price map[string]any
	decodeJSON(t, resp, &price)
	assert.Equal(t, "Level", price["name"])
	assert.NotContains(t, price, "stock_quantity")
}

func TestNew_RejectsBadDiscountConfig(t *testing.T) {
	cfg := testConfig()
	cfg.CustomerDiscountPct = "12"
	_, err := New(cfg, Deps{DB: testutil.NewTestDB(t)})
	assert.Error(t, err)
}

func TestUpdateLineOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	srv := env.server

	resp := do(t, srv, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Chisel", "unit_price": "12.00", "stock_quantity": 4}), env.managerToken)
	expectStatus(t, resp, http.StatusCreated)
	var product struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &product)

	resp = do(t, srv, http.MethodPost, "/v1/sales", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusCreated)
	var sale saleBody
	decodeJSON(t, resp, &sale)
	salePath := "/v1/sales/" + itoa(sale.ID)

	resp = do(t, srv, http.MethodPost, salePath+"/items",
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 1}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	linePath := salePath + "/items/" + itoa(sale.Items[0].ID)

	resp = do(t, srv, http.MethodPatch, linePath,
		jsonBody(t, map[string]any{"quantity": 3, "discount_percent": "10"}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.True(t, decimal.RequireFromString("3.60").Equal(sale.Items[0].Discount))
	assert.True(t, decimal.RequireFromString("32.40").Equal(sale.TotalValue))

	resp = do(t, srv, http.MethodPatch, linePath,
		jsonBody(t, map[string]any{"discount_percent": "12"}), env.clerkToken)
	expectStatus(t, resp, http.StatusUnprocessableEntity)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPatch, linePath,
		jsonBody(t, map[string]any{"quantity": 5}), env.clerkToken)
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, salePath+"/cancel", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	resp = do(t, srv, http.MethodPatch, linePath,
		jsonBody(t, map[string]any{"quantity": 2}), env.clerkToken)
	expectStatus(t, resp, http.StatusConflict)
	var apiErr struct {
		Code string `json:"code"`
	}
	decodeJSON(t, resp, &apiErr)
	assert.Equal(t, "invalid_state", apiErr.Code)
}

func TestEmployeesByRoleAndID(t *testing.T) {
	env := newTestEnv(t)
	srv := env.server

	resp := do(t, srv, http.MethodGet, "/v1/employees?role=salesperson", nil, env.managerToken)
	expectStatus(t, resp, http.StatusOK)
	var sellers []struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	decodeJSON(t, resp, &sellers)
	require.Len(t, sellers, 1)
	assert.Equal(t, "clerk", sellers[0].Username)

	resp = do(t, srv, http.MethodGet, "/v1/employees/"+itoa(sellers[0].ID), nil, env.managerToken)
	expectStatus(t, resp, http.StatusOK)
	var got struct {
		Role string `json:"role"`
	}
	decodeJSON(t, resp, &got)
	assert.Equal(t, model.RoleSalesperson, got.Role)

	resp = do(t, srv, http.MethodGet, "/v1/employees?role=owner", nil, env.managerToken)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, srv, http.MethodGet, "/v1/employees/999", nil, env.managerToken)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

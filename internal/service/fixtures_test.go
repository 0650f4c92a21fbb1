package service

import (
	"context"
	"testing"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/pricing"
	"github.com/PedroSmaxY/hardware-store/internal/repository"
	"github.com/PedroSmaxY/hardware-store/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Test environment ──────────────────────────────────────────────────────────
// Real repositories over an in-memory sqlite database, so transactions and
// rollbacks behave as they do in production.

type testEnv struct {
	db        *gorm.DB
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
	sales     repository.SaleRepository

	stock       StockService
	productSvc  ProductService
	customerSvc CustomerService
	saleSvc     SaleService

	manager Actor
	clerk   Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	env := &testEnv{
		db:        db,
		products:  repository.NewProductRepository(db),
		movements: repository.NewStockMovementRepository(db),
		customers: repository.NewCustomerRepository(db),
		employees: repository.NewEmployeeRepository(db),
		sales:     repository.NewSaleRepository(db),
	}
	env.stock = NewStockService(env.products, env.movements)
	env.productSvc = NewProductService(env.products, env.movements, nil, 5)
	env.customerSvc = NewCustomerService(env.customers)
	env.saleSvc = NewSaleService(env.sales, env.customers, env.stock, pricing.Default(), nil)

	env.manager = Actor{EmployeeID: env.seedEmployee(t, "boss", model.RoleManager).ID, Role: model.RoleManager}
	env.clerk = Actor{EmployeeID: env.seedEmployee(t, "clerk", model.RoleSalesperson).ID, Role: model.RoleSalesperson}
	return env
}

func (e *testEnv) seedEmployee(t *testing.T, username, role string) *model.Employee {
	t.Helper()
	emp := &model.Employee{Name: username, Username: username, PasswordHash: "unused", Role: role, Active: true}
	require.NoError(t, e.employees.Create(context.Background(), emp))
	return emp
}

func (e *testEnv) seedProduct(t *testing.T, name, price string, stock int) *dto.ProductResponse {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), e.manager, dto.CreateProductRequest{
		Name:          name,
		UnitPrice:     decimal.RequireFromString(price),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

// validNationalIDs are checksum-valid national ids for fixtures.
var validNationalIDs = []string{"52998224725", "11144477735", "12345678909"}

func (e *testEnv) seedCustomer(t *testing.T, name, nationalID string) *dto.CustomerResponse {
	t.Helper()
	c, err := e.customerSvc.Create(context.Background(), dto.CreateCustomerRequest{Name: name, NationalID: nationalID})
	require.NoError(t, err)
	return c
}

func (e *testEnv) stockOf(t *testing.T, productID uint) int {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func (e *testEnv) openSale(t *testing.T, customerID *uint) *dto.SaleResponse {
	t.Helper()
	s, err := e.saleSvc.Open(context.Background(), e.clerk, dto.OpenSaleRequest{CustomerID: customerID})
	require.NoError(t, err)
	return s
}

func intPtr(n int) *int { return &n }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// requireDecimal compares by value so "30" and "30.00" are equal.
func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

//go:build integration

package router

// Container-backed tests against real Postgres and Redis.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/infra"
	"github.com/PedroSmaxY/hardware-store/internal/repository"
	"github.com/PedroSmaxY/hardware-store/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type e2eEnv struct {
	*testEnv
	receipts string
}

func setupContainers(t *testing.T) *e2eEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("hardware_store_test"),
		tcPostgres.WithUsername("store"),
		tcPostgres.WithPassword("store"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.DBDriver = "postgres"
	cfg.DatabaseURL = pgURL
	cfg.RedisURL = rdURL
	cfg.WorkerPoolSize = 1
	cfg.ReceiptStoragePath = t.TempDir()

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	dispatcher := worker.NewDispatcher(rdb)
	worker.StartWorkerPool(workerCtx, rdb, map[string]worker.JobHandler{
		worker.JobReceipt: worker.NewReceiptWorker(repository.NewSaleRepository(db), dispatcher, cfg.StoreName, cfg.ReceiptStoragePath),
	}, cfg.WorkerPoolSize)

	return &e2eEnv{
		testEnv:  newTestEnvWith(t, cfg, db, rdb),
		receipts: cfg.ReceiptStoragePath,
	}
}

func TestE2E_SaleCycle(t *testing.T) {
	env := setupContainers(t)
	runSaleFlow(t, env.testEnv)

	// Finalizing queued a receipt job; the pool renders it.
	var pdfs []string
	require.Eventually(t, func() bool {
		pdfs, _ = filepath.Glob(filepath.Join(env.receipts, "receipt_*.pdf"))
		return len(pdfs) == 1
	}, 10*time.Second, 100*time.Millisecond)
	info, err := os.Stat(pdfs[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestE2E_CancelRestoresStock(t *testing.T) {
	env := setupContainers(t)
	srv := env.server

	resp := do(t, srv, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Drill", "unit_price": "199.90", "stock_quantity": 4}), env.managerToken)
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
		jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 3}), env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, srv, http.MethodPost, salePath+"/cancel", nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	decodeJSON(t, resp, &sale)
	assert.Equal(t, "cancelled", sale.Status)
	assert.True(t, sale.TotalValue.IsZero())

	resp = do(t, srv, http.MethodGet, "/v1/products/"+itoa(product.ID), nil, env.clerkToken)
	expectStatus(t, resp, http.StatusOK)
	var p struct {
		StockQuantity int `json:"stock_quantity"`
	}
	decodeJSON(t, resp, &p)
	assert.Equal(t, 4, p.StockQuantity)

	// Reserve, release and the opening balance all show up in the ledger.
	resp = do(t, srv, http.MethodGet, "/v1/stock/movements?product_id="+itoa(product.ID), nil, env.managerToken)
	expectStatus(t, resp, http.StatusOK)
	var movements struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, resp, &movements)
	assert.EqualValues(t, 3, movements.Total)
}

func TestE2E_ConcurrentLastUnit(t *testing.T) {
	env := setupContainers(t)
	srv := env.server

	resp := do(t, srv, http.MethodPost, "/v1/products",
		jsonBody(t, map[string]any{"name": "Wrench", "unit_price": "35.00", "stock_quantity": 1}), env.managerToken)
	expectStatus(t, resp, http.StatusCreated)
	var product struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &product)

	saleIDs := make([]uint, 2)
	for i := range saleIDs {
		resp = do(t, srv, http.MethodPost, "/v1/sales", nil, env.clerkToken)
		expectStatus(t, resp, http.StatusCreated)
		var s saleBody
		decodeJSON(t, resp, &s)
		saleIDs[i] = s.ID
	}

	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i, id := range saleIDs {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			r := do(t, srv, http.MethodPost, "/v1/sales/"+itoa(id)+"/items",
				jsonBody(t, map[string]any{"product_id": product.ID, "quantity": 1}), env.clerkToken)
			statuses[i] = r.StatusCode
			r.Body.Close()
		}(i, id)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, statuses)
}

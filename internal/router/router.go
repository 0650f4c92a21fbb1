package router

import (
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/config"
	"github.com/PedroSmaxY/hardware-store/internal/handler"
	"github.com/PedroSmaxY/hardware-store/internal/middleware"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/pricing"
	"github.com/PedroSmaxY/hardware-store/internal/repository"
	"github.com/PedroSmaxY/hardware-store/internal/service"
	"github.com/PedroSmaxY/hardware-store/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"gorm.io/gorm"
)

// Deps are the collaborators the router wires into handlers.
// Rdb and SMTPBreaker are optional.
type Deps struct {
	DB          *gorm.DB
	Rdb         *redis.Client
	SMTPBreaker *gobreaker.CircuitBreaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pct, err := cfg.CustomerDiscount()
	if err != nil {
		return nil, err
	}
	policy, err := pricing.NewPolicy(pct)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	employeeRepo := repository.NewEmployeeRepository(deps.DB)
	productRepo := repository.NewProductRepository(deps.DB)
	movementRepo := repository.NewStockMovementRepository(deps.DB)
	customerRepo := repository.NewCustomerRepository(deps.DB)
	saleRepo := repository.NewSaleRepository(deps.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	var dispatcher *worker.Dispatcher
	if deps.Rdb != nil {
		dispatcher = worker.NewDispatcher(deps.Rdb)
	}

	authSvc := service.NewAuthService(employeeRepo, cfg)
	stockSvc := service.NewStockService(productRepo, movementRepo)
	productSvc := service.NewProductService(productRepo, movementRepo, deps.Rdb, cfg.LowStockThreshold)
	customerSvc := service.NewCustomerService(customerRepo)
	saleSvc := service.NewSaleService(saleRepo, customerRepo, stockSvc, policy, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	employeesH := handler.NewEmployeesHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc, stockSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	salesH := handler.NewSalesHandler(saleSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(deps.DB, deps.Rdb, deps.SMTPBreaker))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check: no auth, no side effects
	r.GET("/v1/price/:id", productsH.PriceCheck)

	// Protected routes. Role checks live in the services too; the route
	// guards only reject early.
	manager := middleware.RequireRole(model.RoleManager)
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/products", productsH.List)
		v1.GET("/products/low-stock", productsH.LowStock)
		v1.GET("/products/report", productsH.StockReport)
		v1.GET("/products/:id", productsH.Get)
		prods := v1.Group("/products", manager)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
			prods.POST("/:id/restock", productsH.Restock)
		}
		v1.GET("/stock/movements", manager, productsH.Movements)

		customers := v1.Group("/customers")
		{
			customers.POST("", customersH.Create)
			customers.GET("", customersH.List)
			customers.GET("/by-national-id/:national_id", customersH.GetByNationalID)
			customers.GET("/:id", customersH.Get)
			customers.PUT("/:id", customersH.Update)
			customers.DELETE("/:id", customersH.Delete)
		}

		v1.POST("/discounts/preview", salesH.PreviewDiscount)

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Open)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
			sales.PUT("/:id/customer", salesH.AttachCustomer)
			sales.POST("/:id/items", salesH.AddItem)
			sales.PATCH("/:id/items/:item_id", salesH.UpdateItem)
			sales.DELETE("/:id/items/:item_id", salesH.RemoveItem)
			sales.POST("/:id/recompute", salesH.Recompute)
			sales.POST("/:id/finalize", salesH.Finalize)
			sales.POST("/:id/cancel", salesH.Cancel)
			sales.DELETE("/:id", manager, salesH.Delete)
		}

		employees := v1.Group("/employees", manager)
		{
			employees.POST("", employeesH.Create)
			employees.GET("", employeesH.List)
			employees.GET("/:id", employeesH.Get)
			employees.PUT("/:id", employeesH.Update)
			employees.DELETE("/:id", employeesH.Deactivate)
			employees.PATCH("/:id/reactivate", employeesH.Reactivate)
		}
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const priceCacheTTL = 4 * time.Hour

func priceCacheKey(id uint) string { return fmt.Sprintf("price:%d", id) }

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uint) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	PriceCheck(ctx context.Context, id uint) (*dto.PriceCheckResponse, error)
	LowStock(ctx context.Context) ([]dto.ProductResponse, error)
	StockReport(ctx context.Context) (*dto.StockReportResponse, error)
}

type productService struct {
	repo              repository.ProductRepository
	movements         repository.StockMovementRepository
	rdb               *redis.Client // nil disables the price cache
	lowStockThreshold int
}

func NewProductService(repo repository.ProductRepository, movements repository.StockMovementRepository, rdb *redis.Client, lowStockThreshold int) ProductService {
	return &productService{repo: repo, movements: movements, rdb: rdb, lowStockThreshold: lowStockThreshold}
}

func (s *productService) Create(ctx context.Context, actor Actor, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := requireManager(actor, "creating products"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name", req.Name, "name must not be empty")
	}
	if !req.UnitPrice.IsPositive() {
		return nil, apierror.Validation("unit_price", req.UnitPrice.String(), "unit price must be greater than zero")
	}
	if req.StockQuantity < 0 {
		return nil, apierror.Validation("stock_quantity", req.StockQuantity, "stock quantity must not be negative")
	}
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, apierror.Duplicate("product", "name", name)
	}

	p := &model.Product{
		Name:          name,
		Description:   req.Description,
		UnitPrice:     req.UnitPrice.Round(2),
		StockQuantity: req.StockQuantity,
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Duplicate("product", "name", name)
			}
			return storageErr("create product", err)
		}
		if p.StockQuantity == 0 {
			return nil
		}
		// Opening balance goes through the ledger like any other stock change.
		return s.movements.CreateTx(tx, &model.StockMovement{
			ProductID:   p.ID,
			Kind:        model.MovementRestock,
			Quantity:    p.StockQuantity,
			StockBefore: 0,
			StockAfter:  p.StockQuantity,
			Reason:      "initial stock",
		})
	})
	if err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id, "get product")
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20)
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productService) Update(ctx context.Context, actor Actor, id uint, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := requireManager(actor, "updating products"); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id, "get product")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name", *req.Name, "name must not be empty")
		}
		if name != p.Name {
			if _, err := s.repo.FindByName(ctx, name); err == nil {
				return nil, apierror.Duplicate("product", "name", name)
			}
		}
		p.Name = name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.UnitPrice != nil {
		if !req.UnitPrice.IsPositive() {
			return nil, apierror.Validation("unit_price", req.UnitPrice.String(), "unit price must be greater than zero")
		}
		p.UnitPrice = req.UnitPrice.Round(2)
	}
	if err := s.repo.UpdateCatalog(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Duplicate("product", "name", p.Name)
		}
		return nil, storageErr("update product", err)
	}
	s.invalidatePrice(ctx, id)

	// Re-read so the response carries the current stock, not the value loaded above.
	return s.Get(ctx, id)
}

func (s *productService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := requireManager(actor, "deleting products"); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return storageErr("delete product", err)
	}
	if !ok {
		return apierror.NotFound("product", id)
	}
	s.invalidatePrice(ctx, id)
	log.Info().Uint("product_id", id).Msg("product deleted")
	return nil
}

// PriceCheck serves name and price from redis when possible. Stock is never cached.
func (s *productService) PriceCheck(ctx context.Context, id uint) (*dto.PriceCheckResponse, error) {
	key := priceCacheKey(id)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var resp dto.PriceCheckResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "product", id, "price check")
	}
	resp := &dto.PriceCheckResponse{ID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice}

	// Populate cache: best effort, ignore errors
	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, key, b, priceCacheTTL).Err()
		}
	}
	return resp, nil
}

func (s *productService) invalidatePrice(ctx context.Context, id uint) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, priceCacheKey(id)).Err(); err != nil {
		log.Warn().Err(err).Uint("product_id", id).Msg("price cache invalidation failed")
	}
}

func (s *productService) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, storageErr("list low stock", err)
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, *productToResponse(&products[i]))
	}
	return resp, nil
}

func (s *productService) StockReport(ctx context.Context) (*dto.StockReportResponse, error) {
	totals, err := s.repo.Totals(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, storageErr("stock report", err)
	}
	return &dto.StockReportResponse{
		ProductCount:      totals.ProductCount,
		UnitsInStock:      totals.UnitsInStock,
		StockValue:        totals.StockValue,
		LowStockCount:     totals.LowStockCount,
		LowStockThreshold: s.lowStockThreshold,
	}, nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

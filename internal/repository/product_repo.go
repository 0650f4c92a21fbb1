package repository

import (
	"context"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockTotals aggregates the inventory for the stock report.
type StockTotals struct {
	ProductCount  int64
	UnitsInStock  int64
	StockValue    decimal.Decimal
	LowStockCount int64
}

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByName(ctx context.Context, name string) (*model.Product, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)
	ListLowStock(ctx context.Context, threshold int) ([]model.Product, error)
	Totals(ctx context.Context, lowStockThreshold int) (*StockTotals, error)
	// UpdateCatalog writes name, description and unit price. Stock is never touched.
	UpdateCatalog(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id uint) (bool, error)

	// Used inside transactions: callers must pass the tx instance
	FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error)
	CreateTx(tx *gorm.DB, p *model.Product) error
	// DecrementStockTx subtracts qty only if at least qty units are on hand.
	// It reports false when no row matched (unknown product or not enough stock).
	DecrementStockTx(tx *gorm.DB, id uint, qty int) (bool, error)
	// IncrementStockTx adds qty; false means the product does not exist.
	IncrementStockTx(tx *gorm.DB, id uint, qty int) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	return &p, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, id).Error
	return &p, err
}

func (r *productRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Name != "" {
		// LOWER/LIKE instead of ILIKE so the query runs on sqlite too
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (r *productRepo) ListLowStock(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("stock_quantity <= ?", threshold).
		Order("stock_quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Totals(ctx context.Context, lowStockThreshold int) (*StockTotals, error) {
	var row struct {
		ProductCount int64
		UnitsInStock int64
	}
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("COUNT(*) AS product_count, COALESCE(SUM(stock_quantity), 0) AS units_in_stock").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	// Stock value is summed in Go so decimal precision is dialect independent.
	var products []model.Product
	if err := r.db.WithContext(ctx).Select("unit_price", "stock_quantity").Find(&products).Error; err != nil {
		return nil, err
	}
	value := decimal.Zero
	for _, p := range products {
		value = value.Add(p.UnitPrice.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}

	var low int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("stock_quantity <= ?", lowStockThreshold).Count(&low).Error; err != nil {
		return nil, err
	}

	return &StockTotals{
		ProductCount:  row.ProductCount,
		UnitsInStock:  row.UnitsInStock,
		StockValue:    value,
		LowStockCount: low,
	}, nil
}

func (r *productRepo) UpdateCatalog(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Model(p).
		Select("name", "description", "unit_price").
		Updates(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uint, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uint, qty int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty))
	return res.RowsAffected == 1, res.Error
}

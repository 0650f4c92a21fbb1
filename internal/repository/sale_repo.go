package repository

import (
	"context"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"

	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uint) (*model.Sale, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.Sale, error)
	// SaveHeaderTx writes status, customer, totals and lifecycle timestamps.
	SaveHeaderTx(tx *gorm.DB, s *model.Sale) error
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// Delete removes a sale and its line items.
	Delete(ctx context.Context, id uint) error

	CreateItemTx(tx *gorm.DB, item *model.SaleLineItem) error
	FindItemTx(tx *gorm.DB, saleID, itemID uint) (*model.SaleLineItem, error)
	// UpdateItemTx writes quantity, discount percent and discount amount.
	UpdateItemTx(tx *gorm.DB, item *model.SaleLineItem) error
	DeleteItemTx(tx *gorm.DB, itemID uint) error
	DeleteItemsTx(tx *gorm.DB, saleID uint) error

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Omit("Items", "Employee", "Customer").Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uint) (*model.Sale, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Sale, error) {
	var s model.Sale
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&s, id).Error
	return &s, err
}

func (r *saleRepo) SaveHeaderTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Model(&model.Sale{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"customer_id":    s.CustomerID,
		"status":         s.Status,
		"total_value":    s.TotalValue,
		"total_discount": s.TotalDiscount,
		"finalized_at":   s.FinalizedAt,
		"cancelled_at":   s.CancelledAt,
	}).Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.EmployeeID != 0 {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.CustomerID != 0 {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.From != "" {
		if from, err := time.Parse("2006-01-02", filter.From); err == nil {
			q = q.Where("created_at >= ?", from)
		}
	}
	if filter.To != "" {
		if to, err := time.Parse("2006-01-02", filter.To); err == nil {
			q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.DeleteItemsTx(tx, id); err != nil {
			return err
		}
		return tx.Delete(&model.Sale{}, id).Error
	})
}

func (r *saleRepo) CreateItemTx(tx *gorm.DB, item *model.SaleLineItem) error {
	return tx.Create(item).Error
}

func (r *saleRepo) FindItemTx(tx *gorm.DB, saleID, itemID uint) (*model.SaleLineItem, error) {
	var item model.SaleLineItem
	err := tx.Where("id = ? AND sale_id = ?", itemID, saleID).First(&item).Error
	return &item, err
}

func (r *saleRepo) UpdateItemTx(tx *gorm.DB, item *model.SaleLineItem) error {
	return tx.Model(&model.SaleLineItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"quantity":     item.Quantity,
		"discount_pct": item.DiscountPct,
		"discount":     item.Discount,
	}).Error
}

func (r *saleRepo) DeleteItemTx(tx *gorm.DB, itemID uint) error {
	return tx.Delete(&model.SaleLineItem{}, itemID).Error
}

func (r *saleRepo) DeleteItemsTx(tx *gorm.DB, saleID uint) error {
	return tx.Where("sale_id = ?", saleID).Delete(&model.SaleLineItem{}).Error
}

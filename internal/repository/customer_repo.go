package repository

import (
	"context"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	FindByIDTx(tx *gorm.DB, id uint) (*model.Customer, error)
	FindByNationalID(ctx context.Context, nationalID string) (*model.Customer, error)
	List(ctx context.Context, filter dto.CustomerFilter) ([]model.Customer, int64, error)
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id uint) (bool, error)
	HasSales(ctx context.Context, id uint) (bool, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *customerRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Customer, error) {
	var c model.Customer
	err := tx.First(&c, id).Error
	return &c, err
}

func (r *customerRepo) FindByNationalID(ctx context.Context, nationalID string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).Where("national_id = ?", nationalID).First(&c).Error
	return &c, err
}

func (r *customerRepo) List(ctx context.Context, filter dto.CustomerFilter) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&customers).Error
	return customers, total, err
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Model(c).Select("name", "phone").Updates(c).Error
}

func (r *customerRepo) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *customerRepo) HasSales(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).Where("customer_id = ?", id).Count(&n).Error
	return n > 0, err
}

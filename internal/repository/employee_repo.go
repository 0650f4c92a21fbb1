package repository

import (
	"context"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"

	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	FindByUsername(ctx context.Context, username string) (*model.Employee, error)
	FindByID(ctx context.Context, id uint) (*model.Employee, error)
	List(ctx context.Context, filter dto.EmployeeFilter) ([]model.Employee, error)
	Update(ctx context.Context, e *model.Employee) error
	SetActive(ctx context.Context, id uint, active bool) (bool, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type employeeRepo struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository { return &employeeRepo{db: db} }

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// FindByUsername only returns active employees.
func (r *employeeRepo) FindByUsername(ctx context.Context, username string) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).
		Where("username = ? AND active = ?", username, true).
		First(&e).Error
	return &e, err
}

func (r *employeeRepo) FindByID(ctx context.Context, id uint) (*model.Employee, error) {
	var e model.Employee
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *employeeRepo) List(ctx context.Context, filter dto.EmployeeFilter) ([]model.Employee, error) {
	var employees []model.Employee
	q := r.db.WithContext(ctx)
	if !filter.All {
		q = q.Where("active = ?", true)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	err := q.Order("name ASC").Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) Update(ctx context.Context, e *model.Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *employeeRepo) SetActive(ctx context.Context, id uint, active bool) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Employee{}).Where("id = ?", id).Update("active", active)
	return res.RowsAffected > 0, res.Error
}

// UsernameTaken includes inactive employees; usernames are never reused.
func (r *employeeRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Employee{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/nationalid"
	"github.com/PedroSmaxY/hardware-store/internal/repository"

	"gorm.io/gorm"
)

type CustomerService interface {
	Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id uint) (*dto.CustomerResponse, error)
	GetByNationalID(ctx context.Context, nationalID string) (*dto.CustomerResponse, error)
	List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error)
	Update(ctx context.Context, id uint, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	Delete(ctx context.Context, id uint) error
}

type customerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) CustomerService {
	return &customerService{repo: repo}
}

func (s *customerService) Create(ctx context.Context, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name", req.Name, "name must not be empty")
	}
	if !nationalid.Valid(req.NationalID) {
		return nil, apierror.Validation("national_id", req.NationalID, "invalid national id")
	}
	nid := nationalid.Normalize(req.NationalID)
	if _, err := s.repo.FindByNationalID(ctx, nid); err == nil {
		return nil, apierror.Duplicate("customer", "national_id", nid)
	}

	c := &model.Customer{Name: name, NationalID: nid, Phone: req.Phone}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Duplicate("customer", "national_id", nid)
		}
		return nil, storageErr("create customer", err)
	}
	return customerToResponse(c), nil
}

func (s *customerService) Get(ctx context.Context, id uint) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "customer", id, "get customer")
	}
	return customerToResponse(c), nil
}

func (s *customerService) GetByNationalID(ctx context.Context, nationalID string) (*dto.CustomerResponse, error) {
	nid := nationalid.Normalize(nationalID)
	if !nationalid.Valid(nid) {
		return nil, apierror.Validation("national_id", nationalID, "invalid national id")
	}
	c, err := s.repo.FindByNationalID(ctx, nid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFoundBy("customer", "national_id", nid)
		}
		return nil, storageErr("get customer", err)
	}
	return customerToResponse(c), nil
}

func (s *customerService) List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 20)
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list customers", err)
	}
	data := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		data = append(data, *customerToResponse(&customers[i]))
	}
	return &dto.CustomerListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *customerService) Update(ctx context.Context, id uint, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "customer", id, "get customer")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name", *req.Name, "name must not be empty")
		}
		c.Name = name
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, storageErr("update customer", err)
	}
	return customerToResponse(c), nil
}

// Delete refuses customers referenced by sales; the sale history keeps its link.
func (s *customerService) Delete(ctx context.Context, id uint) error {
	referenced, err := s.repo.HasSales(ctx, id)
	if err != nil {
		return storageErr("delete customer", err)
	}
	if referenced {
		return customerInUse(id)
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return customerInUse(id)
		}
		return storageErr("delete customer", err)
	}
	if !ok {
		return apierror.NotFound("customer", id)
	}
	return nil
}

func customerInUse(id uint) error {
	return &apierror.Error{
		Kind: apierror.KindInvalidState, Entity: "customer", ID: id,
		Msg: "customer is referenced by existing sales",
	}
}

func customerToResponse(c *model.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:         c.ID,
		Name:       c.Name,
		NationalID: c.NationalID,
		Phone:      c.Phone,
		CreatedAt:  formatTime(c.CreatedAt),
	}
}

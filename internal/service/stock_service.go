package service

import (
	"context"
	"fmt"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockRef ties a stock change to its cause in the movement ledger.
type StockRef struct {
	SaleID *uint
	Reason string
}

// StockService owns product on-hand quantities. Every change is a conditional
// UPDATE on the product row plus an appended StockMovement, in one transaction.
type StockService interface {
	Reserve(ctx context.Context, productID uint, qty int, ref StockRef) (*model.Product, error)
	Release(ctx context.Context, productID uint, qty int, ref StockRef) (*model.Product, error)
	Available(ctx context.Context, productID uint, qty int) (bool, error)
	Restock(ctx context.Context, actor Actor, productID uint, req dto.RestockRequest) (*dto.ProductResponse, error)
	ListMovements(ctx context.Context, actor Actor, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error)

	// Tx variants join the caller's transaction.
	ReserveTx(tx *gorm.DB, productID uint, qty int, ref StockRef) (*model.Product, error)
	ReleaseTx(tx *gorm.DB, productID uint, qty int, ref StockRef) (*model.Product, error)
}

type stockService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewStockService(products repository.ProductRepository, movements repository.StockMovementRepository) StockService {
	return &stockService{products: products, movements: movements}
}

func validateQty(qty int) error {
	if qty <= 0 {
		return apierror.Validation("quantity", qty, "quantity must be greater than zero")
	}
	return nil
}

func (s *stockService) Reserve(ctx context.Context, productID uint, qty int, ref StockRef) (*model.Product, error) {
	var p *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.ReserveTx(tx, productID, qty, ref)
		return err
	})
	return p, err
}

func (s *stockService) Release(ctx context.Context, productID uint, qty int, ref StockRef) (*model.Product, error) {
	var p *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.ReleaseTx(tx, productID, qty, ref)
		return err
	})
	return p, err
}

func (s *stockService) Available(ctx context.Context, productID uint, qty int) (bool, error) {
	if err := validateQty(qty); err != nil {
		return false, err
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return false, lookupErr(err, "product", productID, "check stock")
	}
	return p.StockQuantity >= qty, nil
}

// ReserveTx decrements stock by qty. The decrement only applies when enough
// units are on hand, so concurrent reservations of the last unit resolve to one
// success and one InsufficientStock.
func (s *stockService) ReserveTx(tx *gorm.DB, productID uint, qty int, ref StockRef) (*model.Product, error) {
	if err := validateQty(qty); err != nil {
		return nil, err
	}
	ok, err := s.products.DecrementStockTx(tx, productID, qty)
	if err != nil {
		return nil, storageErr("reserve stock", err)
	}
	if !ok {
		p, err := s.products.FindByIDTx(tx, productID)
		if err != nil {
			return nil, lookupErr(err, "product", productID, "reserve stock")
		}
		log.Debug().
			Uint("product_id", productID).
			Int("requested", qty).
			Int("available", p.StockQuantity).
			Msg("stock reservation rejected")
		return nil, apierror.InsufficientStock(productID, qty, p.StockQuantity)
	}
	return s.record(tx, productID, -qty, model.MovementReserve, ref)
}

func (s *stockService) ReleaseTx(tx *gorm.DB, productID uint, qty int, ref StockRef) (*model.Product, error) {
	if err := validateQty(qty); err != nil {
		return nil, err
	}
	return s.incrementTx(tx, productID, qty, model.MovementRelease, ref)
}

func (s *stockService) incrementTx(tx *gorm.DB, productID uint, qty int, kind string, ref StockRef) (*model.Product, error) {
	ok, err := s.products.IncrementStockTx(tx, productID, qty)
	if err != nil {
		return nil, storageErr("release stock", err)
	}
	if !ok {
		return nil, apierror.NotFound("product", productID)
	}
	return s.record(tx, productID, qty, kind, ref)
}

// record re-reads the product inside tx and appends the movement. delta is signed.
func (s *stockService) record(tx *gorm.DB, productID uint, delta int, kind string, ref StockRef) (*model.Product, error) {
	p, err := s.products.FindByIDTx(tx, productID)
	if err != nil {
		return nil, lookupErr(err, "product", productID, "read stock")
	}
	mov := &model.StockMovement{
		ProductID:   productID,
		Kind:        kind,
		Quantity:    delta,
		StockBefore: p.StockQuantity - delta,
		StockAfter:  p.StockQuantity,
		SaleID:      ref.SaleID,
		Reason:      ref.Reason,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, storageErr("record stock movement", err)
	}
	return p, nil
}

func (s *stockService) Restock(ctx context.Context, actor Actor, productID uint, req dto.RestockRequest) (*dto.ProductResponse, error) {
	if err := requireManager(actor, "restock"); err != nil {
		return nil, err
	}
	if err := validateQty(req.Quantity); err != nil {
		return nil, err
	}
	reason := req.Reason
	if reason == "" {
		reason = fmt.Sprintf("restock by employee #%d", actor.EmployeeID)
	}

	var p *model.Product
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		var err error
		p, err = s.incrementTx(tx, productID, req.Quantity, model.MovementRestock, StockRef{Reason: reason})
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("product_id", productID).Int("quantity", req.Quantity).Int("stock", p.StockQuantity).Msg("product restocked")
	return productToResponse(p), nil
}

func (s *stockService) ListMovements(ctx context.Context, actor Actor, filter dto.StockMovementFilter) (*dto.StockMovementListResponse, error) {
	if err := requireManager(actor, "listing stock movements"); err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 100)
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list stock movements", err)
	}
	data := make([]dto.StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		data = append(data, dto.StockMovementResponse{
			ID:          m.ID,
			ProductID:   m.ProductID,
			Kind:        m.Kind,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			SaleID:      m.SaleID,
			Reason:      m.Reason,
			CreatedAt:   formatTime(m.CreatedAt),
		})
	}
	return &dto.StockMovementListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"
	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/model"
	"github.com/PedroSmaxY/hardware-store/internal/pricing"
	"github.com/PedroSmaxY/hardware-store/internal/repository"
	"github.com/PedroSmaxY/hardware-store/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WarningEmptySale is attached to the response when a sale is finalized without items.
const WarningEmptySale = "sale finalized with no line items"

// SaleService orchestrates the cart aggregate, the stock ledger and the discount policy.
// Every operation runs in a single transaction: a failing step rolls back all of
// its writes, including stock already reserved in the same call.
type SaleService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenSaleRequest) (*dto.SaleResponse, error)
	AttachCustomer(ctx context.Context, saleID, customerID uint) (*dto.SaleResponse, error)
	AddItem(ctx context.Context, saleID uint, req dto.AddItemRequest) (*dto.SaleResponse, error)
	RemoveItem(ctx context.Context, saleID, itemID uint) (*dto.SaleResponse, error)
	UpdateItem(ctx context.Context, saleID, itemID uint, req dto.UpdateItemRequest) (*dto.SaleResponse, error)
	UpdateItemQuantity(ctx context.Context, saleID, itemID uint, quantity int) (*dto.SaleResponse, error)
	ApplyDiscount(ctx context.Context, saleID, itemID uint, percent decimal.Decimal) (*dto.SaleResponse, error)
	RecomputeTotals(ctx context.Context, saleID uint) (*dto.SaleResponse, error)
	Finalize(ctx context.Context, saleID uint, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error)
	Cancel(ctx context.Context, saleID uint) (*dto.SaleResponse, error)
	Get(ctx context.Context, saleID uint) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
	Delete(ctx context.Context, actor Actor, saleID uint) error
	PreviewDiscount(req dto.DiscountPreviewRequest) (*dto.DiscountPreviewResponse, error)
}

type saleService struct {
	sales      repository.SaleRepository
	customers  repository.CustomerRepository
	stock      StockService
	policy     pricing.Policy
	dispatcher *worker.Dispatcher // nil disables receipts
	locks      *saleLocks
}

func NewSaleService(
	sales repository.SaleRepository,
	customers repository.CustomerRepository,
	stock StockService,
	policy pricing.Policy,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		sales:      sales,
		customers:  customers,
		stock:      stock,
		policy:     policy,
		dispatcher: dispatcher,
		locks:      newSaleLocks(),
	}
}

// mutate runs fn under the sale's lock inside one transaction and returns the
// sale as committed. The lock is taken before the transaction begins.
func (s *saleService) mutate(ctx context.Context, saleID uint, fn func(tx *gorm.DB) (*model.Sale, error)) (*model.Sale, error) {
	unlock := s.locks.lock(saleID)
	defer unlock()

	var sale *model.Sale
	err := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		var err error
		sale, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) loadTx(tx *gorm.DB, saleID uint) (*model.Sale, error) {
	sale, err := s.sales.FindByIDTx(tx, saleID)
	if err != nil {
		return nil, lookupErr(err, "sale", saleID, "load sale")
	}
	return sale, nil
}

func (s *saleService) loadOpenTx(tx *gorm.DB, saleID uint, op string) (*model.Sale, error) {
	sale, err := s.loadTx(tx, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.IsOpen() {
		return nil, apierror.InvalidState("sale", saleID, sale.Status, op)
	}
	return sale, nil
}

// recomputeTx derives the totals from the persisted line items and stores them.
func (s *saleService) recomputeTx(tx *gorm.DB, saleID uint) (*model.Sale, error) {
	sale, err := s.loadTx(tx, saleID)
	if err != nil {
		return nil, err
	}
	sale.TotalValue, sale.TotalDiscount = computeTotals(sale.Items)
	if err := s.sales.SaveHeaderTx(tx, sale); err != nil {
		return nil, storageErr("save sale totals", err)
	}
	return sale, nil
}

// computeTotals returns Σ(qty × unit price − discount) and Σ discount.
func computeTotals(items []model.SaleLineItem) (decimal.Decimal, decimal.Decimal) {
	value := decimal.Zero
	discount := decimal.Zero
	for i := range items {
		value = value.Add(items[i].Subtotal())
		discount = discount.Add(items[i].Discount)
	}
	return value.Round(2), discount.Round(2)
}

func saleRef(saleID uint, action string) StockRef {
	id := saleID
	return StockRef{SaleID: &id, Reason: fmt.Sprintf("sale #%d: %s", saleID, action)}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *saleService) Open(ctx context.Context, actor Actor, req dto.OpenSaleRequest) (*dto.SaleResponse, error) {
	if actor.EmployeeID == 0 {
		return nil, apierror.Validation("employee_id", 0, "a sale requires an employee")
	}
	sale := &model.Sale{
		EmployeeID:    actor.EmployeeID,
		CustomerID:    req.CustomerID,
		Status:        model.SaleOpen,
		TotalValue:    decimal.Zero,
		TotalDiscount: decimal.Zero,
	}
	err := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if req.CustomerID != nil {
			if _, err := s.customers.FindByIDTx(tx, *req.CustomerID); err != nil {
				return lookupErr(err, "customer", *req.CustomerID, "open sale")
			}
		}
		if err := s.sales.CreateTx(tx, sale); err != nil {
			return storageErr("open sale", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("sale_id", sale.ID).Uint("employee_id", sale.EmployeeID).Msg("sale opened")
	return saleToResponse(sale), nil
}

// ── AttachCustomer ───────────────────────────────────────────────────────────
// Affects lines added afterwards only; existing lines keep their discount.

func (s *saleService) AttachCustomer(ctx context.Context, saleID, customerID uint) (*dto.SaleResponse, error) {
	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		sale, err := s.loadOpenTx(tx, saleID, "attach customer to")
		if err != nil {
			return nil, err
		}
		if _, err := s.customers.FindByIDTx(tx, customerID); err != nil {
			return nil, lookupErr(err, "customer", customerID, "attach customer")
		}
		sale.CustomerID = &customerID
		if err := s.sales.SaveHeaderTx(tx, sale); err != nil {
			return nil, storageErr("attach customer", err)
		}
		return sale, nil
	})
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ── AddItem ──────────────────────────────────────────────────────────────────
//   1. sale must be open, quantity > 0, explicit percent within 0..10
//   2. reserve stock (conditional decrement + movement)
//   3. snapshot name and price, compute discount, insert the line
//   4. recompute totals

func (s *saleService) AddItem(ctx context.Context, saleID uint, req dto.AddItemRequest) (*dto.SaleResponse, error) {
	if err := validateQty(req.Quantity); err != nil {
		return nil, err
	}
	if req.DiscountPercent != nil {
		if err := pricing.ValidatePercent(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}

	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		sale, err := s.loadOpenTx(tx, saleID, "add item to")
		if err != nil {
			return nil, err
		}
		product, err := s.stock.ReserveTx(tx, req.ProductID, req.Quantity, saleRef(saleID, "item added"))
		if err != nil {
			return nil, err
		}
		amount, pct, err := s.policy.Compute(product.UnitPrice, req.Quantity, sale.CustomerID != nil, req.DiscountPercent)
		if err != nil {
			return nil, err
		}
		item := &model.SaleLineItem{
			SaleID:      saleID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			UnitPrice:   product.UnitPrice,
			DiscountPct: pct,
			Discount:    amount,
		}
		if err := s.sales.CreateItemTx(tx, item); err != nil {
			return nil, storageErr("add line item", err)
		}
		return s.recomputeTx(tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ── RemoveItem ───────────────────────────────────────────────────────────────

func (s *saleService) RemoveItem(ctx context.Context, saleID, itemID uint) (*dto.SaleResponse, error) {
	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		if _, err := s.loadOpenTx(tx, saleID, "remove item from"); err != nil {
			return nil, err
		}
		item, err := s.sales.FindItemTx(tx, saleID, itemID)
		if err != nil {
			return nil, lookupErr(err, "sale line item", itemID, "remove line item")
		}
		if err := s.releaseLine(tx, saleID, item, "item removed"); err != nil {
			return nil, err
		}
		if err := s.sales.DeleteItemTx(tx, item.ID); err != nil {
			return nil, storageErr("remove line item", err)
		}
		return s.recomputeTx(tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// releaseLine returns a line's quantity to stock.
func (s *saleService) releaseLine(tx *gorm.DB, saleID uint, item *model.SaleLineItem, action string) error {
	return s.releaseUnits(tx, saleID, item.ProductID, item.Quantity, action)
}

// releaseUnits returns qty units of a line's product. A product deleted since the
// line was added has nowhere to return to; the line change still goes through.
func (s *saleService) releaseUnits(tx *gorm.DB, saleID, productID uint, qty int, action string) error {
	_, err := s.stock.ReleaseTx(tx, productID, qty, saleRef(saleID, action))
	if err == nil {
		return nil
	}
	if errors.Is(err, apierror.ErrNotFound) {
		log.Warn().
			Uint("sale_id", saleID).
			Uint("product_id", productID).
			Int("quantity", qty).
			Msg("released line references a deleted product; stock not returned")
		return nil
	}
	return err
}

// ── UpdateItem ───────────────────────────────────────────────────────────────
// Changes a line's quantity and/or its discount percent. A quantity increase
// reserves only the difference, a decrease releases it. The discount is
// recomputed at the new percent when given, otherwise at the line's stored one,
// so the cap applies to the new line value.

func (s *saleService) UpdateItemQuantity(ctx context.Context, saleID, itemID uint, quantity int) (*dto.SaleResponse, error) {
	return s.UpdateItem(ctx, saleID, itemID, dto.UpdateItemRequest{Quantity: &quantity})
}

func (s *saleService) ApplyDiscount(ctx context.Context, saleID, itemID uint, percent decimal.Decimal) (*dto.SaleResponse, error) {
	return s.UpdateItem(ctx, saleID, itemID, dto.UpdateItemRequest{DiscountPercent: &percent})
}

func (s *saleService) UpdateItem(ctx context.Context, saleID, itemID uint, req dto.UpdateItemRequest) (*dto.SaleResponse, error) {
	if req.Quantity == nil && req.DiscountPercent == nil {
		return nil, apierror.Validation("quantity", nil, "quantity or discount_percent is required")
	}
	if req.Quantity != nil {
		if err := validateQty(*req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.DiscountPercent != nil {
		if err := pricing.ValidatePercent(*req.DiscountPercent); err != nil {
			return nil, err
		}
	}

	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		if _, err := s.loadOpenTx(tx, saleID, "update item of"); err != nil {
			return nil, err
		}
		item, err := s.sales.FindItemTx(tx, saleID, itemID)
		if err != nil {
			return nil, lookupErr(err, "sale line item", itemID, "update line item")
		}

		if req.Quantity != nil {
			delta := *req.Quantity - item.Quantity
			switch {
			case delta > 0:
				if _, err := s.stock.ReserveTx(tx, item.ProductID, delta, saleRef(saleID, "quantity increased")); err != nil {
					return nil, err
				}
			case delta < 0:
				if err := s.releaseUnits(tx, saleID, item.ProductID, -delta, "quantity decreased"); err != nil {
					return nil, err
				}
			}
			item.Quantity = *req.Quantity
		}

		pct := item.DiscountPct
		if req.DiscountPercent != nil {
			pct = *req.DiscountPercent
		}
		// The percent is explicit here; the customer default only applies at add time.
		amount, applied, err := s.policy.Compute(item.UnitPrice, item.Quantity, false, &pct)
		if err != nil {
			return nil, err
		}
		item.DiscountPct = applied
		item.Discount = amount

		if err := s.sales.UpdateItemTx(tx, item); err != nil {
			return nil, storageErr("update line item", err)
		}
		return s.recomputeTx(tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ── RecomputeTotals ──────────────────────────────────────────────────────────

func (s *saleService) RecomputeTotals(ctx context.Context, saleID uint) (*dto.SaleResponse, error) {
	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		sale, err := s.loadTx(tx, saleID)
		if err != nil {
			return nil, err
		}
		if !sale.IsOpen() {
			// Closed sales are immutable; their stored totals are final.
			return sale, nil
		}
		return s.recomputeTx(tx, saleID)
	})
	if err != nil {
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ── Finalize ─────────────────────────────────────────────────────────────────

func (s *saleService) Finalize(ctx context.Context, saleID uint, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error) {
	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		if _, err := s.loadOpenTx(tx, saleID, "finalize"); err != nil {
			return nil, err
		}
		sale, err := s.recomputeTx(tx, saleID)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		sale.Status = model.SaleFinalized
		sale.FinalizedAt = &now
		if err := s.sales.SaveHeaderTx(tx, sale); err != nil {
			return nil, storageErr("finalize sale", err)
		}
		return sale, nil
	})
	if err != nil {
		return nil, err
	}

	resp := saleToResponse(sale)
	if len(sale.Items) == 0 {
		resp.Warnings = append(resp.Warnings, WarningEmptySale)
		log.Warn().Uint("sale_id", sale.ID).Msg(WarningEmptySale)
	}
	log.Info().
		Uint("sale_id", sale.ID).
		Str("total", sale.TotalValue.StringFixed(2)).
		Int("items", len(sale.Items)).
		Msg("sale finalized")

	// Receipt job (best-effort: the sale is already committed)
	if s.dispatcher != nil {
		payload := worker.ReceiptJobPayload{SaleID: sale.ID, Email: req.ReceiptEmail}
		if err := s.dispatcher.EnqueueReceipt(ctx, payload); err != nil {
			log.Error().Err(err).Uint("sale_id", sale.ID).Msg("failed to enqueue receipt job")
		}
	}
	return resp, nil
}

// ── Cancel ───────────────────────────────────────────────────────────────────
// Cancelling twice is a no-op: stock is released exactly once because the
// status is checked under the sale lock inside the transaction.

func (s *saleService) Cancel(ctx context.Context, saleID uint) (*dto.SaleResponse, error) {
	released := 0
	sale, err := s.mutate(ctx, saleID, func(tx *gorm.DB) (*model.Sale, error) {
		sale, err := s.loadTx(tx, saleID)
		if err != nil {
			return nil, err
		}
		switch sale.Status {
		case model.SaleCancelled:
			return sale, nil
		case model.SaleFinalized:
			return nil, apierror.InvalidState("sale", saleID, sale.Status, "cancel")
		}

		for i := range sale.Items {
			if err := s.releaseLine(tx, saleID, &sale.Items[i], "sale cancelled"); err != nil {
				return nil, err
			}
			released++
		}
		if err := s.sales.DeleteItemsTx(tx, saleID); err != nil {
			return nil, storageErr("cancel sale", err)
		}

		now := time.Now()
		sale.Items = nil
		sale.Status = model.SaleCancelled
		sale.CancelledAt = &now
		sale.TotalValue = decimal.Zero
		sale.TotalDiscount = decimal.Zero
		if err := s.sales.SaveHeaderTx(tx, sale); err != nil {
			return nil, storageErr("cancel sale", err)
		}
		return sale, nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Uint("sale_id", saleID).Int("lines_released", released).Msg("sale cancelled")
	return saleToResponse(sale), nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *saleService) Get(ctx context.Context, saleID uint) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, lookupErr(err, "sale", saleID, "get sale")
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit, 50)
	for field, value := range map[string]string{"from": filter.From, "to": filter.To} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return nil, apierror.Validation(field, value, field+" must be a YYYY-MM-DD date")
		}
	}
	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, storageErr("list sales", err)
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Delete ───────────────────────────────────────────────────────────────────
// Only cancelled sales can be removed; finalized sales are the store's record.

func (s *saleService) Delete(ctx context.Context, actor Actor, saleID uint) error {
	if err := requireManager(actor, "deleting sales"); err != nil {
		return err
	}
	unlock := s.locks.lock(saleID)
	defer unlock()

	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return lookupErr(err, "sale", saleID, "delete sale")
	}
	if sale.Status != model.SaleCancelled {
		return apierror.InvalidState("sale", saleID, sale.Status, "delete")
	}
	if err := s.sales.Delete(ctx, saleID); err != nil {
		return storageErr("delete sale", err)
	}
	log.Info().Uint("sale_id", saleID).Uint("employee_id", actor.EmployeeID).Msg("sale deleted")
	return nil
}

// ── PreviewDiscount ──────────────────────────────────────────────────────────

func (s *saleService) PreviewDiscount(req dto.DiscountPreviewRequest) (*dto.DiscountPreviewResponse, error) {
	if !req.UnitPrice.IsPositive() {
		return nil, apierror.Validation("unit_price", req.UnitPrice.String(), "unit price must be greater than zero")
	}
	amount, pct, err := s.policy.Compute(req.UnitPrice, req.Quantity, req.CustomerPresent, req.DiscountPercent)
	if err != nil {
		return nil, err
	}
	gross := req.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity)))
	return &dto.DiscountPreviewResponse{
		Gross:              gross,
		DiscountPercent:    pct,
		Discount:           amount,
		Subtotal:           gross.Sub(amount),
		MaxDiscountPercent: pricing.MaxPercent,
	}, nil
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleLineItemResponse, 0, len(s.Items))
	for i := range s.Items {
		item := &s.Items[i]
		items = append(items, dto.SaleLineItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPct,
			Discount:        item.Discount,
			Subtotal:        item.Subtotal(),
		})
	}
	return &dto.SaleResponse{
		ID:            s.ID,
		EmployeeID:    s.EmployeeID,
		CustomerID:    s.CustomerID,
		Status:        s.Status,
		Items:         items,
		TotalValue:    s.TotalValue,
		TotalDiscount: s.TotalDiscount,
		CreatedAt:     formatTime(s.CreatedAt),
		FinalizedAt:   formatTimePtr(s.FinalizedAt),
		CancelledAt:   formatTimePtr(s.CancelledAt),
	}
}

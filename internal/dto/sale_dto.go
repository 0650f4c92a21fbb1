package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSaleRequest struct {
	CustomerID *uint `json:"customer_id"`
}

type AttachCustomerRequest struct {
	CustomerID uint `json:"customer_id" validate:"required"`
}

// AddItemRequest adds a product line to an open sale. DiscountPercent is optional;
// when omitted the customer default applies (if a customer is attached).
type AddItemRequest struct {
	ProductID       uint             `json:"product_id"       validate:"required"`
	Quantity        int              `json:"quantity"         validate:"required,min=1"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

// UpdateItemRequest changes an existing line. At least one field must be set.
type UpdateItemRequest struct {
	Quantity        *int             `json:"quantity"         validate:"omitempty,min=1"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

type FinalizeSaleRequest struct {
	// ReceiptEmail: optional, the receipt worker mails the PDF when present.
	ReceiptEmail *string `json:"receipt_email" validate:"omitempty,email"`
}

type DiscountPreviewRequest struct {
	UnitPrice       decimal.Decimal  `json:"unit_price"       validate:"required,gt=0"`
	Quantity        int              `json:"quantity"         validate:"required,min=1"`
	CustomerPresent bool             `json:"customer_present"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	EmployeeID uint   `form:"employee_id"`
	CustomerID uint   `form:"customer_id"`
	Status     string `form:"status" validate:"omitempty,oneof=open finalized cancelled"`
	From       string `form:"from"` // YYYY-MM-DD, inclusive
	To         string `form:"to"`   // YYYY-MM-DD, inclusive
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleLineItemResponse struct {
	ID              uint            `json:"id"`
	ProductID       uint            `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Discount        decimal.Decimal `json:"discount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID            uint                   `json:"id"`
	EmployeeID    uint                   `json:"employee_id"`
	CustomerID    *uint                  `json:"customer_id"`
	Status        string                 `json:"status"`
	Items         []SaleLineItemResponse `json:"items"`
	TotalValue    decimal.Decimal        `json:"total_value"`
	TotalDiscount decimal.Decimal        `json:"total_discount"`
	CreatedAt     string                 `json:"created_at"`
	FinalizedAt   *string                `json:"finalized_at"`
	CancelledAt   *string                `json:"cancelled_at"`
	Warnings      []string               `json:"warnings,omitempty"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type DiscountPreviewResponse struct {
	Gross              decimal.Decimal `json:"gross"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	Discount           decimal.Decimal `json:"discount"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	MaxDiscountPercent decimal.Decimal `json:"max_discount_percent"`
}

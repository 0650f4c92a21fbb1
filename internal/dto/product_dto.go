package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name          string          `json:"name"           validate:"required,min=1,max=120"`
	Description   *string         `json:"description"    validate:"omitempty,max=500"`
	UnitPrice     decimal.Decimal `json:"unit_price"     validate:"required,gt=0"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
}

// UpdateProductRequest changes catalog fields only. Stock moves through restock and sales.
type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=1,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

type RestockRequest struct {
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Reason   string `json:"reason"   validate:"max=200"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Name  string `form:"name"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type StockMovementFilter struct {
	ProductID uint   `form:"product_id"`
	SaleID    uint   `form:"sale_id"`
	Kind      string `form:"kind" validate:"omitempty,oneof=reserve release restock"`
	Page      int    `form:"page,default=1"    validate:"min=1"`
	Limit     int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID            uint            `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

type ProductListResponse struct {
	Data       []ProductResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// PriceCheckResponse is returned by the public price check endpoint (no auth required).
// Stock is left out on purpose: it changes on every sale and must not be served from cache.
type PriceCheckResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type StockReportResponse struct {
	ProductCount      int64           `json:"product_count"`
	UnitsInStock      int64           `json:"units_in_stock"`
	StockValue        decimal.Decimal `json:"stock_value"`
	LowStockCount     int64           `json:"low_stock_count"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

type StockMovementResponse struct {
	ID          uint   `json:"id"`
	ProductID   uint   `json:"product_id"`
	Kind        string `json:"kind"`
	Quantity    int    `json:"quantity"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	SaleID      *uint  `json:"sale_id"`
	Reason      string `json:"reason"`
	CreatedAt   string `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

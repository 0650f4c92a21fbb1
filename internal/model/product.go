package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. StockQuantity is owned by the stock ledger:
// catalog updates never write it.
type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"uniqueIndex;size:120;not null"`
	Description   *string
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `gorm:"not null;default:0;check:chk_products_stock_non_negative,stock_quantity >= 0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

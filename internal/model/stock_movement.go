package model

import "time"

// Stock movement kinds.
const (
	MovementReserve = "reserve"
	MovementRelease = "release"
	MovementRestock = "restock"
)

// StockMovement records every change to a product's on-hand quantity.
// Rows are append-only.
type StockMovement struct {
	ID          uint   `gorm:"primaryKey"`
	ProductID   uint   `gorm:"not null;index"`
	Kind        string `gorm:"type:varchar(20);not null"`
	Quantity    int    `gorm:"not null"` // positive = in, negative = out
	StockBefore int    `gorm:"not null"`
	StockAfter  int    `gorm:"not null"`
	SaleID      *uint  `gorm:"index"`
	Reason      string
	CreatedAt   time.Time
}

// TableName keeps the ledger table name explicit.
func (StockMovement) TableName() string { return "stock_movements" }

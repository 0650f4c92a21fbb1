package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale statuses. open → finalized | cancelled; only open sales accept line mutations.
const (
	SaleOpen      = "open"
	SaleFinalized = "finalized"
	SaleCancelled = "cancelled"
)

// Sale is the cart aggregate. TotalValue and TotalDiscount are always derived
// from Items and never set independently.
type Sale struct {
	ID            uint            `gorm:"primaryKey"`
	EmployeeID    uint            `gorm:"not null;index"`
	CustomerID    *uint           `gorm:"index"`
	Status        string          `gorm:"type:varchar(20);not null;default:'open';index"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"index"`
	UpdatedAt     time.Time
	FinalizedAt   *time.Time
	CancelledAt   *time.Time

	Items    []SaleLineItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Employee *Employee      `gorm:"foreignKey:EmployeeID"`
	Customer *Customer      `gorm:"foreignKey:CustomerID"`
}

func (s *Sale) IsOpen() bool { return s.Status == SaleOpen }

// SaleLineItem snapshots the product name and unit price at the time it was added.
// ProductID is a weak reference: the line survives product deletion.
type SaleLineItem struct {
	ID          uint            `gorm:"primaryKey"`
	SaleID      uint            `gorm:"not null;index"`
	ProductID   uint            `gorm:"not null;index"`
	ProductName string          `gorm:"size:120;not null"`
	Quantity    int             `gorm:"not null;check:chk_sale_line_items_quantity_positive,quantity > 0"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPct decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt   time.Time
}

// Gross is quantity × unit price before discount.
func (li *SaleLineItem) Gross() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Subtotal is the line value net of its discount.
func (li *SaleLineItem) Subtotal() decimal.Decimal {
	return li.Gross().Sub(li.Discount)
}

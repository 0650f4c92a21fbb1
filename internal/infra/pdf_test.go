package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PedroSmaxY/hardware-store/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSale() *model.Sale {
	now := time.Now()
	customer := uint(3)
	return &model.Sale{
		ID:            42,
		EmployeeID:    1,
		CustomerID:    &customer,
		Status:        model.SaleFinalized,
		TotalValue:    decimal.RequireFromString("49.00"),
		TotalDiscount: decimal.RequireFromString("1.00"),
		CreatedAt:     now,
		FinalizedAt:   &now,
		Items: []model.SaleLineItem{
			{ID: 1, ProductName: "Hammer", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00"),
				DiscountPct: decimal.Zero, Discount: decimal.Zero},
			{ID: 2, ProductName: "Hammer with a very long descriptive name", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00"),
				DiscountPct: decimal.NewFromInt(5), Discount: decimal.RequireFromString("1.00")},
		},
	}
}

func TestGenerateReceiptPDF(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := GenerateReceiptPDF(buildSale(), "Hardware Store", dir)
	require.NoError(t, err)
	assert.Equal(t, "receipt_42.pdf", filepath.Base(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(100), "PDF should have content")
}

func TestGenerateReceiptPDF_EmptySale(t *testing.T) {
	sale := buildSale()
	sale.Items = nil
	sale.CustomerID = nil
	sale.TotalValue = decimal.Zero
	sale.TotalDiscount = decimal.Zero

	path, err := GenerateReceiptPDF(sale, "Hardware Store", t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

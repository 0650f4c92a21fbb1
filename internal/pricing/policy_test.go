package pricing

import (
	"errors"
	"testing"

	"github.com/PedroSmaxY/hardware-store/internal/apierror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pct(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestCompute_CustomerDefault(t *testing.T) {
	amount, applied, err := Default().Compute(d("10.00"), 2, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "1.00", amount.StringFixed(2))
	assert.True(t, applied.Equal(d("5")))
}

func TestCompute_NoCustomerNoDiscount(t *testing.T) {
	amount, applied, err := Default().Compute(d("15.00"), 2, false, nil)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
	assert.True(t, applied.IsZero())
}

func TestCompute_ExplicitZeroBeatsCustomerDefault(t *testing.T) {
	amount, applied, err := Default().Compute(d("10.00"), 1, true, pct("0"))
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
	assert.True(t, applied.IsZero())
}

func TestCompute_ExplicitPercentDoesNotStack(t *testing.T) {
	amount, _, err := Default().Compute(d("100.00"), 1, true, pct("10"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", amount.StringFixed(2))
}

func TestCompute_RejectsOutOfRange(t *testing.T) {
	for _, p := range []string{"15", "10.01", "-1"} {
		_, _, err := Default().Compute(d("10.00"), 1, false, pct(p))
		require.Error(t, err, p)
		assert.True(t, errors.Is(err, apierror.ErrInvalidDiscount), p)
	}
}

func TestCompute_RejectsNonPositiveQuantity(t *testing.T) {
	_, _, err := Default().Compute(d("10.00"), 0, false, nil)
	assert.True(t, errors.Is(err, apierror.ErrValidation))
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	// 0.90 × 5% = 0.045 → 0.05
	amount, _, err := Default().Compute(d("0.90"), 1, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.05", amount.StringFixed(2))
}

func TestCompute_ClampsRoundedAmountToCap(t *testing.T) {
	// 0.05 × 10% = 0.005 would round to 0.01, above the 0.005 cap.
	amount, _, err := Default().Compute(d("0.05"), 1, false, pct("10"))
	require.NoError(t, err)
	assert.True(t, amount.LessThanOrEqual(d("0.005")))
	assert.Equal(t, "0.00", amount.StringFixed(2))
}

func TestCompute_NeverNegativeNeverAboveCap(t *testing.T) {
	prices := []string{"0.01", "0.99", "1.05", "19.99", "25.00", "1234.56"}
	for _, price := range prices {
		for qty := 1; qty <= 7; qty++ {
			for _, p := range []*decimal.Decimal{nil, pct("0"), pct("3.5"), pct("10")} {
				amount, _, err := Default().Compute(d(price), qty, true, p)
				require.NoError(t, err)
				gross := d(price).Mul(decimal.NewFromInt(int64(qty)))
				assert.False(t, amount.IsNegative())
				assert.True(t, amount.LessThanOrEqual(gross.Mul(d("0.10"))), "%s x %d", price, qty)
				assert.True(t, amount.Equal(amount.Round(2)))
			}
		}
	}
}

func TestNewPolicy_RejectsDefaultAboveCap(t *testing.T) {
	_, err := NewPolicy(d("12"))
	assert.True(t, errors.Is(err, apierror.ErrInvalidDiscount))

	p, err := NewPolicy(d("7.5"))
	require.NoError(t, err)
	amount, _, err := p.Compute(d("10.00"), 1, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.75", amount.StringFixed(2))
}

// Percents are stored with two decimals; anything finer would not read back as applied.
func TestValidatePercent_AtMostTwoDecimals(t *testing.T) {
	for _, p := range []string{"9.999", "0.001", "5.125"} {
		err := ValidatePercent(d(p))
		assert.True(t, errors.Is(err, apierror.ErrInvalidDiscount), p)
	}
	for _, p := range []string{"9.99", "10.00", "0.5", "0"} {
		assert.NoError(t, ValidatePercent(d(p)), p)
	}
}

// Package pricing computes per-line discounts for the sale aggregate.
//
// A line gets either an explicit percent chosen at the counter or, when omitted,
// the default customer percent if a customer is attached to the sale. The two
// never stack, and no line is ever discounted above MaxPercent of its value.
package pricing

import (
	"github.com/PedroSmaxY/hardware-store/internal/apierror"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// MaxPercent is the absolute cap on any line discount.
	MaxPercent = decimal.NewFromInt(10)

	// DefaultCustomerPercent applies to lines of sales with an attached customer.
	DefaultCustomerPercent = decimal.NewFromInt(5)
)

// Policy holds the configurable part of the discount rules.
type Policy struct {
	CustomerPercent decimal.Decimal
}

// NewPolicy validates the configured customer percent against the cap.
func NewPolicy(customerPercent decimal.Decimal) (Policy, error) {
	if err := ValidatePercent(customerPercent); err != nil {
		return Policy{}, err
	}
	return Policy{CustomerPercent: customerPercent}, nil
}

// Default returns the policy with the 5% customer discount.
func Default() Policy {
	return Policy{CustomerPercent: DefaultCustomerPercent}
}

// ValidatePercent enforces 0 ≤ p ≤ MaxPercent with at most two decimal places,
// the precision the percent is stored with.
func ValidatePercent(p decimal.Decimal) error {
	if !p.Equal(p.Round(2)) {
		return apierror.InvalidDiscount(p.String(), "discount percent allows at most 2 decimal places")
	}
	if p.IsNegative() {
		return apierror.InvalidDiscount(p.String(), "discount percent must not be negative")
	}
	if p.GreaterThan(MaxPercent) {
		return apierror.InvalidDiscount(p.String(), "discount percent must not exceed "+MaxPercent.String()+"%")
	}
	return nil
}

// Percent resolves which percent applies to a line. An explicit value, including
// zero, always wins over the customer default.
func (p Policy) Percent(customerPresent bool, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if explicit != nil {
		if err := ValidatePercent(*explicit); err != nil {
			return decimal.Zero, err
		}
		return *explicit, nil
	}
	if customerPresent {
		return p.CustomerPercent, nil
	}
	return decimal.Zero, nil
}

// Compute returns the discount amount and the percent applied for a line of
// quantity units at unitPrice. The amount is rounded half-up to cents and then
// clamped so it never exceeds MaxPercent of the line value.
func (p Policy) Compute(unitPrice decimal.Decimal, quantity int, customerPresent bool, explicit *decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, decimal.Zero, apierror.Validation("quantity", quantity, "quantity must be greater than zero")
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, decimal.Zero, apierror.Validation("unit_price", unitPrice.String(), "unit price must not be negative")
	}
	pct, err := p.Percent(customerPresent, explicit)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	amount := gross.Mul(pct).Div(hundred).Round(2)

	limit := MaxAmount(gross)
	if amount.GreaterThan(limit) {
		amount = limit
	}
	return amount, pct, nil
}

// MaxAmount is the largest discount allowed on a line of the given gross value,
// truncated to cents.
func MaxAmount(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(MaxPercent).Div(hundred).Truncate(2)
}

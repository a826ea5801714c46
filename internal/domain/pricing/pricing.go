// Package pricing computes the monetary totals of a cart.
//
// Every totals figure shown anywhere in the application comes from
// ComputeTotals. Unit prices are rounded to cents first, tax is derived from
// the rounded unit price and scaled by quantity, and the discount is taken
// from the tax-inclusive total. All rounding is half away from zero at two
// decimal places.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Totals is the derived money summary of a cart.
type Totals struct {
	Subtotal            decimal.Decimal
	Tax                 decimal.Decimal
	TotalBeforeDiscount decimal.Decimal
	DiscountAmount      decimal.Decimal
	Total               decimal.Decimal
	VATRate             decimal.Decimal
	// DefaultTaxRate is set when the configured rate was unusable and
	// DefaultRate was applied instead.
	DefaultTaxRate bool
}

// Round rounds v to currency precision.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// FormatMoney renders v with two decimals. Values carrying more precision,
// such as an overridden unit price of 75.555, are printed in full.
func FormatMoney(v decimal.Decimal) string {
	if !v.Equal(Round(v)) {
		return v.String()
	}
	return v.StringFixed(2)
}

// ComputeTotals returns the totals for lines at the given tax rate and
// discount, both expressed as percentages. The discount is clamped to
// [0, 100]; a negative tax rate is treated as missing and DefaultRate is used.
func ComputeTotals(lines []cart.LineItem, taxRatePercent, discountPercent decimal.Decimal) Totals {
	defaulted := false
	if taxRatePercent.IsNegative() {
		taxRatePercent = DefaultRate
		defaulted = true
	}
	discountPercent = cart.ClampPercentage(discountPercent)

	subtotal, tax := zero, zero
	for _, l := range lines {
		unit := Round(l.UnitPrice)
		qty := decimal.NewFromInt(int64(l.Quantity))

		subtotal = subtotal.Add(Round(unit.Mul(qty)))
		tax = tax.Add(Round(unit.Mul(taxRatePercent).Div(hundred).Mul(qty)))
	}
	subtotal = Round(subtotal)
	tax = Round(tax)

	beforeDiscount := Round(subtotal.Add(tax))
	discount := Round(beforeDiscount.Mul(discountPercent).Div(hundred))

	return Totals{
		Subtotal:            subtotal,
		Tax:                 tax,
		TotalBeforeDiscount: beforeDiscount,
		DiscountAmount:      discount,
		Total:               Round(beforeDiscount.Sub(discount)),
		VATRate:             taxRatePercent,
		DefaultTaxRate:      defaulted,
	}
}

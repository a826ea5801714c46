package pricing

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
)

// DefaultRate is the VAT percentage applied when the workshop settings carry
// no usable rate.
var DefaultRate = decimal.NewFromInt(20)

// ErrMissingTaxRate reports that the configured tax rate was absent or
// unusable and DefaultRate was applied.
var ErrMissingTaxRate = errors.New("tax rate not configured")

// ParseTaxRate parses a configured VAT percentage such as "20", "5.5" or
// "19,6". It returns DefaultRate together with an error wrapping
// ErrMissingTaxRate when raw is empty, unparsable or negative.
func ParseTaxRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return DefaultRate, ErrMissingTaxRate
	}

	rate, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return DefaultRate, errors.Wrapf(ErrMissingTaxRate, "unparsable value %q", raw)
	}
	if rate.IsNegative() {
		return DefaultRate, errors.Wrapf(ErrMissingTaxRate, "negative value %q", raw)
	}
	return rate, nil
}

// RateSource provides the raw configured tax rate. A missing value is
// reported as ok=false rather than an error.
type RateSource interface {
	TaxRate(ctx context.Context) (raw string, ok bool, err error)
}

// TaxRate is a resolved rate together with whether it is the fallback.
type TaxRate struct {
	Percent   decimal.Decimal
	Defaulted bool
	// Reason explains why the default was used. Empty when Defaulted is false.
	Reason error
}

// ResolveTaxRate reads the rate from src and falls back to DefaultRate when
// the source has no value, an unusable value, or fails.
func ResolveTaxRate(ctx context.Context, src RateSource) TaxRate {
	raw, ok, err := src.TaxRate(ctx)
	if err != nil {
		return TaxRate{Percent: DefaultRate, Defaulted: true, Reason: errors.Wrap(err, "read tax rate")}
	}
	if !ok {
		return TaxRate{Percent: DefaultRate, Defaulted: true, Reason: ErrMissingTaxRate}
	}

	rate, err := ParseTaxRate(raw)
	if err != nil {
		return TaxRate{Percent: rate, Defaulted: true, Reason: err}
	}
	return TaxRate{Percent: rate}
}

// Apply computes totals for lines using the resolved rate and flags the
// result when the fallback rate was used.
func (r TaxRate) Apply(lines []cart.LineItem, discountPercent decimal.Decimal) Totals {
	t := ComputeTotals(lines, r.Percent, discountPercent)
	t.DefaultTaxRate = t.DefaultTaxRate || r.Defaulted
	return t
}

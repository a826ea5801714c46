// Package settings exposes the workshop's key/value configuration stored
// alongside the business data.
package settings

import (
	"context"
	"strings"

	"github.com/xenking/workshop-pos/internal/domain/pricing"
)

// KeyVATRate holds the VAT percentage applied at checkout.
const KeyVATRate = "vat_rate"

// Repository reads and writes workshop settings.
type Repository interface {
	// Get returns the value stored under key. A missing key is reported as
	// ok=false with a nil error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// TaxRateSource resolves the VAT rate from the settings table, falling back
// to a statically configured value when the key is absent or blank.
type TaxRateSource struct {
	repo     Repository
	fallback string
}

var _ pricing.RateSource = (*TaxRateSource)(nil)

// NewTaxRateSource creates a TaxRateSource. An empty fallback means the
// pricing default applies when the setting is missing.
func NewTaxRateSource(repo Repository, fallback string) *TaxRateSource {
	return &TaxRateSource{repo: repo, fallback: strings.TrimSpace(fallback)}
}

// TaxRate implements pricing.RateSource.
func (s *TaxRateSource) TaxRate(ctx context.Context) (string, bool, error) {
	v, ok, err := s.repo.Get(ctx, KeyVATRate)
	if err != nil {
		return "", false, err
	}
	if ok && strings.TrimSpace(v) != "" {
		return v, true, nil
	}
	if s.fallback != "" {
		return s.fallback, true, nil
	}
	return "", false, nil
}

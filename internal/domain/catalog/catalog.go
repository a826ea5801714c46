package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested catalog item does not exist.
var ErrNotFound = errors.New("catalog item not found")

// ErrUnknownType is returned for item types outside product, service and part.
var ErrUnknownType = errors.New("unknown item type")

// Type discriminates the kinds of sellable items.
type Type string

const (
	// TypeProduct is a retail product sold over the counter.
	TypeProduct Type = "product"
	// TypeService is billable labour such as a diagnosis or a repair.
	TypeService Type = "service"
	// TypePart is a spare part fitted during a repair.
	TypePart Type = "part"
)

// Valid reports whether t is one of the known item types.
func (t Type) Valid() bool {
	switch t {
	case TypeProduct, TypeService, TypePart:
		return true
	default:
		return false
	}
}

// ParseType converts a raw string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", errors.Wrapf(ErrUnknownType, "%q", s)
	}
	return t, nil
}

// Item represents a sellable catalog entry.
type Item struct {
	ID        string
	Name      string
	Type      Type
	UnitPrice decimal.Decimal
	Category  string
}

// Validate checks the invariants every catalog item must satisfy.
func (i Item) Validate() error {
	if i.ID == "" {
		return errors.New("item id required")
	}
	if i.Name == "" {
		return errors.Errorf("item %s: name required", i.ID)
	}
	if !i.Type.Valid() {
		return errors.Wrapf(ErrUnknownType, "item %s: %q", i.ID, i.Type)
	}
	if i.UnitPrice.IsNegative() {
		return errors.Errorf("item %s: unit price must not be negative", i.ID)
	}
	return nil
}

// Repository defines read operations for the catalog.
type Repository interface {
	List(ctx context.Context) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}

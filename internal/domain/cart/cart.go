// Package cart holds the mutable basket of a sale in progress.
//
// A Cart is owned by exactly one sale session and is not safe for concurrent
// use; callers serialise access. The freeze flag is the exception: while a
// finalize is in flight the cart is frozen, every mutation fails with
// ErrFrozen, and the lines may be read without holding the owner's lock.
package cart

import (
	"slices"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
)

var (
	// ErrInvalidPrice is returned when a price override is not strictly positive.
	ErrInvalidPrice = errors.New("price must be greater than 0")
	// ErrLineNotFound is returned when no line exists for the given item id.
	ErrLineNotFound = errors.New("line item not found")
	// ErrFrozen is returned for mutations attempted while the cart is being finalized.
	ErrFrozen = errors.New("cart is locked by a checkout in progress")
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// LineItem is one row of the cart. Name and Type are snapshots taken when the
// item was first added; UnitPrice starts at the catalog price and may be
// overridden afterwards.
type LineItem struct {
	ItemID     string
	Type       catalog.Type
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

func (l *LineItem) recompute() {
	l.TotalPrice = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Cart is an insertion-ordered set of line items plus an order-level discount.
type Cart struct {
	lines    []LineItem
	discount decimal.Decimal
	frozen   atomic.Bool
	onChange func()
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{discount: zero}
}

// OnChange registers fn to be called after every successful mutation.
func (c *Cart) OnChange(fn func()) {
	c.onChange = fn
}

func (c *Cart) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *Cart) find(itemID string) int {
	return slices.IndexFunc(c.lines, func(l LineItem) bool { return l.ItemID == itemID })
}

// AddItem merges item into the cart: an existing line has its quantity
// incremented, otherwise a new line with quantity 1 is appended.
func (c *Cart) AddItem(item catalog.Item) error {
	if c.frozen.Load() {
		return ErrFrozen
	}
	if !item.Type.Valid() {
		return errors.Wrapf(catalog.ErrUnknownType, "item %s: %q", item.ID, item.Type)
	}

	if i := c.find(item.ID); i >= 0 {
		c.lines[i].Quantity++
		c.lines[i].recompute()
	} else {
		line := LineItem{
			ItemID:    item.ID,
			Type:      item.Type,
			Name:      item.Name,
			Quantity:  1,
			UnitPrice: item.UnitPrice,
		}
		line.recompute()
		c.lines = append(c.lines, line)
	}

	c.changed()
	return nil
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (c *Cart) SetQuantity(itemID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveItem(itemID)
	}
	if c.frozen.Load() {
		return ErrFrozen
	}

	i := c.find(itemID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines[i].Quantity = quantity
	c.lines[i].recompute()

	c.changed()
	return nil
}

// RemoveItem deletes the line for itemID. Removing an absent line is a no-op.
func (c *Cart) RemoveItem(itemID string) error {
	if c.frozen.Load() {
		return ErrFrozen
	}

	i := c.find(itemID)
	if i < 0 {
		return nil
	}
	c.lines = slices.Delete(c.lines, i, i+1)

	c.changed()
	return nil
}

// PositivePrice reports whether price is still above zero after rounding to
// cents, the precision line totals are charged at.
func PositivePrice(price decimal.Decimal) bool {
	return price.Round(2).IsPositive()
}

// SetUnitPrice overrides the unit price of an existing line. Prices that round
// to zero are rejected with ErrInvalidPrice.
func (c *Cart) SetUnitPrice(itemID string, price decimal.Decimal) error {
	if c.frozen.Load() {
		return ErrFrozen
	}
	if !PositivePrice(price) {
		return ErrInvalidPrice
	}

	i := c.find(itemID)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines[i].UnitPrice = price
	c.lines[i].recompute()

	c.changed()
	return nil
}

// SetDiscountPercentage stores value clamped to [0, 100] with one decimal place.
func (c *Cart) SetDiscountPercentage(value decimal.Decimal) error {
	if c.frozen.Load() {
		return ErrFrozen
	}

	c.discount = ClampPercentage(value)

	c.changed()
	return nil
}

// ClampPercentage bounds a percentage to [0, 100] and rounds it to one
// decimal place.
func ClampPercentage(value decimal.Decimal) decimal.Decimal {
	switch {
	case value.IsNegative():
		return zero
	case value.GreaterThan(hundred):
		return hundred
	default:
		return value.Round(1)
	}
}

// DiscountPercentage returns the stored order-level discount.
func (c *Cart) DiscountPercentage() decimal.Decimal {
	return c.discount
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	return slices.Clone(c.lines)
}

// Line returns the line for itemID.
func (c *Cart) Line(itemID string) (LineItem, bool) {
	i := c.find(itemID)
	if i < 0 {
		return LineItem{}, false
	}
	return c.lines[i], true
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear empties the cart and resets the discount.
func (c *Cart) Clear() error {
	if c.frozen.Load() {
		return ErrFrozen
	}

	c.lines = nil
	c.discount = zero

	c.changed()
	return nil
}

// Freeze locks the cart against mutation. It fails with ErrFrozen when the
// cart is already locked, which rejects a second concurrent checkout.
func (c *Cart) Freeze() error {
	if !c.frozen.CompareAndSwap(false, true) {
		return ErrFrozen
	}
	return nil
}

// Unfreeze releases the lock taken by Freeze.
func (c *Cart) Unfreeze() {
	c.frozen.Store(false)
}

// Frozen reports whether a checkout currently holds the cart.
func (c *Cart) Frozen() bool {
	return c.frozen.Load()
}

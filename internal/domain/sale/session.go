// Package sale ties one cart, its price-edit keypad and its running totals
// into a session driven by a single operator terminal.
package sale

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/priceedit"
	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

// Finalizer persists a cart as a transaction.
type Finalizer interface {
	Finalize(ctx context.Context, c *cart.Cart, req transaction.FinalizeRequest) (*transaction.Transaction, error)
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Catalog   catalog.Repository
	Rates     pricing.RateSource
	Finalizer Finalizer
}

// CheckoutRequest carries the operator's checkout choices.
type CheckoutRequest struct {
	PaymentMethod transaction.PaymentMethod
	CustomerRef   string
	Status        transaction.Status
}

// Snapshot is a consistent read of a session.
type Snapshot struct {
	ID                 string
	Items              []cart.LineItem
	DiscountPercentage decimal.Decimal
	Totals             pricing.Totals
	// Editing is nil while the keypad is idle.
	Editing *priceedit.Editing
	// CheckingOut is true while a checkout is being persisted.
	CheckingOut bool
}

// Session is one sale in progress. All methods are safe for concurrent use.
//
// Checkout releases the session lock while the transaction is persisted; the
// cart stays frozen during that window so concurrent mutations fail with
// cart.ErrFrozen instead of blocking.
type Session struct {
	id   string
	deps Deps

	mu     sync.Mutex
	cart   *cart.Cart
	editor *priceedit.Controller
	rate   pricing.TaxRate
	totals pricing.Totals
}

// NewSession opens an empty sale with the tax rate currently configured.
func NewSession(ctx context.Context, id string, deps Deps) *Session {
	s := &Session{
		id:   id,
		deps: deps,
		cart: cart.New(),
		rate: pricing.ResolveTaxRate(ctx, deps.Rates),
	}
	s.editor = priceedit.NewController(s.cart)
	s.cart.OnChange(s.recompute)
	s.recompute()
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// recompute refreshes the cached totals. Called with mu held.
func (s *Session) recompute() {
	s.totals = s.rate.Apply(s.cart.Items(), s.cart.DiscountPercentage())
}

// Add puts one unit of the catalog item itemID into the cart.
func (s *Session) Add(ctx context.Context, itemID string) error {
	item, err := s.deps.Catalog.GetByID(ctx, itemID)
	if err != nil {
		return errors.Wrapf(err, "lookup %s", itemID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.AddItem(*item)
}

// SetQuantity sets the quantity of a line. Non-positive quantities remove it.
func (s *Session) SetQuantity(itemID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.SetQuantity(itemID, quantity)
}

// Remove deletes a line. Removing an absent line is a no-op.
func (s *Session) Remove(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.RemoveItem(itemID)
}

// SetDiscount sets the order-level discount percentage.
func (s *Session) SetDiscount(percentage decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cart.SetDiscountPercentage(percentage)
}

// BeginPriceEdit opens the keypad on itemID.
func (s *Session) BeginPriceEdit(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.editor.Begin(itemID)
}

// PressKeys feeds keys to the keypad in order and stops at the first
// rejected key. Keys before it stay applied.
func (s *Session) PressKeys(keys []priceedit.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, k := range keys {
		if err := s.editor.Press(k); err != nil {
			return errors.Wrapf(err, "key %d", i)
		}
	}
	return nil
}

// ReplacePriceBuffer overwrites the keypad buffer with typed text.
func (s *Session) ReplacePriceBuffer(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.editor.Replace(text)
}

// CommitPriceEdit applies the keypad buffer as the line's unit price.
func (s *Session) CommitPriceEdit() (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.editor.Commit()
}

// CancelPriceEdit closes the keypad without changing the cart.
func (s *Session) CancelPriceEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.editor.Cancel()
}

// Totals returns the cached totals of the current cart.
func (s *Session) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.totals
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:                 s.id,
		Items:              s.cart.Items(),
		DiscountPercentage: s.cart.DiscountPercentage(),
		Totals:             s.totals,
		CheckingOut:        s.cart.Frozen(),
	}
	if e, ok := s.editor.Editing(); ok {
		snap.Editing = &e
	}
	return snap
}

// Checkout finalizes the cart with a freshly resolved tax rate. On success
// the cart is cleared and any pending price edit is dropped; on failure the
// cart is left as it was.
func (s *Session) Checkout(ctx context.Context, req CheckoutRequest) (*transaction.Transaction, error) {
	s.mu.Lock()
	if err := s.cart.Freeze(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	rate := pricing.ResolveTaxRate(ctx, s.deps.Rates)
	tx, err := s.deps.Finalizer.Finalize(ctx, s.cart, transaction.FinalizeRequest{
		PaymentMethod: req.PaymentMethod,
		CustomerRef:   req.CustomerRef,
		Status:        req.Status,
		TaxRate:       rate,
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Unfreeze()
	s.rate = rate
	if err != nil {
		s.recompute()
		return nil, err
	}

	s.editor.Cancel()
	if err := s.cart.Clear(); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return tx, nil
}

// Cancel abandons the sale: the cart is emptied and the keypad closed.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cart.Clear(); err != nil {
		return err
	}
	s.editor.Cancel()
	return nil
}

func (s *Session) checkingOut() bool {
	return s.cart.Frozen()
}

// Package priceedit implements the numeric keypad used to override the unit
// price of a single cart line.
//
// The controller is either Idle or Editing exactly one line. Starting a new
// edit abandons the previous one without touching the cart; only Commit with
// a strictly positive amount writes a price.
package priceedit

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
)

var (
	// ErrNotEditing is returned for keypad input while no line is selected.
	ErrNotEditing = errors.New("no line is being edited")
	// ErrInvalidKey is returned for keys the keypad does not accept in the
	// current buffer state.
	ErrInvalidKey = errors.New("invalid key")
)

// RejectedInputError reports a commit refused because the buffer is not a
// strictly positive amount. It matches cart.ErrInvalidPrice with errors.Is.
type RejectedInputError struct {
	Buffer string
}

func (e *RejectedInputError) Error() string {
	return "rejected price " + strconv.Quote(e.Buffer) + ": " + cart.ErrInvalidPrice.Error()
}

// Unwrap exposes cart.ErrInvalidPrice.
func (e *RejectedInputError) Unwrap() error {
	return cart.ErrInvalidPrice
}

// Key is a single keypad press: a digit "0"-"9" or one of the keys below.
type Key string

// Non-digit keypad keys.
const (
	KeyBackspace Key = "backspace"
	KeyClear     Key = "clear"
	KeyDecimal   Key = "."
)

// State is the controller state: Idle or Editing.
type State interface {
	state()
}

// Idle means no line is selected for re-pricing.
type Idle struct{}

// Editing holds the line being re-priced and the keypad buffer.
type Editing struct {
	ItemID string
	Buffer string
}

func (Idle) state()    {}
func (Editing) state() {}

// Pricer is the part of the cart the controller writes to.
type Pricer interface {
	Line(itemID string) (cart.LineItem, bool)
	SetUnitPrice(itemID string, price decimal.Decimal) error
}

// Controller drives the price-edit keypad for one cart.
type Controller struct {
	cart  Pricer
	state State
}

// NewController returns an Idle controller bound to c.
func NewController(c Pricer) *Controller {
	return &Controller{cart: c, state: Idle{}}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Editing returns the current edit, if any.
func (c *Controller) Editing() (Editing, bool) {
	e, ok := c.state.(Editing)
	return e, ok
}

// Begin selects itemID for re-pricing with an empty buffer. Any edit already
// in progress is dropped.
func (c *Controller) Begin(itemID string) error {
	if _, ok := c.cart.Line(itemID); !ok {
		return cart.ErrLineNotFound
	}
	c.state = Editing{ItemID: itemID}
	return nil
}

// Press applies a keypad key to the buffer: digits append, the decimal point
// appends at most once, backspace drops the last character and clear empties
// the buffer.
func (c *Controller) Press(key Key) error {
	e, ok := c.state.(Editing)
	if !ok {
		return ErrNotEditing
	}

	switch {
	case key == KeyBackspace:
		if e.Buffer != "" {
			e.Buffer = e.Buffer[:len(e.Buffer)-1]
		}
	case key == KeyClear:
		e.Buffer = ""
	case key == KeyDecimal:
		if strings.Contains(e.Buffer, ".") {
			return errors.Wrap(ErrInvalidKey, "decimal point already entered")
		}
		e.Buffer += "."
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		e.Buffer += string(key)
	default:
		return errors.Wrapf(ErrInvalidKey, "%q", string(key))
	}

	c.state = e
	return nil
}

// Replace overwrites the buffer with text typed on a physical keyboard.
// The text is validated on Commit, not here, so a rejected commit leaves it
// on screen for correction.
func (c *Controller) Replace(text string) error {
	e, ok := c.state.(Editing)
	if !ok {
		return ErrNotEditing
	}
	e.Buffer = text
	c.state = e
	return nil
}

// Commit writes the buffer as the line's new unit price and returns to Idle.
// A buffer that is not a positive amount in keypad form is rejected with a
// *RejectedInputError and the controller stays in Editing with the buffer
// intact. If the line disappeared from the cart meanwhile, the edit is
// dropped and cart.ErrLineNotFound is returned.
func (c *Controller) Commit() (decimal.Decimal, error) {
	e, ok := c.state.(Editing)
	if !ok {
		return decimal.Decimal{}, ErrNotEditing
	}

	price, err := ParsePrice(e.Buffer)
	if err != nil {
		return decimal.Decimal{}, err
	}

	if err := c.cart.SetUnitPrice(e.ItemID, price); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			c.state = Idle{}
		}
		return decimal.Decimal{}, err
	}

	c.state = Idle{}
	return price, nil
}

// Cancel abandons the current edit without touching the cart.
func (c *Controller) Cancel() {
	c.state = Idle{}
}

// ParsePrice parses keypad input into an amount that stays positive once
// rounded to cents. Only digits and a single decimal point are accepted, the
// same characters Press lets into the buffer.
func ParsePrice(buffer string) (decimal.Decimal, error) {
	if !isAmount(buffer) {
		return decimal.Decimal{}, &RejectedInputError{Buffer: buffer}
	}
	price, err := decimal.NewFromString("0" + buffer)
	if err != nil || !cart.PositivePrice(price) {
		return decimal.Decimal{}, &RejectedInputError{Buffer: buffer}
	}
	return price, nil
}

func isAmount(s string) bool {
	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return false
		}
	}
	return digits > 0 && points <= 1
}

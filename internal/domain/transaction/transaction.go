package transaction

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
)

var (
	// ErrEmptyCart is returned when finalizing a cart without line items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidPaymentMethod is returned for unsupported payment methods.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidStatus is returned for unknown transaction statuses.
	ErrInvalidStatus = errors.New("invalid transaction status")
	// ErrNotFound is returned when a transaction does not exist.
	ErrNotFound = errors.New("transaction not found")
)

// PaymentMethod is how the customer settled the sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCheque   PaymentMethod = "cheque"
)

// ParsePaymentMethod normalises s and checks it is supported.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentCheque:
		return m, nil
	default:
		return "", errors.Wrapf(ErrInvalidPaymentMethod, "%q", s)
	}
}

// Status is the settlement state of a transaction.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPaid      Status = "paid"
	StatusUnpaid    Status = "unpaid"
	StatusCancelled Status = "cancelled"
)

// ParseStatus checks s is a known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusCompleted, StatusPaid, StatusUnpaid, StatusCancelled:
		return st, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "%q", s)
	}
}

// Transaction is the frozen record of a finalized sale. Renderers must use
// its figures as they are and never recompute them.
type Transaction struct {
	ID                  string
	CustomerRef         string
	Items               []cart.LineItem
	Subtotal            decimal.Decimal
	Tax                 decimal.Decimal
	VATRate             decimal.Decimal
	TotalBeforeDiscount decimal.Decimal
	DiscountPercentage  decimal.Decimal
	DiscountAmount      decimal.Decimal
	Total               decimal.Decimal
	PaymentMethod       PaymentMethod
	Status              Status
	CreatedAt           time.Time
}

// Creator persists a new transaction and returns the id it was stored under.
type Creator interface {
	Create(ctx context.Context, tx *Transaction) (string, error)
}

// Repository defines persistence operations for transactions.
type Repository interface {
	Creator
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// List returns the most recent transactions first, without their items.
	List(ctx context.Context, limit int) ([]Transaction, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// Sink receives every successfully persisted transaction, e.g. the invoice
// and thermal receipt renderers.
type Sink interface {
	Deliver(ctx context.Context, tx *Transaction) error
}

// PersistenceError wraps a failure of the persistence collaborator. Its
// message is the collaborator's message unchanged.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the collaborator's error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

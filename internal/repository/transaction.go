package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

const (
	insertTransactionSQL = `INSERT INTO transactions (
		id, customer_ref, subtotal, tax, vat_rate, total_before_discount,
		discount_percentage, discount_amount, total, payment_method, status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	transactionColumns = `id, customer_ref, subtotal, tax, vat_rate, total_before_discount,
		discount_percentage, discount_amount, total, payment_method, status, created_at`

	getTransactionSQL = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	listTransactionsSQL = `SELECT ` + transactionColumns + `
		FROM transactions ORDER BY created_at DESC, id LIMIT $1`

	getTransactionItemsSQL = `SELECT item_id, type, name, quantity, unit_price, total_price
		FROM transaction_items WHERE transaction_id = $1 ORDER BY position`

	updateTransactionStatusSQL = `UPDATE transactions SET status = $2, updated_at = now() WHERE id = $1`
)

var transactionItemColumns = []string{
	"transaction_id", "position", "item_id", "type", "name", "quantity", "unit_price", "total_price",
}

var _ transaction.Repository = (*TransactionRepository)(nil)

// TransactionRepository implements transaction.Repository backed by
// PostgreSQL. Transaction ids are UUIDs assigned on insert.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository that uses the
// given pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create stores the header and its line items atomically and returns the
// generated id. tx is not modified.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) (string, error) {
	id := uuid.New()

	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = dbTx.Rollback(ctx) }()

	_, err = dbTx.Exec(ctx, insertTransactionSQL,
		id, t.CustomerRef, t.Subtotal, t.Tax, t.VATRate, t.TotalBeforeDiscount,
		t.DiscountPercentage, t.DiscountAmount, t.Total,
		string(t.PaymentMethod), string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting transaction: %w", err)
	}

	rows := make([][]any, len(t.Items))
	for i, l := range t.Items {
		rows[i] = []any{id, i, l.ItemID, string(l.Type), l.Name, l.Quantity, l.UnitPrice, l.TotalPrice}
	}
	if _, err := dbTx.CopyFrom(ctx, pgx.Identifier{"transaction_items"}, transactionItemColumns, pgx.CopyFromRows(rows)); err != nil {
		return "", fmt.Errorf("inserting transaction items: %w", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id.String(), nil
}

// GetByID returns a transaction with its line items.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, transaction.ErrNotFound
	}

	rows, err := r.pool.Query(ctx, getTransactionSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction %q: %w", id, err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}
		return nil, fmt.Errorf("getting transaction %q: %w", id, err)
	}

	rows, err = r.pool.Query(ctx, getTransactionItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items of transaction %q: %w", id, err)
	}
	if t.Items, err = pgx.CollectRows(rows, scanTransactionItem); err != nil {
		return nil, fmt.Errorf("getting items of transaction %q: %w", id, err)
	}
	return &t, nil
}

// List returns up to limit transaction headers, newest first.
func (r *TransactionRepository) List(ctx context.Context, limit int) ([]transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx, listTransactionsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return pgx.CollectRows(rows, scanTransaction)
}

// UpdateStatus overwrites the status of transaction id.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status transaction.Status) error {
	tag, err := r.pool.Exec(ctx, updateTransactionStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of transaction %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return transaction.ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.CollectableRow) (transaction.Transaction, error) {
	var (
		t      transaction.Transaction
		id     uuid.UUID
		method string
		status string
	)
	err := row.Scan(
		&id, &t.CustomerRef, &t.Subtotal, &t.Tax, &t.VATRate, &t.TotalBeforeDiscount,
		&t.DiscountPercentage, &t.DiscountAmount, &t.Total, &method, &status, &t.CreatedAt,
	)
	t.ID = id.String()
	t.PaymentMethod = transaction.PaymentMethod(method)
	t.Status = transaction.Status(status)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, err
}

func scanTransactionItem(row pgx.CollectableRow) (cart.LineItem, error) {
	var (
		l   cart.LineItem
		typ string
	)
	err := row.Scan(&l.ItemID, &typ, &l.Name, &l.Quantity, &l.UnitPrice, &l.TotalPrice)
	l.Type = catalog.Type(typ)
	return l, err
}

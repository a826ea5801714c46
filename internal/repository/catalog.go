package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
)

const (
	listCatalogSQL = `SELECT id, name, type, unit_price, category
		FROM catalog_items ORDER BY category, name`

	getCatalogItemSQL = `SELECT id, name, type, unit_price, category
		FROM catalog_items WHERE id = $1`

	getCatalogItemsSQL = `SELECT id, name, type, unit_price, category
		FROM catalog_items WHERE id = ANY($1)`

	upsertCatalogItemSQL = `INSERT INTO catalog_items (id, name, type, unit_price, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			unit_price = EXCLUDED.unit_price,
			category = EXCLUDED.category,
			updated_at = now()`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns every catalog item ordered by category and name.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listCatalogSQL)
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	return pgx.CollectRows(rows, scanCatalogItem)
}

// GetByID returns a single item by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getCatalogItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanCatalogItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting catalog item %q: %w", id, err)
	}
	return &item, nil
}

// GetByIDs returns the items matching any of the given ids.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getCatalogItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting catalog items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanCatalogItem)
}

// Upsert inserts or replaces items in a single batch and returns how many
// rows were written.
func (r *CatalogRepository) Upsert(ctx context.Context, items []catalog.Item) (int, error) {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(upsertCatalogItemSQL, it.ID, it.Name, string(it.Type), it.UnitPrice, it.Category)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range items {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upserting catalog item %q: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}

func scanCatalogItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it  catalog.Item
		typ string
	)
	err := row.Scan(&it.ID, &it.Name, &typ, &it.UnitPrice, &it.Category)
	it.Type = catalog.Type(typ)
	return it, err
}

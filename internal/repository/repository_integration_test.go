//go:build integration

package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/settings"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "pos",
				"POSTGRES_PASSWORD": "pos",
				"POSTGRES_DB":       "pos",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pg.Terminate(context.Background()); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	host, err := pg.Host(ctx)
	if err != nil {
		log.Fatalf("host: %v", err)
	}
	port, err := pg.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}

	testPool, err = NewPool(ctx, fmt.Sprintf("postgres://pos:pos@%s:%s/pos?sslmode=disable", host, port.Port()))
	if err != nil {
		log.Fatalf("pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	// Twice, to prove the schema is idempotent.
	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("migrations (second run): %v", err)
	}

	return m.Run()
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(testPool)

	n, err := repo.Upsert(ctx, []catalog.Item{
		{ID: "it-scr", Name: "Screen", Type: catalog.TypePart, UnitPrice: d("89.90"), Category: "screens"},
		{ID: "it-lab", Name: "Labour", Type: catalog.TypeService, UnitPrice: d("30.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	item, err := repo.GetByID(ctx, "it-scr")
	require.NoError(t, err)
	assert.Equal(t, "Screen", item.Name)
	assert.Equal(t, catalog.TypePart, item.Type)
	assert.True(t, d("89.90").Equal(item.UnitPrice))

	// Upsert replaces.
	_, err = repo.Upsert(ctx, []catalog.Item{
		{ID: "it-scr", Name: "Screen OLED", Type: catalog.TypePart, UnitPrice: d("99.90"), Category: "screens"},
	})
	require.NoError(t, err)
	item, err = repo.GetByID(ctx, "it-scr")
	require.NoError(t, err)
	assert.Equal(t, "Screen OLED", item.Name)

	items, err := repo.GetByIDs(ctx, []string{"it-scr", "it-lab", "missing"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}

func TestCatalogRepository_RejectsUnknownType(t *testing.T) {
	repo := NewCatalogRepository(testPool)

	_, err := repo.Upsert(context.Background(), []catalog.Item{
		{ID: "it-bad", Name: "Voucher", Type: "voucher", UnitPrice: d("5")},
	})
	require.Error(t, err)
}

func TestTransactionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(testPool)

	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	tx := &transaction.Transaction{
		CustomerRef: "C-1042",
		Items: []cart.LineItem{
			{ItemID: "bat-01", Type: catalog.TypePart, Name: "Battery", Quantity: 2, UnitPrice: d("100.00"), TotalPrice: d("200.00")},
			{ItemID: "lab-30", Type: catalog.TypeService, Name: "Labour", Quantity: 1, UnitPrice: d("75.555"), TotalPrice: d("75.56")},
		},
		Subtotal:            d("275.56"),
		Tax:                 d("55.11"),
		VATRate:             d("20"),
		TotalBeforeDiscount: d("330.67"),
		DiscountPercentage:  d("10"),
		DiscountAmount:      d("33.07"),
		Total:               d("297.60"),
		PaymentMethod:       transaction.PaymentCard,
		Status:              transaction.StatusCompleted,
		CreatedAt:           created,
	}

	id, err := repo.Create(ctx, tx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "C-1042", got.CustomerRef)
	assert.True(t, d("297.60").Equal(got.Total))
	assert.True(t, d("10").Equal(got.DiscountPercentage))
	assert.Equal(t, transaction.PaymentCard, got.PaymentMethod)
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "bat-01", got.Items[0].ItemID)
	assert.True(t, d("75.555").Equal(got.Items[1].UnitPrice))
	assert.Equal(t, catalog.TypeService, got.Items[1].Type)

	require.NoError(t, repo.UpdateStatus(ctx, id, transaction.StatusPaid))
	got, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPaid, got.Status)

	list, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, id, list[0].ID)
}

func TestTransactionRepository_KeepsRecordedScale(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(testPool)

	id, err := repo.Create(ctx, &transaction.Transaction{
		Items: []cart.LineItem{
			{ItemID: "lab-30", Type: catalog.TypeService, Name: "Labour", Quantity: 1, UnitPrice: d("75.55555"), TotalPrice: d("75.56")},
		},
		Subtotal:            d("75.56"),
		Tax:                 d("755.60"),
		VATRate:             d("1000.125"),
		TotalBeforeDiscount: d("831.16"),
		Total:               d("831.16"),
		PaymentMethod:       transaction.PaymentCash,
		Status:              transaction.StatusCompleted,
		CreatedAt:           time.Now(),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "75.55555", got.Items[0].UnitPrice.String())
	assert.Equal(t, "1000.125", got.VATRate.String())
}

func TestTransactionRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(testPool)

	_, err := repo.GetByID(ctx, "not-a-uuid")
	require.ErrorIs(t, err, transaction.ErrNotFound)

	_, err = repo.GetByID(ctx, "6f1c2a4e-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, transaction.ErrNotFound)

	err = repo.UpdateStatus(ctx, "6f1c2a4e-0000-4000-8000-000000000000", transaction.StatusPaid)
	require.ErrorIs(t, err, transaction.ErrNotFound)
}

func TestTransactionRepository_CreateIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(testPool)

	_, err := repo.Create(ctx, &transaction.Transaction{
		Items: []cart.LineItem{
			{ItemID: "x", Type: catalog.TypePart, Name: "x", Quantity: 0, UnitPrice: d("1"), TotalPrice: d("0")},
		},
		PaymentMethod: transaction.PaymentCash,
		Status:        transaction.StatusCompleted,
		CreatedAt:     time.Now(),
	})
	require.Error(t, err)

	var count int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT count(*) FROM transactions t WHERE NOT EXISTS (SELECT 1 FROM transaction_items i WHERE i.transaction_id = t.id)`,
	).Scan(&count))
	assert.Zero(t, count)
}

func TestNewPool_TagsSessions(t *testing.T) {
	var name string
	require.NoError(t, testPool.QueryRow(context.Background(), `SELECT current_setting('application_name')`).Scan(&name))
	assert.Equal(t, applicationName, name)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(testPool)

	_, ok, err := repo.Get(ctx, "it-missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, settings.KeyVATRate, "20"))
	require.NoError(t, repo.Set(ctx, settings.KeyVATRate, "8.5"))

	v, ok, err := repo.Get(ctx, settings.KeyVATRate)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "8.5", v)
}

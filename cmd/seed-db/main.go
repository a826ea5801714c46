package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/db"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/settings"
	"github.com/xenking/workshop-pos/internal/repository"
)

type itemJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Category  string          `json:"category"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
		vatRate     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "", "path to a catalog JSON file (default: embedded demo catalog)")
	flag.StringVar(&vatRate, "vat-rate", "20", "VAT percentage stored in the workshop settings")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, vatRate); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, vatRate string) error {
	rate, err := pricing.ParseTaxRate(vatRate)
	if err != nil {
		return errors.Wrap(err, "parse vat rate")
	}

	items, err := loadCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "load catalog")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	n, err := repository.NewCatalogRepository(pool).Upsert(ctx, items)
	if err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	slog.Info("upserted catalog items", slog.Int("count", n))

	if err := repository.NewSettingsRepository(pool).Set(ctx, settings.KeyVATRate, rate.String()); err != nil {
		return errors.Wrap(err, "seed vat rate")
	}
	slog.Info("stored vat rate", slog.String("rate", rate.String()))

	return nil
}

// loadCatalog reads path, or the embedded demo catalog when path is empty,
// and validates every item.
func loadCatalog(path string) ([]catalog.Item, error) {
	data := db.SeedCatalog
	if path != "" {
		slog.Info("reading catalog file", slog.String("path", path))

		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read catalog file")
		}
	}

	var raw []itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	items := make([]catalog.Item, len(raw))
	for i, r := range raw {
		items[i] = catalog.Item{
			ID:        r.ID,
			Name:      r.Name,
			Type:      catalog.Type(r.Type),
			UnitPrice: r.UnitPrice,
			Category:  r.Category,
		}
		if err := items[i].Validate(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/repository"
)

const defaultBatchSize = 500

func main() {
	var (
		dataDir     string
		databaseURL string
		batchSize   int
		dryRun      bool
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz supplier price lists")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", defaultBatchSize, "items per upsert batch")
	flag.BoolVar(&dryRun, "dry-run", false, "parse and validate only")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL, batchSize, dryRun); err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string, batchSize int, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list price lists")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}
	sort.Strings(files)

	slog.Info("parsing price lists", slog.Int("files", len(files)))

	items, err := parseAll(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse price lists")
	}

	slog.Info("items ready", slog.Int("count", len(items)))

	if dryRun || len(items) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeItems(ctx, repository.NewCatalogRepository(pool), items, batchSize)
}

// parseAll reads every file concurrently and merges the results in file
// order, so an id listed in several files takes the values of the last one.
func parseAll(ctx context.Context, files []string) ([]catalog.Item, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			res, err := readPriceList(ctx, f)
			if err != nil {
				return errors.Wrapf(err, "file %s", filepath.Base(f))
			}

			slog.Info("price list parsed",
				slog.String("file", filepath.Base(f)),
				slog.Int("items", len(res.items)),
				slog.Int("rejected", res.rejected),
			)
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(results), nil
}

func merge(results []fileResult) []catalog.Item {
	index := make(map[string]int)
	var items []catalog.Item
	for _, r := range results {
		for _, it := range r.items {
			if i, ok := index[it.ID]; ok {
				items[i] = it
				continue
			}
			index[it.ID] = len(items)
			items = append(items, it)
		}
	}
	return items
}

// upserter is the part of the catalog repository the import writes to.
type upserter interface {
	Upsert(ctx context.Context, items []catalog.Item) (int, error)
}

func writeItems(ctx context.Context, repo upserter, items []catalog.Item, batchSize int) error {
	slog.Info("writing catalog items", slog.Int("count", len(items)))

	written := 0
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))

		n, err := repo.Upsert(ctx, items[start:end])
		written += n
		if err != nil {
			return errors.Wrapf(err, "upsert batch at %d", start)
		}

		slog.Info("write progress", slog.Int("written", written), slog.Int("total", len(items)))
	}
	return nil
}

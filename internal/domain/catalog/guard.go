package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const guardFPR = 0.001

var _ Repository = (*Guard)(nil)

// Guard wraps a Repository with a bloom filter of known item ids so that
// lookups for ids that were never in the catalog (mistyped codes, foreign
// barcodes) are answered without a database round trip. A negative filter
// answer is definitive; a positive one falls through to the repository.
type Guard struct {
	repo Repository

	mu          sync.RWMutex
	filter      *bloom.BloomFilter
	refreshedAt time.Time
}

// NewGuard creates a Guard. Until Refresh succeeds every lookup passes
// through to repo.
func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// Refresh rebuilds the filter from the full catalog listing and returns the
// number of ids loaded.
func (g *Guard) Refresh(ctx context.Context) (int, error) {
	items, err := g.repo.List(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "list catalog")
	}

	capacity := uint(len(items))
	if capacity < 1024 {
		capacity = 1024
	}
	filter := bloom.NewWithEstimates(capacity, guardFPR)
	for _, it := range items {
		filter.AddString(it.ID)
	}

	g.mu.Lock()
	g.filter = filter
	g.refreshedAt = time.Now()
	g.mu.Unlock()

	return len(items), nil
}

// RefreshedAt returns when the filter was last rebuilt, or the zero time.
func (g *Guard) RefreshedAt() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.refreshedAt
}

// Run refreshes the filter every interval until ctx is cancelled. A failed
// refresh keeps the previous filter.
func (g *Guard) Run(ctx context.Context, interval time.Duration) error {
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := g.Refresh(ctx)
			if err != nil {
				lg.Warn("Catalog filter refresh failed", zap.Error(err))
				continue
			}
			lg.Debug("Catalog filter refreshed", zap.Int("items", n))
		}
	}
}

// mayContain reports whether id could be in the catalog.
func (g *Guard) mayContain(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.filter == nil {
		return true
	}
	return g.filter.TestString(id)
}

// List returns the full catalog.
func (g *Guard) List(ctx context.Context) ([]Item, error) {
	return g.repo.List(ctx)
}

// GetByID returns ErrNotFound immediately for ids the filter has never seen.
func (g *Guard) GetByID(ctx context.Context, id string) (*Item, error) {
	if !g.mayContain(id) {
		return nil, ErrNotFound
	}
	return g.repo.GetByID(ctx, id)
}

// GetByIDs drops ids the filter rules out before querying.
func (g *Guard) GetByIDs(ctx context.Context, ids []string) ([]Item, error) {
	known := make([]string, 0, len(ids))
	for _, id := range ids {
		if g.mayContain(id) {
			known = append(known, id)
		}
	}
	if len(known) == 0 {
		return nil, nil
	}
	return g.repo.GetByIDs(ctx, known)
}

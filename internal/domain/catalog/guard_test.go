package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	items   []Item
	listErr error
	gets    int
}

func (m *mockRepo) List(_ context.Context) ([]Item, error) {
	return m.items, m.listErr
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Item, error) {
	m.gets++
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByIDs(_ context.Context, ids []string) ([]Item, error) {
	m.gets++
	var out []Item
	for _, id := range ids {
		for _, it := range m.items {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func testItems() []Item {
	return []Item{
		{ID: "scr-01", Name: "Screen protector", Type: TypeProduct, UnitPrice: decimal.RequireFromString("9.90")},
		{ID: "diag", Name: "Diagnosis", Type: TypeService, UnitPrice: decimal.RequireFromString("25.00")},
		{ID: "bat-ip12", Name: "Battery iPhone 12", Type: TypePart, UnitPrice: decimal.RequireFromString("39.00")},
	}
}

func TestGuard_PassThroughBeforeRefresh(t *testing.T) {
	repo := &mockRepo{items: testItems()}
	g := NewGuard(repo)

	_, err := g.GetByID(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, repo.gets, "lookup should reach the repository without a filter")
}

func TestGuard_RejectsUnknownWithoutQuery(t *testing.T) {
	repo := &mockRepo{items: testItems()}
	g := NewGuard(repo)

	n, err := g.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = g.GetByID(context.Background(), "definitely-not-there")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, repo.gets)

	it, err := g.GetByID(context.Background(), "diag")
	require.NoError(t, err)
	assert.Equal(t, "Diagnosis", it.Name)
	assert.Equal(t, 1, repo.gets)
}

func TestGuard_GetByIDsFiltersUnknown(t *testing.T) {
	repo := &mockRepo{items: testItems()}
	g := NewGuard(repo)
	_, err := g.Refresh(context.Background())
	require.NoError(t, err)

	got, err := g.GetByIDs(context.Background(), []string{"nope-1", "nope-2"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, repo.gets)

	got, err = g.GetByIDs(context.Background(), []string{"scr-01", "nope-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "scr-01", got[0].ID)
}

func TestGuard_RefreshError(t *testing.T) {
	g := NewGuard(&mockRepo{listErr: errors.New("db down")})

	_, err := g.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list catalog")
	assert.True(t, g.RefreshedAt().IsZero())
}

func TestGuard_RunRefreshesUntilCancelled(t *testing.T) {
	g := NewGuard(&mockRepo{items: testItems()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return !g.RefreshedAt().IsZero() }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, err := g.GetByID(context.Background(), "definitely-not-there")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{name: "valid part", item: testItems()[2]},
		{name: "free service", item: Item{ID: "s", Name: "Warranty check", Type: TypeService, UnitPrice: decimal.Zero}},
		{name: "missing id", item: Item{Name: "x", Type: TypeProduct}, wantErr: true},
		{name: "missing name", item: Item{ID: "x", Type: TypeProduct}, wantErr: true},
		{name: "unknown type", item: Item{ID: "x", Name: "x", Type: "gift"}, wantErr: true},
		{name: "negative price", item: Item{ID: "x", Name: "x", Type: TypePart, UnitPrice: decimal.NewFromInt(-1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("part")
	require.NoError(t, err)
	assert.Equal(t, TypePart, typ)

	_, err = ParseType("Part")
	require.ErrorIs(t, err, ErrUnknownType)
}

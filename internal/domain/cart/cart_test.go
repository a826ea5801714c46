package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/workshop-pos/internal/domain/catalog"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func screen() catalog.Item {
	return catalog.Item{ID: "scr-01", Name: "Screen iPhone 12", Type: catalog.TypePart, UnitPrice: d("89.90"), Category: "screens"}
}

func labour() catalog.Item {
	return catalog.Item{ID: "lab-30", Name: "Labour 30 min", Type: catalog.TypeService, UnitPrice: d("30.00")}
}

func TestAddItem_MergesSameID(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		c := New()
		for range n {
			require.NoError(t, c.AddItem(screen()))
		}

		require.Equal(t, 1, c.Len())
		line, ok := c.Line("scr-01")
		require.True(t, ok)
		assert.Equal(t, n, line.Quantity)
		assert.True(t, d("89.90").Mul(decimal.NewFromInt(int64(n))).Equal(line.TotalPrice))
	}
}

func TestAddItem_KeepsInsertionOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(labour()))
	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.AddItem(labour()))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "lab-30", items[0].ItemID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "scr-01", items[1].ItemID)
}

func TestAddItem_SnapshotsName(t *testing.T) {
	c := New()
	item := screen()
	require.NoError(t, c.AddItem(item))

	item.Name = "Renamed in catalog"
	item.UnitPrice = d("1.00")
	require.NoError(t, c.AddItem(item))

	line, _ := c.Line("scr-01")
	assert.Equal(t, "Screen iPhone 12", line.Name)
	assert.True(t, d("89.90").Equal(line.UnitPrice))
	assert.Equal(t, 2, line.Quantity)
}

func TestAddItem_UnknownType(t *testing.T) {
	c := New()
	err := c.AddItem(catalog.Item{ID: "x", Name: "x", Type: "voucher", UnitPrice: d("1")})
	require.ErrorIs(t, err, catalog.ErrUnknownType)
	assert.Zero(t, c.Len())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))

	require.NoError(t, c.SetQuantity("scr-01", 3))
	line, _ := c.Line("scr-01")
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, d("269.70").Equal(line.TotalPrice))

	require.ErrorIs(t, c.SetQuantity("missing", 2), ErrLineNotFound)
}

func TestSetQuantity_NonPositiveRemoves(t *testing.T) {
	for _, q := range []int{0, -1, -100} {
		withSet := New()
		withRemove := New()
		for _, c := range []*Cart{withSet, withRemove} {
			require.NoError(t, c.AddItem(screen()))
			require.NoError(t, c.AddItem(labour()))
		}

		require.NoError(t, withSet.SetQuantity("scr-01", q))
		require.NoError(t, withRemove.RemoveItem("scr-01"))

		assert.Equal(t, withRemove.Items(), withSet.Items(), "quantity %d", q)
		_, ok := withSet.Line("scr-01")
		assert.False(t, ok)
	}
}

func TestAddTwiceThenZeroQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.AddItem(screen()))

	line, _ := c.Line("scr-01")
	require.Equal(t, 2, line.Quantity)

	require.NoError(t, c.SetQuantity("scr-01", 0))
	assert.Zero(t, c.Len())
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(labour()))

	calls := 0
	c.OnChange(func() { calls++ })

	require.NoError(t, c.RemoveItem("missing"))
	assert.Equal(t, 1, c.Len())
	assert.Zero(t, calls)
}

func TestSetUnitPrice(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.SetQuantity("scr-01", 2))

	require.NoError(t, c.SetUnitPrice("scr-01", d("75.555")))
	line, _ := c.Line("scr-01")
	assert.True(t, d("75.555").Equal(line.UnitPrice))
	assert.True(t, d("151.11").Equal(line.TotalPrice))
}

func TestSetUnitPrice_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		itemID  string
		price   decimal.Decimal
		wantErr error
	}{
		{name: "zero", itemID: "scr-01", price: decimal.Zero, wantErr: ErrInvalidPrice},
		{name: "negative", itemID: "scr-01", price: d("-5"), wantErr: ErrInvalidPrice},
		{name: "rounds to zero", itemID: "scr-01", price: d("0.001"), wantErr: ErrInvalidPrice},
		{name: "just under half a cent", itemID: "scr-01", price: d("0.0049"), wantErr: ErrInvalidPrice},
		{name: "unknown line", itemID: "missing", price: d("5"), wantErr: ErrLineNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.NoError(t, c.AddItem(screen()))

			err := c.SetUnitPrice(tt.itemID, tt.price)
			require.ErrorIs(t, err, tt.wantErr)

			line, _ := c.Line("scr-01")
			assert.True(t, d("89.90").Equal(line.UnitPrice))
		})
	}
}

func TestSetUnitPrice_SmallestChargeable(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))

	require.NoError(t, c.SetUnitPrice("scr-01", d("0.005")))
	line, _ := c.Line("scr-01")
	assert.True(t, d("0.01").Equal(line.TotalPrice))
}

func TestSetDiscountPercentage_Clamps(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "-3", want: "0"},
		{in: "0", want: "0"},
		{in: "12.34", want: "12.3"},
		{in: "12.35", want: "12.4"},
		{in: "100", want: "100"},
		{in: "150", want: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := New()
			require.NoError(t, c.SetDiscountPercentage(d(tt.in)))
			assert.True(t, d(tt.want).Equal(c.DiscountPercentage()),
				"expected %s, got %s", tt.want, c.DiscountPercentage())
		})
	}
}

func TestFrozenCartRejectsMutation(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.Freeze())

	assert.ErrorIs(t, c.AddItem(labour()), ErrFrozen)
	assert.ErrorIs(t, c.SetQuantity("scr-01", 4), ErrFrozen)
	assert.ErrorIs(t, c.SetQuantity("scr-01", 0), ErrFrozen)
	assert.ErrorIs(t, c.RemoveItem("scr-01"), ErrFrozen)
	assert.ErrorIs(t, c.SetUnitPrice("scr-01", d("1")), ErrFrozen)
	assert.ErrorIs(t, c.SetDiscountPercentage(d("10")), ErrFrozen)
	assert.ErrorIs(t, c.Clear(), ErrFrozen)
	assert.ErrorIs(t, c.Freeze(), ErrFrozen)

	line, _ := c.Line("scr-01")
	assert.Equal(t, 1, line.Quantity)

	c.Unfreeze()
	assert.False(t, c.Frozen())
	assert.NoError(t, c.AddItem(labour()))
}

func TestOnChangeFiresPerMutation(t *testing.T) {
	c := New()
	calls := 0
	c.OnChange(func() { calls++ })

	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.AddItem(screen()))
	require.NoError(t, c.SetQuantity("scr-01", 5))
	require.NoError(t, c.SetUnitPrice("scr-01", d("10")))
	require.NoError(t, c.SetDiscountPercentage(d("5")))
	require.NoError(t, c.RemoveItem("scr-01"))
	require.NoError(t, c.Clear())

	assert.Equal(t, 7, calls)
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(screen()))

	items := c.Items()
	items[0].Quantity = 99

	line, _ := c.Line("scr-01")
	assert.Equal(t, 1, line.Quantity)
}

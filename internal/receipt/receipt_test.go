package receipt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleTx() *transaction.Transaction {
	return &transaction.Transaction{
		ID:          "8d6f3f5e-1c2b-4c7e-9a10-3f1f0a6b2c11",
		CustomerRef: "C-1042",
		Items: []cart.LineItem{
			{ItemID: "bat-01", Type: catalog.TypePart, Name: "Battery iPhone 12", Quantity: 2, UnitPrice: d("100.0000"), TotalPrice: d("200.00")},
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
		CreatedAt:           time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
}

func TestFormat(t *testing.T) {
	out := Format("FIXIT WORKSHOP", sampleTx())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	for _, l := range lines {
		assert.LessOrEqual(t, len([]rune(l)), Width, "line too wide: %q", l)
	}

	assert.Contains(t, out, "FIXIT WORKSHOP")
	assert.Contains(t, out, "2026-03-14 10:30 UTC")
	assert.Contains(t, out, "Customer C-1042")
	assert.Contains(t, lines, "  2 x 100.00"+strings.Repeat(" ", Width-len("  2 x 100.00")-len("200.00"))+"200.00")
	assert.Contains(t, out, "1 x 75.555")
	assert.Contains(t, out, "-33.07\n")
	assert.Contains(t, lines, "TOTAL"+strings.Repeat(" ", Width-len("TOTAL")-len("297.60"))+"297.60")
	assert.Contains(t, out, "VAT 20%")
	assert.Contains(t, out, "Discount 10%")
}

func TestFormat_NoDiscountLines(t *testing.T) {
	tx := sampleTx()
	tx.DiscountPercentage = decimal.Zero
	tx.DiscountAmount = decimal.Zero

	out := Format("", tx)
	assert.NotContains(t, out, "Discount")
	assert.NotContains(t, out, "Total before discount")
}

func TestFormat_LongNamesAreTruncated(t *testing.T) {
	tx := sampleTx()
	tx.Items[0].Name = strings.Repeat("é", Width+10)

	out := Format("", tx)
	assert.Contains(t, out, strings.Repeat("é", Width)+"\n")
	assert.NotContains(t, out, strings.Repeat("é", Width+1))
}

func TestSink_WritesFile(t *testing.T) {
	dir := t.TempDir()
	s := &Sink{Header: "FIXIT", Dir: dir}
	tx := sampleTx()

	require.NoError(t, s.Deliver(context.Background(), tx))

	data, err := os.ReadFile(filepath.Join(dir, tx.ID+".txt"))
	require.NoError(t, err)
	assert.Equal(t, Format("FIXIT", tx), string(data))
}

func TestSink_LogsWithoutDir(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := zctx.Base(context.Background(), zap.New(core))

	require.NoError(t, (&Sink{}).Deliver(ctx, sampleTx()))

	entries := logs.FilterMessage("Receipt").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["receipt"], "297.60")
}

func TestSink_MissingDir(t *testing.T) {
	s := &Sink{Dir: filepath.Join(t.TempDir(), "does-not-exist")}
	assert.Error(t, s.Deliver(context.Background(), sampleTx()))
}

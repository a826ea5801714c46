// Package receipt renders finalized transactions as plain-text thermal
// receipts.
package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

// Width is the number of characters per line on an 80 mm roll.
const Width = 42

// Sink implements transaction.Sink. Receipts are written to Dir as
// <transaction id>.txt, or logged when Dir is empty.
type Sink struct {
	Header string
	Dir    string
}

var _ transaction.Sink = (*Sink)(nil)

// Deliver renders tx and stores it.
func (s *Sink) Deliver(ctx context.Context, tx *transaction.Transaction) error {
	text := Format(s.Header, tx)

	lg := zctx.From(ctx)
	if s.Dir == "" {
		lg.Info("Receipt", zap.String("transaction_id", tx.ID), zap.String("receipt", text))
		return nil
	}

	path := filepath.Join(s.Dir, tx.ID+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, "write receipt")
	}
	lg.Debug("Receipt written", zap.String("path", path))
	return nil
}

// Format lays out tx as a receipt. Every figure is taken from tx as is.
func Format(header string, tx *transaction.Transaction) string {
	var b strings.Builder
	rule := strings.Repeat("-", Width) + "\n"

	if header != "" {
		center(&b, header)
	}
	fmt.Fprintf(&b, "Sale %s\n", tx.ID)
	fmt.Fprintf(&b, "%s\n", tx.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	if tx.CustomerRef != "" {
		fmt.Fprintf(&b, "Customer %s\n", tx.CustomerRef)
	}
	b.WriteString(rule)

	for _, l := range tx.Items {
		b.WriteString(truncate(l.Name, Width) + "\n")
		row(&b, fmt.Sprintf("  %d x %s", l.Quantity, pricing.FormatMoney(l.UnitPrice)), pricing.FormatMoney(l.TotalPrice))
	}
	b.WriteString(rule)

	row(&b, "Subtotal", pricing.FormatMoney(tx.Subtotal))
	row(&b, "VAT "+tx.VATRate.String()+"%", pricing.FormatMoney(tx.Tax))
	if tx.DiscountAmount.IsPositive() {
		row(&b, "Total before discount", pricing.FormatMoney(tx.TotalBeforeDiscount))
		row(&b, "Discount "+tx.DiscountPercentage.String()+"%", "-"+pricing.FormatMoney(tx.DiscountAmount))
	}
	row(&b, "TOTAL", pricing.FormatMoney(tx.Total))
	b.WriteString(rule)
	row(&b, "Paid by", string(tx.PaymentMethod))

	return b.String()
}

func row(b *strings.Builder, label, value string) {
	pad := Width - utf8.RuneCountInString(label) - utf8.RuneCountInString(value)
	if pad < 1 {
		label = truncate(label, Width-utf8.RuneCountInString(value)-1)
		pad = 1
	}
	b.WriteString(label + strings.Repeat(" ", pad) + value + "\n")
}

func center(b *strings.Builder, s string) {
	s = truncate(s, Width)
	b.WriteString(strings.Repeat(" ", (Width-utf8.RuneCountInString(s))/2) + s + "\n")
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
